package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultModelID = "prebuilt-hoteltariff"

// RESTAnalyzer calls the document-intelligence service over HTTP.
type RESTAnalyzer struct {
	endpoint string
	key      string
	modelID  string
	client   *http.Client
}

// NewRESTAnalyzer creates a RESTAnalyzer from config. If no model id is set,
// the default trained hotel-tariff model is used.
func NewRESTAnalyzer(cfg Config) *RESTAnalyzer {
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	return &RESTAnalyzer{
		endpoint: cfg.Endpoint,
		key:      cfg.Key,
		modelID:  modelID,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

type analyzeRequest struct {
	ModelID     string `json:"modelId"`
	ContentType string `json:"contentType"`
	Base64      string `json:"base64Source"`
}

// Analyze sends the document and decodes the service's analyze result.
func (a *RESTAnalyzer) Analyze(ctx context.Context, content []byte, contentType string) (*Result, error) {
	reqBody := analyzeRequest{
		ModelID:     a.modelID,
		ContentType: contentType,
		Base64:      base64.StdEncoding.EncodeToString(content),
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/analyze", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("analyzer: status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "analyzer: decode response")
	}

	zap.L().Debug("analyzer: document analyzed",
		zap.Int("content_len", len(result.Content)),
		zap.Int("documents", len(result.Documents)),
		zap.Int("tables", len(result.Tables)),
	)
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
