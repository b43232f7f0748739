package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var processTenant string

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Run one document through the extraction pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "process")
		if err != nil {
			return err
		}
		defer env.Close()

		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "read %s", path)
		}

		res, err := env.Pipeline.Process(ctx, processTenant, filepath.Base(path), contentTypeFor(path), data)
		if err != nil {
			return eris.Wrapf(err, "process %s", path)
		}

		fields := []zap.Field{
			zap.String("document", res.Document.ID),
			zap.String("status", string(res.Document.Status)),
			zap.String("method", string(res.Method)),
		}
		if res.Save != nil {
			fields = append(fields, zap.String("result", res.Save.Message))
		}
		zap.L().Info("processing complete", fields...)
		return nil
	},
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

func init() {
	processCmd.Flags().StringVar(&processTenant, "tenant", "", "tenant to save tariffs under")
	rootCmd.AddCommand(processCmd)
}
