package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tripworks/costing-gpt/internal/db"
	"github.com/tripworks/costing-gpt/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS properties (
	id            TEXT PRIMARY KEY,
	tenant_id     TEXT NOT NULL DEFAULT 'default',
	name          TEXT NOT NULL,
	city          TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT '',
	property_type TEXT NOT NULL DEFAULT 'hotel',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tenant_id, name, city)
);

CREATE TABLE IF NOT EXISTS vendors (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL DEFAULT 'default',
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tenant_id, name)
);

CREATE TABLE IF NOT EXISTS room_types (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL REFERENCES properties(id),
	name        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (property_id, name)
);

CREATE TABLE IF NOT EXISTS rate_plans (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL REFERENCES properties(id),
	meal_plan   TEXT NOT NULL,
	plan_name   TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (property_id, meal_plan)
);

CREATE TABLE IF NOT EXISTS seasons (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL REFERENCES properties(id),
	name        TEXT NOT NULL,
	start_date  TEXT NOT NULL,
	end_date    TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (property_id, name, start_date, end_date)
);

CREATE TABLE IF NOT EXISTS tariffs (
	id           TEXT PRIMARY KEY,
	property_id  TEXT NOT NULL REFERENCES properties(id),
	vendor_id    TEXT NOT NULL REFERENCES vendors(id),
	room_type_id TEXT NOT NULL REFERENCES room_types(id),
	rate_plan_id TEXT NOT NULL REFERENCES rate_plans(id),
	season_id    TEXT NOT NULL REFERENCES seasons(id),
	base_rate    DOUBLE PRECISION NOT NULL,
	tax_percent  DOUBLE PRECISION NOT NULL,
	service_fee  DOUBLE PRECISION NOT NULL,
	currency     TEXT NOT NULL DEFAULT 'INR',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (property_id, vendor_id, room_type_id, rate_plan_id, season_id)
);

CREATE TABLE IF NOT EXISTS tariff_attributes (
	tariff_id  TEXT PRIMARY KEY REFERENCES tariffs(id),
	attributes JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL DEFAULT 'default',
	file_name    TEXT NOT NULL,
	content_type TEXT NOT NULL,
	storage_url  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending',
	raw_text     TEXT,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS hotel_tariffs (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL DEFAULT 'default',
	hotel_name  TEXT NOT NULL,
	vendor      TEXT NOT NULL DEFAULT '',
	city        TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	base_rate   DOUBLE PRECISION NOT NULL DEFAULT 0,
	gst_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	service_fee DOUBLE PRECISION NOT NULL DEFAULT 0,
	meal_plan   TEXT NOT NULL DEFAULT '',
	season      TEXT NOT NULL DEFAULT '',
	start_date  TEXT NOT NULL DEFAULT '',
	end_date    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tenant_id, hotel_name, vendor, season, start_date, end_date)
);

CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);
CREATE INDEX IF NOT EXISTS idx_tariffs_property ON tariffs(property_id);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_hotel_tariffs_city ON hotel_tariffs(city);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Documents ---

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.TenantID == "" {
		doc.TenantID = DefaultTenant
	}
	if doc.Status == "" {
		doc.Status = model.DocumentStatusPending
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, tenant_id, file_name, content_type, storage_url, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.TenantID, doc.FileName, doc.ContentType, doc.StorageURL, string(doc.Status), now, now,
	)
	return eris.Wrap(err, "postgres: insert document")
}

func (s *PostgresStore) UpdateDocumentStatus(ctx context.Context, id string, status model.DocumentStatus, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update document status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SetDocumentText(ctx context.Context, id, text string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET raw_text = $1, updated_at = $2 WHERE id = $3`,
		text, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set document text %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	var rawText, errMsg *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, file_name, content_type, storage_url, status, raw_text, error, created_at, updated_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.TenantID, &d.FileName, &d.ContentType, &d.StorageURL, &d.Status, &rawText, &errMsg, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get document %s", id)
	}
	if rawText != nil {
		d.RawText = *rawText
	}
	if errMsg != nil {
		d.Error = *errMsg
	}
	return &d, nil
}

// --- Reconciler ---

// SaveTariff resolves or creates the five dimensions for the record and
// upserts the fact row, then mirrors the flat legacy row best-effort. All
// lookups are exact string matches; records differing only in case produce
// separate dimension rows on purpose.
func (s *PostgresStore) SaveTariff(ctx context.Context, tenantID string, rec *model.TariffRecord, documentID string) *SaveResult {
	if rec == nil {
		return &SaveResult{Saved: false, Message: "no record to save"}
	}
	if tenantID == "" {
		tenantID = DefaultTenant
	}

	tariffID, created, err := s.reconcile(ctx, tenantID, rec, documentID)
	res := &SaveResult{Saved: err == nil, TariffID: tariffID, Created: created}
	if err != nil {
		zap.L().Error("postgres: reconcile failed",
			zap.String("hotel", rec.HotelName),
			zap.Error(err),
		)
	}

	// Legacy mirror is written regardless of how the normalized write went;
	// a failure on either side must not block the other.
	legacyErr := s.writeLegacy(ctx, tenantID, rec)
	res.LegacySaved = legacyErr == nil
	if legacyErr != nil {
		zap.L().Error("postgres: legacy mirror failed",
			zap.String("hotel", rec.HotelName),
			zap.Error(legacyErr),
		)
	}

	switch {
	case err == nil && legacyErr == nil:
		verb := "updated"
		if created {
			verb = "created"
		}
		res.Message = fmt.Sprintf("tariff %s for %s", verb, rec.HotelName)
	case err == nil:
		res.Message = fmt.Sprintf("tariff saved for %s (legacy mirror failed)", rec.HotelName)
	case legacyErr == nil:
		res.Message = fmt.Sprintf("legacy tariff saved for %s (normalized schema failed: %s)", rec.HotelName, eris.ToString(err, false))
	default:
		res.Message = fmt.Sprintf("extracted but not saved: %s", eris.ToString(err, false))
	}
	return res
}

func (s *PostgresStore) reconcile(ctx context.Context, tenantID string, rec *model.TariffRecord, documentID string) (string, bool, error) {
	propertyID, err := s.getOrCreateProperty(ctx, tenantID, rec)
	if err != nil {
		return "", false, err
	}
	vendorID, err := s.getOrCreateVendor(ctx, tenantID, rec.Vendor)
	if err != nil {
		return "", false, err
	}
	roomTypeID, err := s.getOrCreateRoomType(ctx, propertyID, DefaultRoomType)
	if err != nil {
		return "", false, err
	}
	mealPlan := rec.MealPlan
	if mealPlan == "" {
		mealPlan = DefaultMealPlan
	}
	ratePlanID, err := s.getOrCreateRatePlan(ctx, propertyID, mealPlan)
	if err != nil {
		return "", false, err
	}
	season := rec.Season
	if season == "" {
		season = DefaultSeason
	}
	seasonID, err := s.getOrCreateSeason(ctx, propertyID, season, rec.StartDate, rec.EndDate)
	if err != nil {
		return "", false, err
	}

	tariffID, created, err := s.upsertTariff(ctx, propertyID, vendorID, roomTypeID, ratePlanID, seasonID, rec)
	if err != nil {
		return "", false, err
	}

	if documentID != "" {
		if err := s.upsertAttributes(ctx, tariffID, documentID); err != nil {
			return tariffID, created, err
		}
	}
	return tariffID, created, nil
}

// getOrCreate looks up a dimension row by its natural key and inserts it when
// absent. The check-then-act window is closed by the UNIQUE constraint: a
// conflicting concurrent insert makes ON CONFLICT DO NOTHING return no row
// and the id is re-read.
func (s *PostgresStore) getOrCreate(ctx context.Context, selectSQL, insertSQL string, selectArgs, insertArgs []any) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, selectSQL, selectArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = s.pool.QueryRow(ctx, insertSQL, insertArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	// Lost the race: another writer inserted the same natural key.
	err = s.pool.QueryRow(ctx, selectSQL, selectArgs...).Scan(&id)
	return id, err
}

func (s *PostgresStore) getOrCreateProperty(ctx context.Context, tenantID string, rec *model.TariffRecord) (string, error) {
	id, err := s.getOrCreate(ctx,
		`SELECT id FROM properties WHERE tenant_id = $1 AND name = $2 AND city = $3`,
		`INSERT INTO properties (id, tenant_id, name, city, category, property_type)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (tenant_id, name, city) DO NOTHING RETURNING id`,
		[]any{tenantID, rec.HotelName, rec.City},
		[]any{uuid.New().String(), tenantID, rec.HotelName, rec.City, rec.Category, DefaultPropertyType},
	)
	return id, eris.Wrapf(err, "postgres: get-or-create property %s", rec.HotelName)
}

func (s *PostgresStore) getOrCreateVendor(ctx context.Context, tenantID, name string) (string, error) {
	id, err := s.getOrCreate(ctx,
		`SELECT id FROM vendors WHERE tenant_id = $1 AND name = $2`,
		`INSERT INTO vendors (id, tenant_id, name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (tenant_id, name) DO NOTHING RETURNING id`,
		[]any{tenantID, name},
		[]any{uuid.New().String(), tenantID, name},
	)
	return id, eris.Wrapf(err, "postgres: get-or-create vendor %s", name)
}

func (s *PostgresStore) getOrCreateRoomType(ctx context.Context, propertyID, name string) (string, error) {
	id, err := s.getOrCreate(ctx,
		`SELECT id FROM room_types WHERE property_id = $1 AND name = $2`,
		`INSERT INTO room_types (id, property_id, name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (property_id, name) DO NOTHING RETURNING id`,
		[]any{propertyID, name},
		[]any{uuid.New().String(), propertyID, name},
	)
	return id, eris.Wrapf(err, "postgres: get-or-create room type %s", name)
}

func (s *PostgresStore) getOrCreateRatePlan(ctx context.Context, propertyID, mealPlan string) (string, error) {
	id, err := s.getOrCreate(ctx,
		`SELECT id FROM rate_plans WHERE property_id = $1 AND meal_plan = $2`,
		`INSERT INTO rate_plans (id, property_id, meal_plan, plan_name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (property_id, meal_plan) DO NOTHING RETURNING id`,
		[]any{propertyID, mealPlan},
		[]any{uuid.New().String(), propertyID, mealPlan, mealPlan + " Plan"},
	)
	return id, eris.Wrapf(err, "postgres: get-or-create rate plan %s", mealPlan)
}

func (s *PostgresStore) getOrCreateSeason(ctx context.Context, propertyID, name, startDate, endDate string) (string, error) {
	id, err := s.getOrCreate(ctx,
		`SELECT id FROM seasons WHERE property_id = $1 AND name = $2 AND start_date = $3 AND end_date = $4`,
		`INSERT INTO seasons (id, property_id, name, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (property_id, name, start_date, end_date) DO NOTHING RETURNING id`,
		[]any{propertyID, name, startDate, endDate},
		[]any{uuid.New().String(), propertyID, name, startDate, endDate},
	)
	return id, eris.Wrapf(err, "postgres: get-or-create season %s", name)
}

// upsertTariff enforces at most one fact row per composite key: an existing
// row is updated in place and keeps its dimension links.
func (s *PostgresStore) upsertTariff(ctx context.Context, propertyID, vendorID, roomTypeID, ratePlanID, seasonID string, rec *model.TariffRecord) (string, bool, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM tariffs
		 WHERE property_id = $1 AND vendor_id = $2 AND room_type_id = $3 AND rate_plan_id = $4 AND season_id = $5`,
		propertyID, vendorID, roomTypeID, ratePlanID, seasonID,
	).Scan(&id)

	switch {
	case err == nil:
		_, err = s.pool.Exec(ctx,
			`UPDATE tariffs SET base_rate = $1, tax_percent = $2, service_fee = $3, updated_at = $4 WHERE id = $5`,
			rec.BaseRate, rec.GSTPercent, rec.ServiceFee, time.Now().UTC(), id,
		)
		return id, false, eris.Wrapf(err, "postgres: update tariff %s", id)
	case errors.Is(err, pgx.ErrNoRows):
		id = uuid.New().String()
		now := time.Now().UTC()
		_, err = s.pool.Exec(ctx,
			`INSERT INTO tariffs (id, property_id, vendor_id, room_type_id, rate_plan_id, season_id, base_rate, tax_percent, service_fee, currency, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			id, propertyID, vendorID, roomTypeID, ratePlanID, seasonID,
			rec.BaseRate, rec.GSTPercent, rec.ServiceFee, DefaultCurrency, now, now,
		)
		return id, true, eris.Wrap(err, "postgres: insert tariff")
	default:
		return "", false, eris.Wrap(err, "postgres: lookup tariff")
	}
}

func (s *PostgresStore) upsertAttributes(ctx context.Context, tariffID, documentID string) error {
	attrs, err := json.Marshal(map[string]string{"source_document_id": documentID})
	if err != nil {
		return eris.Wrap(err, "postgres: marshal attributes")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO tariff_attributes (tariff_id, attributes, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (tariff_id) DO UPDATE SET attributes = $2, updated_at = $3`,
		tariffID, attrs, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert attributes for tariff %s", tariffID)
}

func (s *PostgresStore) writeLegacy(ctx context.Context, tenantID string, rec *model.TariffRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO hotel_tariffs (id, tenant_id, hotel_name, vendor, city, category, base_rate, gst_percent, service_fee, meal_plan, season, start_date, end_date, description, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (tenant_id, hotel_name, vendor, season, start_date, end_date) DO UPDATE SET
		   city = $5, category = $6, base_rate = $7, gst_percent = $8, service_fee = $9,
		   meal_plan = $10, description = $14, updated_at = $15`,
		uuid.New().String(), tenantID, rec.HotelName, rec.Vendor, rec.City, rec.Category,
		rec.BaseRate, rec.GSTPercent, rec.ServiceFee, rec.MealPlan, rec.Season,
		rec.StartDate, rec.EndDate, rec.Description, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: upsert legacy tariff")
}

// --- Queries ---

func (s *PostgresStore) GetTariff(ctx context.Context, id string) (*model.Tariff, error) {
	var t model.Tariff
	err := s.pool.QueryRow(ctx,
		`SELECT id, property_id, vendor_id, room_type_id, rate_plan_id, season_id, base_rate, tax_percent, service_fee, currency
		 FROM tariffs WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.PropertyID, &t.VendorID, &t.RoomTypeID, &t.RatePlanID, &t.SeasonID,
		&t.BaseRate, &t.TaxPercent, &t.ServiceFee, &t.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get tariff %s", id)
	}
	return &t, nil
}

const tariffListingSelect = `
SELECT t.id, p.name, p.city, p.category, v.name, rt.name, rp.plan_name, se.name,
       t.base_rate, t.tax_percent, t.service_fee, t.currency
FROM tariffs t
JOIN properties p ON p.id = t.property_id
JOIN vendors v ON v.id = t.vendor_id
JOIN room_types rt ON rt.id = t.room_type_id
JOIN rate_plans rp ON rp.id = t.rate_plan_id
JOIN seasons se ON se.id = t.season_id`

func (s *PostgresStore) ListTariffs(ctx context.Context, filter TariffFilter) ([]model.TariffListing, error) {
	query := tariffListingSelect + ` WHERE p.tenant_id = $1`
	tenantID := filter.TenantID
	if tenantID == "" {
		tenantID = DefaultTenant
	}
	args := []any{tenantID}
	argIdx := 2

	if filter.City != "" {
		query += fmt.Sprintf(` AND lower(p.city) LIKE '%%' || lower($%d) || '%%'`, argIdx)
		args = append(args, filter.City)
		argIdx++
	}
	query += ` ORDER BY t.base_rate ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tariffs")
	}
	defer rows.Close()

	var listings []model.TariffListing
	for rows.Next() {
		var l model.TariffListing
		if err := rows.Scan(&l.TariffID, &l.HotelName, &l.City, &l.Category, &l.Vendor,
			&l.RoomType, &l.RatePlan, &l.Season, &l.BaseRate, &l.TaxPercent, &l.ServiceFee, &l.Currency); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tariff listing")
		}
		listings = append(listings, l)
	}
	return listings, eris.Wrap(rows.Err(), "postgres: list tariffs iterate")
}

// BestRate returns the cheapest tariff whose property city contains the
// given city, case-insensitively. No match returns (nil, nil).
func (s *PostgresStore) BestRate(ctx context.Context, tenantID, city string) (*model.TariffListing, error) {
	if tenantID == "" {
		tenantID = DefaultTenant
	}
	var l model.TariffListing
	err := s.pool.QueryRow(ctx,
		tariffListingSelect+`
		 WHERE p.tenant_id = $1 AND lower(p.city) LIKE '%' || lower($2) || '%'
		 ORDER BY t.base_rate ASC LIMIT 1`,
		tenantID, city,
	).Scan(&l.TariffID, &l.HotelName, &l.City, &l.Category, &l.Vendor,
		&l.RoomType, &l.RatePlan, &l.Season, &l.BaseRate, &l.TaxPercent, &l.ServiceFee, &l.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: best rate for %s", city)
	}
	return &l, nil
}
