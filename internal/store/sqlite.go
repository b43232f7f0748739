package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/tripworks/costing-gpt/internal/model"
)

// SQLiteStore implements Store on an embedded database. It serves local and
// single-node deployments where running Postgres is not worth it.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) the database at path. Use
// ":memory:" for an ephemeral store.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: open %s", path)
	}
	// A single writer avoids SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS properties (
	id            TEXT PRIMARY KEY,
	tenant_id     TEXT NOT NULL DEFAULT 'default',
	name          TEXT NOT NULL,
	city          TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT '',
	property_type TEXT NOT NULL DEFAULT 'hotel',
	created_at    TEXT NOT NULL,
	UNIQUE (tenant_id, name, city)
);

CREATE TABLE IF NOT EXISTS vendors (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL DEFAULT 'default',
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (tenant_id, name)
);

CREATE TABLE IF NOT EXISTS room_types (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL REFERENCES properties(id),
	name        TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE (property_id, name)
);

CREATE TABLE IF NOT EXISTS rate_plans (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL REFERENCES properties(id),
	meal_plan   TEXT NOT NULL,
	plan_name   TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE (property_id, meal_plan)
);

CREATE TABLE IF NOT EXISTS seasons (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL REFERENCES properties(id),
	name        TEXT NOT NULL,
	start_date  TEXT NOT NULL,
	end_date    TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE (property_id, name, start_date, end_date)
);

CREATE TABLE IF NOT EXISTS tariffs (
	id           TEXT PRIMARY KEY,
	property_id  TEXT NOT NULL REFERENCES properties(id),
	vendor_id    TEXT NOT NULL REFERENCES vendors(id),
	room_type_id TEXT NOT NULL REFERENCES room_types(id),
	rate_plan_id TEXT NOT NULL REFERENCES rate_plans(id),
	season_id    TEXT NOT NULL REFERENCES seasons(id),
	base_rate    REAL NOT NULL,
	tax_percent  REAL NOT NULL,
	service_fee  REAL NOT NULL,
	currency     TEXT NOT NULL DEFAULT 'INR',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	UNIQUE (property_id, vendor_id, room_type_id, rate_plan_id, season_id)
);

CREATE TABLE IF NOT EXISTS tariff_attributes (
	tariff_id  TEXT PRIMARY KEY REFERENCES tariffs(id),
	attributes TEXT NOT NULL,
	updated_at TEXT NOT NULL
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
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hotel_tariffs (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL DEFAULT 'default',
	hotel_name  TEXT NOT NULL,
	vendor      TEXT NOT NULL DEFAULT '',
	city        TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	base_rate   REAL NOT NULL DEFAULT 0,
	gst_percent REAL NOT NULL DEFAULT 0,
	service_fee REAL NOT NULL DEFAULT 0,
	meal_plan   TEXT NOT NULL DEFAULT '',
	season      TEXT NOT NULL DEFAULT '',
	start_date  TEXT NOT NULL DEFAULT '',
	end_date    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	updated_at  TEXT NOT NULL,
	UNIQUE (tenant_id, hotel_name, vendor, season, start_date, end_date)
);

CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);
CREATE INDEX IF NOT EXISTS idx_tariffs_property ON tariffs(property_id);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_hotel_tariffs_city ON hotel_tariffs(city);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func sqliteNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// --- Documents ---

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) error {
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, tenant_id, file_name, content_type, storage_url, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.TenantID, doc.FileName, doc.ContentType, doc.StorageURL, string(doc.Status),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	return eris.Wrap(err, "sqlite: insert document")
}

func (s *SQLiteStore) UpdateDocumentStatus(ctx context.Context, id string, status model.DocumentStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, sqliteNow(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update document status %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) SetDocumentText(ctx context.Context, id, text string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET raw_text = ?, updated_at = ? WHERE id = ?`,
		text, sqliteNow(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set document text %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	var rawText, errMsg sql.NullString
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, file_name, content_type, storage_url, status, raw_text, error, created_at, updated_at
		 FROM documents WHERE id = ?`,
		id,
	).Scan(&d.ID, &d.TenantID, &d.FileName, &d.ContentType, &d.StorageURL, &d.Status, &rawText, &errMsg, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get document %s", id)
	}
	d.RawText = rawText.String
	d.Error = errMsg.String
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &d, nil
}

// --- Reconciler ---

// SaveTariff mirrors the Postgres reconcile flow on database/sql. See the
// PostgresStore doc for the dimension and upsert semantics.
func (s *SQLiteStore) SaveTariff(ctx context.Context, tenantID string, rec *model.TariffRecord, documentID string) *SaveResult {
	if rec == nil {
		return &SaveResult{Saved: false, Message: "no record to save"}
	}
	if tenantID == "" {
		tenantID = DefaultTenant
	}

	tariffID, created, err := s.reconcile(ctx, tenantID, rec, documentID)
	res := &SaveResult{Saved: err == nil, TariffID: tariffID, Created: created}
	if err != nil {
		zap.L().Error("sqlite: reconcile failed",
			zap.String("hotel", rec.HotelName),
			zap.Error(err),
		)
	}

	legacyErr := s.writeLegacy(ctx, tenantID, rec)
	res.LegacySaved = legacyErr == nil
	if legacyErr != nil {
		zap.L().Error("sqlite: legacy mirror failed",
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

func (s *SQLiteStore) reconcile(ctx context.Context, tenantID string, rec *model.TariffRecord, documentID string) (string, bool, error) {
	propertyID, err := s.getOrCreate(ctx,
		`SELECT id FROM properties WHERE tenant_id = ? AND name = ? AND city = ?`,
		`INSERT INTO properties (id, tenant_id, name, city, category, property_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]any{tenantID, rec.HotelName, rec.City},
		[]any{uuid.New().String(), tenantID, rec.HotelName, rec.City, rec.Category, DefaultPropertyType, sqliteNow()},
	)
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: get-or-create property %s", rec.HotelName)
	}

	vendorID, err := s.getOrCreate(ctx,
		`SELECT id FROM vendors WHERE tenant_id = ? AND name = ?`,
		`INSERT INTO vendors (id, tenant_id, name, created_at) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]any{tenantID, rec.Vendor},
		[]any{uuid.New().String(), tenantID, rec.Vendor, sqliteNow()},
	)
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: get-or-create vendor %s", rec.Vendor)
	}

	roomTypeID, err := s.getOrCreate(ctx,
		`SELECT id FROM room_types WHERE property_id = ? AND name = ?`,
		`INSERT INTO room_types (id, property_id, name, created_at) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]any{propertyID, DefaultRoomType},
		[]any{uuid.New().String(), propertyID, DefaultRoomType, sqliteNow()},
	)
	if err != nil {
		return "", false, eris.Wrap(err, "sqlite: get-or-create room type")
	}

	mealPlan := rec.MealPlan
	if mealPlan == "" {
		mealPlan = DefaultMealPlan
	}
	ratePlanID, err := s.getOrCreate(ctx,
		`SELECT id FROM rate_plans WHERE property_id = ? AND meal_plan = ?`,
		`INSERT INTO rate_plans (id, property_id, meal_plan, plan_name, created_at) VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]any{propertyID, mealPlan},
		[]any{uuid.New().String(), propertyID, mealPlan, mealPlan + " Plan", sqliteNow()},
	)
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: get-or-create rate plan %s", mealPlan)
	}

	season := rec.Season
	if season == "" {
		season = DefaultSeason
	}
	seasonID, err := s.getOrCreate(ctx,
		`SELECT id FROM seasons WHERE property_id = ? AND name = ? AND start_date = ? AND end_date = ?`,
		`INSERT INTO seasons (id, property_id, name, start_date, end_date, created_at) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]any{propertyID, season, rec.StartDate, rec.EndDate},
		[]any{uuid.New().String(), propertyID, season, rec.StartDate, rec.EndDate, sqliteNow()},
	)
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: get-or-create season %s", season)
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

func (s *SQLiteStore) getOrCreate(ctx context.Context, selectSQL, insertSQL string, selectArgs, insertArgs []any) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, selectSQL, selectArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
		return "", err
	}
	err = s.db.QueryRowContext(ctx, selectSQL, selectArgs...).Scan(&id)
	return id, err
}

func (s *SQLiteStore) upsertTariff(ctx context.Context, propertyID, vendorID, roomTypeID, ratePlanID, seasonID string, rec *model.TariffRecord) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM tariffs
		 WHERE property_id = ? AND vendor_id = ? AND room_type_id = ? AND rate_plan_id = ? AND season_id = ?`,
		propertyID, vendorID, roomTypeID, ratePlanID, seasonID,
	).Scan(&id)

	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx,
			`UPDATE tariffs SET base_rate = ?, tax_percent = ?, service_fee = ?, updated_at = ? WHERE id = ?`,
			rec.BaseRate, rec.GSTPercent, rec.ServiceFee, sqliteNow(), id,
		)
		return id, false, eris.Wrapf(err, "sqlite: update tariff %s", id)
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.New().String()
		now := sqliteNow()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO tariffs (id, property_id, vendor_id, room_type_id, rate_plan_id, season_id, base_rate, tax_percent, service_fee, currency, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, propertyID, vendorID, roomTypeID, ratePlanID, seasonID,
			rec.BaseRate, rec.GSTPercent, rec.ServiceFee, DefaultCurrency, now, now,
		)
		return id, true, eris.Wrap(err, "sqlite: insert tariff")
	default:
		return "", false, eris.Wrap(err, "sqlite: lookup tariff")
	}
}

func (s *SQLiteStore) upsertAttributes(ctx context.Context, tariffID, documentID string) error {
	attrs, err := json.Marshal(map[string]string{"source_document_id": documentID})
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal attributes")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tariff_attributes (tariff_id, attributes, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (tariff_id) DO UPDATE SET attributes = excluded.attributes, updated_at = excluded.updated_at`,
		tariffID, string(attrs), sqliteNow(),
	)
	return eris.Wrapf(err, "sqlite: upsert attributes for tariff %s", tariffID)
}

func (s *SQLiteStore) writeLegacy(ctx context.Context, tenantID string, rec *model.TariffRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hotel_tariffs (id, tenant_id, hotel_name, vendor, city, category, base_rate, gst_percent, service_fee, meal_plan, season, start_date, end_date, description, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_id, hotel_name, vendor, season, start_date, end_date) DO UPDATE SET
		   city = excluded.city, category = excluded.category, base_rate = excluded.base_rate,
		   gst_percent = excluded.gst_percent, service_fee = excluded.service_fee,
		   meal_plan = excluded.meal_plan, description = excluded.description, updated_at = excluded.updated_at`,
		uuid.New().String(), tenantID, rec.HotelName, rec.Vendor, rec.City, rec.Category,
		rec.BaseRate, rec.GSTPercent, rec.ServiceFee, rec.MealPlan, rec.Season,
		rec.StartDate, rec.EndDate, rec.Description, sqliteNow(),
	)
	return eris.Wrap(err, "sqlite: upsert legacy tariff")
}

// --- Queries ---

func (s *SQLiteStore) GetTariff(ctx context.Context, id string) (*model.Tariff, error) {
	var t model.Tariff
	err := s.db.QueryRowContext(ctx,
		`SELECT id, property_id, vendor_id, room_type_id, rate_plan_id, season_id, base_rate, tax_percent, service_fee, currency
		 FROM tariffs WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.PropertyID, &t.VendorID, &t.RoomTypeID, &t.RatePlanID, &t.SeasonID,
		&t.BaseRate, &t.TaxPercent, &t.ServiceFee, &t.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get tariff %s", id)
	}
	return &t, nil
}

const sqliteListingSelect = `
SELECT t.id, p.name, p.city, p.category, v.name, rt.name, rp.plan_name, se.name,
       t.base_rate, t.tax_percent, t.service_fee, t.currency
FROM tariffs t
JOIN properties p ON p.id = t.property_id
JOIN vendors v ON v.id = t.vendor_id
JOIN room_types rt ON rt.id = t.room_type_id
JOIN rate_plans rp ON rp.id = t.rate_plan_id
JOIN seasons se ON se.id = t.season_id`

func (s *SQLiteStore) ListTariffs(ctx context.Context, filter TariffFilter) ([]model.TariffListing, error) {
	tenantID := filter.TenantID
	if tenantID == "" {
		tenantID = DefaultTenant
	}
	query := sqliteListingSelect + ` WHERE p.tenant_id = ?`
	args := []any{tenantID}

	if filter.City != "" {
		query += ` AND lower(p.city) LIKE '%' || lower(?) || '%'`
		args = append(args, filter.City)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY t.base_rate ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tariffs")
	}
	defer rows.Close()

	var listings []model.TariffListing
	for rows.Next() {
		var l model.TariffListing
		if err := rows.Scan(&l.TariffID, &l.HotelName, &l.City, &l.Category, &l.Vendor,
			&l.RoomType, &l.RatePlan, &l.Season, &l.BaseRate, &l.TaxPercent, &l.ServiceFee, &l.Currency); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tariff listing")
		}
		listings = append(listings, l)
	}
	return listings, eris.Wrap(rows.Err(), "sqlite: list tariffs iterate")
}

func (s *SQLiteStore) BestRate(ctx context.Context, tenantID, city string) (*model.TariffListing, error) {
	if tenantID == "" {
		tenantID = DefaultTenant
	}
	var l model.TariffListing
	err := s.db.QueryRowContext(ctx,
		sqliteListingSelect+`
		 WHERE p.tenant_id = ? AND lower(p.city) LIKE '%' || lower(?) || '%'
		 ORDER BY t.base_rate ASC LIMIT 1`,
		tenantID, city,
	).Scan(&l.TariffID, &l.HotelName, &l.City, &l.Category, &l.Vendor,
		&l.RoomType, &l.RatePlan, &l.Season, &l.BaseRate, &l.TaxPercent, &l.ServiceFee, &l.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: best rate for %s", city)
	}
	return &l, nil
}
