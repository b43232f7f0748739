package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripworks/costing-gpt/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

// legacyArgs mirrors the hotel_tariffs insert parameter order; the generated
// id and updated_at timestamp are matched loosely.
func legacyArgs(rec *model.TariffRecord) []any {
	return []any{
		pgxmock.AnyArg(), "default", rec.HotelName, rec.Vendor, rec.City, rec.Category,
		rec.BaseRate, rec.GSTPercent, rec.ServiceFee, rec.MealPlan, rec.Season,
		rec.StartDate, rec.EndDate, rec.Description, pgxmock.AnyArg(),
	}
}

func TestPostgresMigrate(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS properties").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetDocument(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		raw := "Hotel: Grand Plaza"
		rows := pgxmock.NewRows([]string{
			"id", "tenant_id", "file_name", "content_type", "storage_url",
			"status", "raw_text", "error", "created_at", "updated_at",
		}).AddRow("doc-1", "default", "tariff.pdf", "application/pdf", "s3://bucket/doc-1",
			"completed", &raw, (*string)(nil), time.Now().UTC(), time.Now().UTC())
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tenant_id, file_name, content_type, storage_url, status, raw_text, error, created_at, updated_at")).
			WithArgs("doc-1").
			WillReturnRows(rows)

		got, err := s.GetDocument(ctx, "doc-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, model.DocumentStatusCompleted, got.Status)
		assert.Equal(t, "Hotel: Grand Plaza", got.RawText)
		assert.Empty(t, got.Error)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tenant_id, file_name, content_type, storage_url")).
			WithArgs("nope").
			WillReturnError(pgx.ErrNoRows)

		got, err := s.GetDocument(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBestRate(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "name", "city", "category", "name", "name", "plan_name", "name",
		"base_rate", "tax_percent", "service_fee", "currency",
	}).AddRow("t-1", "Budget Inn", "Goa", "3-star", "Goa Travels",
		"Standard Room", "Room Only Plan", "Regular", 3000.0, 18.0, 200.0, "INR")
	mock.ExpectQuery("ORDER BY t.base_rate ASC LIMIT 1").
		WithArgs("default", "goa").
		WillReturnRows(rows)

	best, err := s.BestRate(context.Background(), "", "goa")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "Budget Inn", best.HotelName)
	assert.Equal(t, 3000.0, best.BaseRate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveTariffContainsErrors(t *testing.T) {
	t.Parallel()
	rec := &model.TariffRecord{HotelName: "Grand Plaza", City: "Pune", BaseRate: 5000}

	t.Run("normalized fails, legacy survives", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM properties")).
			WithArgs("default", "Grand Plaza", "Pune").
			WillReturnError(errors.New("connection refused"))
		mock.ExpectExec("INSERT INTO hotel_tariffs").
			WithArgs(legacyArgs(rec)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		res := s.SaveTariff(context.Background(), "", rec, "")
		assert.False(t, res.Saved)
		assert.True(t, res.LegacySaved)
		assert.Contains(t, res.Message, "legacy tariff saved")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("both sides fail", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM properties")).
			WithArgs("default", "Grand Plaza", "Pune").
			WillReturnError(errors.New("connection refused"))
		mock.ExpectExec("INSERT INTO hotel_tariffs").
			WithArgs(legacyArgs(rec)...).
			WillReturnError(errors.New("connection refused"))

		// Persistence never raises; the failure is reported in the result.
		res := s.SaveTariff(context.Background(), "", rec, "")
		assert.False(t, res.Saved)
		assert.False(t, res.LegacySaved)
		assert.Contains(t, res.Message, "extracted but not saved")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil record", func(t *testing.T) {
		s, _ := newMockStore(t)
		res := s.SaveTariff(context.Background(), "", nil, "")
		assert.False(t, res.Saved)
	})
}

func TestPostgresUpdateDocumentStatusMissing(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE documents SET status").
		WithArgs("failed", "boom", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateDocumentStatus(context.Background(), "missing", model.DocumentStatusFailed, "boom")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
