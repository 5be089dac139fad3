package store

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retracker/server/internal/database"
	"retracker/server/internal/models"
)

func setupTestStore(t *testing.T) *PropertyStore {
	db, err := database.NewTestDB()
	require.NoError(t, err)
	require.NoError(t, database.MigrateSchema(db))

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewPropertyStore(db, logger)
}

func floatPtr(f float64) *float64 { return &f }

func basePayload() map[string]interface{} {
	return map[string]interface{}{
		"address":       "1 Main St",
		"city":          "Reno",
		"state":         "NV",
		"zip":           "89501",
		"purchasePrice": 300000.0,
		"monthlyRent":   2000.0,
	}
}

func TestPropertyStore_Create(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	payload := basePayload()
	payload["pool"] = true
	payload["roofType"] = "shingle"

	p, err := s.Create(ctx, payload)
	require.NoError(t, err)

	assert.NotZero(t, p.ID)
	assert.Equal(t, "1 Main St", p.Address)
	assert.Equal(t, 300000.0, p.PurchasePrice)
	assert.Equal(t, 2000.0, p.MonthlyRent)
	assert.Equal(t, models.StatusActive, p.Status)
	assert.Equal(t, "manual", p.DataSource)

	// monetary columns default to zero, not null
	assert.Equal(t, 0.0, p.HOA)
	assert.Equal(t, 0.0, p.PropertyTax)
	assert.Equal(t, 0.0, p.CashFlow)

	// estimates and physical attributes stay absent
	assert.Nil(t, p.RentEstimate)
	assert.Nil(t, p.Bedrooms)

	// non-schema keys land in the enrichment document
	require.NotNil(t, p.RentcastData)
	assert.Equal(t, true, p.RentcastData["pool"])
	assert.Equal(t, "shingle", p.RentcastData["roofType"])
	assert.NotContains(t, p.RentcastData, "address")
	assert.NotContains(t, p.RentcastData, "purchasePrice")
}

func TestPropertyStore_Create_MissingIdentity(t *testing.T) {
	s := setupTestStore(t)

	payload := basePayload()
	delete(payload, "zip")

	_, err := s.Create(context.Background(), payload)
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "zip", invalid.Field)
}

func TestPropertyStore_Create_Duplicate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, basePayload())
	require.NoError(t, err)

	_, err = s.Create(ctx, basePayload())
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
}

func TestPropertyStore_GetByID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, basePayload())
	require.NoError(t, err)

	fetched, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Address, fetched.Address)

	_, err = s.GetByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPropertyStore_Update_MergesEnrichment(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, basePayload())
	require.NoError(t, err)

	// first update introduces one key
	updated, err := s.Update(ctx, created.ID, map[string]interface{}{"a": 1.0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, updated.RentcastData["a"])

	// second update adds a key without dropping the first
	updated, err = s.Update(ctx, created.ID, map[string]interface{}{"b": 2.0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, updated.RentcastData["a"])
	assert.Equal(t, 2.0, updated.RentcastData["b"])

	// same key again overwrites
	updated, err = s.Update(ctx, created.ID, map[string]interface{}{"a": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.RentcastData["a"])
	assert.Equal(t, 2.0, updated.RentcastData["b"])
}

func TestPropertyStore_Update_PartialColumns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, basePayload())
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, map[string]interface{}{
		"monthlyRent": 2200.0,
		"bedrooms":    3.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 2200.0, updated.MonthlyRent)
	require.NotNil(t, updated.Bedrooms)
	assert.Equal(t, 3, *updated.Bedrooms)

	// untouched columns survive
	assert.Equal(t, 300000.0, updated.PurchasePrice)
	assert.Equal(t, "1 Main St", updated.Address)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestPropertyStore_Update_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Update(context.Background(), 12345, map[string]interface{}{"monthlyRent": 1.0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPropertyStore_Update_BadType(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, basePayload())
	require.NoError(t, err)

	_, err = s.Update(ctx, created.ID, map[string]interface{}{"purchasePrice": "lots"})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)

	// the failed update must not have corrupted the row
	fetched, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 300000.0, fetched.PurchasePrice)
}

func TestPropertyStore_SoftDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, basePayload())
	require.NoError(t, err)

	deleted, err := s.SoftDelete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, deleted.Status)

	// hidden from reads and listings
	_, err = s.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	listed, err := s.List(ctx, ListFilters{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	// still reachable by address key for reactivation
	found, err := s.FindByAddress(ctx, "1 Main St", "Reno", "NV", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, models.StatusDeleted, found.Status)
}

func TestPropertyStore_List_Filters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	seed := []map[string]interface{}{
		{"address": "1 A St", "city": "Austin", "state": "TX", "zip": "73301", "purchasePrice": 250000.0, "cashFlow": 600.0},
		{"address": "2 B St", "city": "Austin", "state": "TX", "zip": "73301", "purchasePrice": 400000.0, "cashFlow": 100.0},
		{"address": "3 C St", "city": "Reno", "state": "NV", "zip": "89501", "purchasePrice": 200000.0, "cashFlow": 800.0},
	}
	for _, payload := range seed {
		_, err := s.Create(ctx, payload)
		require.NoError(t, err)
	}

	// case-insensitive city match combined with cash flow floor
	listed, err := s.List(ctx, ListFilters{City: "AUSTIN", MinCashFlow: floatPtr(500)})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "1 A St", listed[0].Address)

	listed, err = s.List(ctx, ListFilters{State: "tx"})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	listed, err = s.List(ctx, ListFilters{MaxPrice: floatPtr(260000)})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	listed, err = s.List(ctx, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestPropertyStore_Stats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	seed := []map[string]interface{}{
		{"address": "1 A St", "city": "Reno", "state": "NV", "zip": "89501", "purchasePrice": 100000.0, "cashFlow": 100.0},
		{"address": "2 B St", "city": "Reno", "state": "NV", "zip": "89501", "purchasePrice": 150000.0, "cashFlow": -50.0},
		{"address": "3 C St", "city": "Reno", "state": "NV", "zip": "89501", "purchasePrice": 200000.0, "cashFlow": 200.0, "status": "sold"},
	}
	var deleteID int64
	for i, payload := range seed {
		p, err := s.Create(ctx, payload)
		require.NoError(t, err)
		if i == 0 {
			deleteID = p.ID
		}
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalProperties)
	assert.Equal(t, 450000.0, stats.TotalInvestment)
	assert.Equal(t, 250.0, stats.TotalCashFlow)
	assert.InDelta(t, 83.33, stats.AvgCashFlow, 0.01)
	assert.Equal(t, 2, stats.ProfitableProperties)
	assert.Equal(t, 1, stats.SoldProperties)

	// deleted rows drop out of every aggregate
	_, err = s.SoftDelete(ctx, deleteID)
	require.NoError(t, err)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProperties)
	assert.Equal(t, 350000.0, stats.TotalInvestment)
	assert.Equal(t, 1, stats.ProfitableProperties)
}

func TestPropertyStore_FindByAddress(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, basePayload())
	require.NoError(t, err)

	found, err := s.FindByAddress(ctx, "1 MAIN st", "reno", "nv", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	found, err = s.FindByAddress(ctx, "1 Main St", "Reno", "NV", "89501")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = s.FindByAddress(ctx, "1 Main St", "Reno", "NV", "00000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindByAddress(ctx, "9 Nowhere Rd", "Reno", "NV", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

// two sequential stores sharing one database, simulating the constraint
// arbitration the unique index provides under concurrency
func TestPropertyStore_DuplicateAcrossStores(t *testing.T) {
	db, err := database.NewTestDB()
	require.NoError(t, err)
	require.NoError(t, database.MigrateSchema(db))

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	s1 := NewPropertyStore(db, logger)
	s2 := NewPropertyStore(db, logger)

	ctx := context.Background()
	_, err = s1.Create(ctx, basePayload())
	require.NoError(t, err)

	_, err = s2.Create(ctx, basePayload())
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
}
