package store

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"retracker/server/internal/models"
)

// PropertyStore owns the properties table and all mutations to it. Every
// storage failure is classified before it is returned; nothing is swallowed.
type PropertyStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewPropertyStore(db *gorm.DB, logger *logrus.Logger) *PropertyStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &PropertyStore{db: db, logger: logger}
}

// ListFilters narrows List results. Zero values mean "no filter"; filters
// combine with AND.
type ListFilters struct {
	City        string
	State       string
	MinCashFlow *float64
	MaxPrice    *float64
}

// Create inserts one property. Unknown payload keys are stored in the
// enrichment document and monetary columns default to zero. The unique
// (address, city, state) index is the arbiter for duplicates, so two
// concurrent creates resolve to one insert and one DuplicateError.
func (s *PropertyStore) Create(ctx context.Context, payload map[string]interface{}) (*models.Property, error) {
	columns, bag := SplitPayload(payload)

	p := &models.Property{
		Status:     models.StatusActive,
		DataSource: "manual",
	}
	if err := applyColumns(p, columns); err != nil {
		return nil, err
	}
	if err := validateIdentityColumns(p); err != nil {
		return nil, err
	}
	if len(bag) > 0 {
		p.RentcastData = datatypes.JSONMap(bag)
	}

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		s.logger.WithError(err).Error("Failed to insert property")
		return nil, classify(err)
	}
	return p, nil
}

// GetByID returns one property, hiding soft-deleted rows.
func (s *PropertyStore) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	err := s.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, models.StatusDeleted).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.WithError(err).WithField("id", id).Error("Failed to fetch property")
		return nil, classify(err)
	}
	return &p, nil
}

// List returns all non-deleted properties matching the filters, most
// recently created first.
func (s *PropertyStore) List(ctx context.Context, filters ListFilters) ([]models.Property, error) {
	query := s.db.WithContext(ctx).Where("status <> ?", models.StatusDeleted)
	if filters.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", filters.City)
	}
	if filters.State != "" {
		query = query.Where("LOWER(state) = LOWER(?)", filters.State)
	}
	if filters.MinCashFlow != nil {
		query = query.Where("cash_flow >= ?", *filters.MinCashFlow)
	}
	if filters.MaxPrice != nil {
		query = query.Where("purchase_price <= ?", *filters.MaxPrice)
	}

	var properties []models.Property
	if err := query.Order("created_at DESC").Find(&properties).Error; err != nil {
		s.logger.WithError(err).Error("Failed to list properties")
		return nil, classify(err)
	}
	return properties, nil
}

// Update overwrites only the supplied fixed columns and shallow-merges the
// leftover keys into the stored enrichment document: new values win per key,
// keys absent from the payload survive. Soft-deleted rows are updatable so a
// create against their address can reactivate them.
func (s *PropertyStore) Update(ctx context.Context, id int64, payload map[string]interface{}) (*models.Property, error) {
	columns, bag := SplitPayload(payload)

	var updated models.Property
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Property
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if err := applyColumns(&p, columns); err != nil {
			return err
		}
		if len(bag) > 0 {
			merged := map[string]interface{}(p.RentcastData)
			if merged == nil {
				merged = make(map[string]interface{}, len(bag))
			}
			for k, v := range bag {
				merged[k] = v
			}
			p.RentcastData = datatypes.JSONMap(merged)
		}
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		var invalid *ValidationError
		if errors.As(err, &invalid) {
			return nil, invalid
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.WithError(err).WithField("id", id).Error("Failed to update property")
		return nil, classify(err)
	}
	return &updated, nil
}

// SoftDelete marks the property deleted. The row stays in storage and the
// address key remains reusable through reactivation.
func (s *PropertyStore) SoftDelete(ctx context.Context, id int64) (*models.Property, error) {
	return s.Update(ctx, id, map[string]interface{}{"status": models.StatusDeleted})
}

// Stats aggregates counts and sums over all non-deleted rows.
func (s *PropertyStore) Stats(ctx context.Context) (*models.PropertyStats, error) {
	const query = `
        SELECT
            COUNT(*) AS total_properties,
            COALESCE(SUM(purchase_price), 0) AS total_investment,
            COALESCE(AVG(cash_flow), 0) AS avg_cash_flow,
            COALESCE(SUM(cash_flow), 0) AS total_cash_flow,
            COALESCE(AVG(coc_return), 0) AS avg_coc_return,
            COUNT(CASE WHEN cash_flow > 0 THEN 1 END) AS profitable_properties,
            COUNT(CASE WHEN status = 'sold' THEN 1 END) AS sold_properties
        FROM properties
        WHERE status <> 'deleted'
    `
	var stats models.PropertyStats
	row := s.db.WithContext(ctx).Raw(query).Row()
	if err := row.Scan(
		&stats.TotalProperties,
		&stats.TotalInvestment,
		&stats.AvgCashFlow,
		&stats.TotalCashFlow,
		&stats.AvgCocReturn,
		&stats.ProfitableProperties,
		&stats.SoldProperties,
	); err != nil {
		s.logger.WithError(err).Error("Failed to compute property stats")
		return nil, classify(err)
	}
	return &stats, nil
}

// FindByAddress looks a property up by its business key regardless of
// status, so callers can tell "free to create" from "reactivate" from
// "duplicate". Matching is case-insensitive; zip narrows the match when
// given.
func (s *PropertyStore) FindByAddress(ctx context.Context, address, city, state, zip string) (*models.Property, error) {
	query := s.db.WithContext(ctx).Where(
		"LOWER(address) = LOWER(?) AND LOWER(city) = LOWER(?) AND LOWER(state) = LOWER(?)",
		address, city, state,
	)
	if zip != "" {
		query = query.Where("zip = ?", zip)
	}

	var p models.Property
	if err := query.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.WithError(err).Error("Failed to look up property by address")
		return nil, classify(err)
	}
	return &p, nil
}
