package models

import (
	"time"

	"gorm.io/datatypes"
)

// Property status values. "deleted" is a soft marker: deleted rows stay in
// storage and are excluded from default queries and aggregates.
const (
	StatusActive  = "active"
	StatusSold    = "sold"
	StatusDeleted = "deleted"
)

// Property is the canonical relational representation of a tracked
// investment property. The fixed attributes live in typed columns; any other
// field arriving in a write payload is kept in the RentcastData document so
// new provider fields never require a schema migration.
type Property struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	// (address, city, state) is the business key for non-deleted rows
	Address string `json:"address" gorm:"size:255;not null;uniqueIndex:idx_properties_address_key,priority:1"`
	City    string `json:"city" gorm:"size:100;not null;uniqueIndex:idx_properties_address_key,priority:2"`
	State   string `json:"state" gorm:"size:50;not null;uniqueIndex:idx_properties_address_key,priority:3"`
	Zip     string `json:"zip" gorm:"size:20;not null"`

	PurchasePrice float64 `json:"purchase_price" gorm:"not null;default:0"`
	MonthlyRent   float64 `json:"monthly_rent" gorm:"not null;default:0"`

	HOA            float64 `json:"hoa" gorm:"column:hoa;not null;default:0"`
	PropertyTax    float64 `json:"property_tax" gorm:"not null;default:0"`
	Insurance      float64 `json:"insurance" gorm:"not null;default:0"`
	ManagementFees float64 `json:"management_fees" gorm:"not null;default:0"`
	Repairs        float64 `json:"repairs" gorm:"not null;default:0"`
	Vacancy        float64 `json:"vacancy" gorm:"not null;default:0"`
	Capex          float64 `json:"capex" gorm:"not null;default:0"`
	Mortgage       float64 `json:"mortgage" gorm:"not null;default:0"`

	CashFlow    float64 `json:"cash_flow" gorm:"not null;default:0"`
	CocReturn   float64 `json:"coc_return" gorm:"not null;default:0"`
	RentToValue float64 `json:"rent_to_value" gorm:"not null;default:0"`
	CapRate     float64 `json:"cap_rate" gorm:"not null;default:0"`

	CrimeScore *float64 `json:"crime_score"`
	FloodRisk  *float64 `json:"flood_risk"`
	MarketRisk *float64 `json:"market_risk"`

	Bedrooms      *int     `json:"bedrooms"`
	Bathrooms     *float64 `json:"bathrooms"`
	SquareFootage *int     `json:"square_footage"`
	YearBuilt     *int     `json:"year_built"`
	LotSize       *float64 `json:"lot_size"`
	PropertyType  *string  `json:"property_type" gorm:"size:50"`
	County        *string  `json:"county" gorm:"size:100"`

	RentEstimate  *float64 `json:"rent_estimate"`
	ValueEstimate *float64 `json:"value_estimate"`

	Status string `json:"status" gorm:"size:20;not null;default:'active'"`
	Notes  string `json:"notes" gorm:"type:text"`

	LastUpdated *time.Time `json:"last_updated"`
	DataSource  string     `json:"data_source" gorm:"size:50;not null;default:'manual'"`

	// Enrichment document: provider-sourced detail merged (never replaced)
	// on each update
	RentcastData datatypes.JSONMap `json:"rentcast_data" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

// PropertyStats aggregates the portfolio over non-deleted rows.
type PropertyStats struct {
	TotalProperties      int     `json:"totalProperties"`
	TotalInvestment      float64 `json:"totalInvestment"`
	AvgCashFlow          float64 `json:"avgCashFlow"`
	TotalCashFlow        float64 `json:"totalCashFlow"`
	AvgCocReturn         float64 `json:"avgCocReturn"`
	ProfitableProperties int     `json:"profitableProperties"`
	SoldProperties       int     `json:"soldProperties"`
}
