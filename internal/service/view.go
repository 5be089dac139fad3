package service

import (
	"time"

	"retracker/server/internal/models"
)

// PropertyView is the flat external representation of a property: fixed
// columns mapped to the client naming convention with the enrichment
// document expanded over them.
type PropertyView map[string]interface{}

// MapProperty flattens a stored row. Precedence per field, lowest first:
// column value (zero-filled for monetary and metric numbers, null for
// nullable metadata), then enrichment keys, which carry the most recently
// refreshed provider data and win over any same-named mapped field.
func MapProperty(p *models.Property) PropertyView {
	view := PropertyView{
		"id":      p.ID,
		"address": p.Address,
		"city":    p.City,
		"state":   p.State,
		"zip":     p.Zip,

		"purchasePrice":  p.PurchasePrice,
		"monthlyRent":    p.MonthlyRent,
		"hoa":            p.HOA,
		"propertyTax":    p.PropertyTax,
		"insurance":      p.Insurance,
		"managementFees": p.ManagementFees,
		"repairs":        p.Repairs,
		"vacancy":        p.Vacancy,
		"capex":          p.Capex,
		"mortgage":       p.Mortgage,

		"cashFlow":    p.CashFlow,
		"cocReturn":   p.CocReturn,
		"rentToValue": p.RentToValue,
		"capRate":     p.CapRate,

		"crimeScore": nullableFloat(p.CrimeScore),
		"floodRisk":  nullableFloat(p.FloodRisk),
		"marketRisk": nullableFloat(p.MarketRisk),

		"bedrooms":      zeroInt(p.Bedrooms),
		"bathrooms":     zeroFloat(p.Bathrooms),
		"squareFootage": zeroInt(p.SquareFootage),
		"yearBuilt":     zeroInt(p.YearBuilt),
		"lotSize":       zeroFloat(p.LotSize),
		"propertyType":  nullableString(p.PropertyType),
		"county":        nullableString(p.County),

		"rentEstimate":  zeroFloat(p.RentEstimate),
		"valueEstimate": zeroFloat(p.ValueEstimate),

		"status":      p.Status,
		"notes":       p.Notes,
		"lastUpdated": nullableTime(p.LastUpdated),
		"dataSource":  p.DataSource,

		"createdAt": p.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt": p.UpdatedAt.UTC().Format(time.RFC3339),
	}

	hasLive := p.RentEstimate != nil || p.ValueEstimate != nil ||
		p.Bedrooms != nil || p.Bathrooms != nil

	for k, v := range p.RentcastData {
		view[k] = v
	}
	if _, marked := p.RentcastData["realTimeData"]; marked {
		hasLive = true
	}
	view["hasRentcastData"] = hasLive

	return view
}

func zeroFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func zeroInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return v.UTC().Format(time.RFC3339)
}
