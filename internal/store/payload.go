package store

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"retracker/server/internal/models"
)

// fixedColumns is the set of column names with dedicated storage. A payload
// key that does not normalize to one of these lands in the enrichment
// document instead.
var fixedColumns = map[string]struct{}{
	"address": {}, "city": {}, "state": {}, "zip": {},
	"purchase_price": {}, "monthly_rent": {},
	"hoa": {}, "property_tax": {}, "insurance": {}, "management_fees": {},
	"repairs": {}, "vacancy": {}, "capex": {}, "mortgage": {},
	"cash_flow": {}, "coc_return": {}, "rent_to_value": {}, "cap_rate": {},
	"crime_score": {}, "flood_risk": {}, "market_risk": {},
	"bedrooms": {}, "bathrooms": {}, "square_footage": {}, "year_built": {},
	"lot_size": {}, "property_type": {}, "county": {},
	"rent_estimate": {}, "value_estimate": {},
	"status": {}, "notes": {}, "last_updated": {}, "data_source": {},
}

// Server-managed keys a payload is never allowed to set directly.
var reservedColumns = map[string]struct{}{
	"id": {}, "created_at": {}, "updated_at": {},
}

// CamelToSnake converts a camelCase payload key to the column naming
// convention (purchasePrice -> purchase_price). Snake_case keys pass
// through unchanged and a leading capital does not produce a leading
// underscore, so "Address" still normalizes to the address column.
func CamelToSnake(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SplitPayload separates a flat property payload (in either naming
// convention) into fixed-column values keyed by column name and the
// leftover enrichment attributes keyed by their original names. A nested
// rentcastData object is folded straight into the enrichment map.
func SplitPayload(payload map[string]interface{}) (map[string]interface{}, map[string]interface{}) {
	columns := make(map[string]interface{})
	bag := make(map[string]interface{})

	for key, value := range payload {
		normalized := CamelToSnake(key)
		if _, reserved := reservedColumns[normalized]; reserved {
			continue
		}
		if normalized == "rentcast_data" {
			if nested, ok := value.(map[string]interface{}); ok {
				for k, v := range nested {
					bag[k] = v
				}
			}
			continue
		}
		if _, fixed := fixedColumns[normalized]; fixed {
			columns[normalized] = value
			continue
		}
		bag[key] = value
	}
	return columns, bag
}

// ValidateIdentity checks the identity fields every create must carry.
func ValidateIdentity(payload map[string]interface{}) error {
	for _, field := range []string{"address", "city", "state", "zip"} {
		v, ok := payload[field].(string)
		if !ok || strings.TrimSpace(v) == "" {
			return &ValidationError{Field: field, Reason: "is required"}
		}
	}
	return nil
}

func validateIdentityColumns(p *models.Property) error {
	switch {
	case strings.TrimSpace(p.Address) == "":
		return &ValidationError{Field: "address", Reason: "is required"}
	case strings.TrimSpace(p.City) == "":
		return &ValidationError{Field: "city", Reason: "is required"}
	case strings.TrimSpace(p.State) == "":
		return &ValidationError{Field: "state", Reason: "is required"}
	case strings.TrimSpace(p.Zip) == "":
		return &ValidationError{Field: "zip", Reason: "is required"}
	}
	return nil
}

func applyColumns(p *models.Property, columns map[string]interface{}) error {
	for column, value := range columns {
		if err := applyColumn(p, column, value); err != nil {
			return err
		}
	}
	return nil
}

// applyColumn coerces one payload value onto its typed column. A nil value
// zeroes monetary columns and clears nullable ones.
func applyColumn(p *models.Property, column string, value interface{}) error {
	switch column {
	case "address":
		return setString(&p.Address, column, value)
	case "city":
		return setString(&p.City, column, value)
	case "state":
		return setString(&p.State, column, value)
	case "zip":
		return setString(&p.Zip, column, value)
	case "purchase_price":
		return setFloat(&p.PurchasePrice, column, value)
	case "monthly_rent":
		return setFloat(&p.MonthlyRent, column, value)
	case "hoa":
		return setFloat(&p.HOA, column, value)
	case "property_tax":
		return setFloat(&p.PropertyTax, column, value)
	case "insurance":
		return setFloat(&p.Insurance, column, value)
	case "management_fees":
		return setFloat(&p.ManagementFees, column, value)
	case "repairs":
		return setFloat(&p.Repairs, column, value)
	case "vacancy":
		return setFloat(&p.Vacancy, column, value)
	case "capex":
		return setFloat(&p.Capex, column, value)
	case "mortgage":
		return setFloat(&p.Mortgage, column, value)
	case "cash_flow":
		return setFloat(&p.CashFlow, column, value)
	case "coc_return":
		return setFloat(&p.CocReturn, column, value)
	case "rent_to_value":
		return setFloat(&p.RentToValue, column, value)
	case "cap_rate":
		return setFloat(&p.CapRate, column, value)
	case "crime_score":
		return setFloatPtr(&p.CrimeScore, column, value)
	case "flood_risk":
		return setFloatPtr(&p.FloodRisk, column, value)
	case "market_risk":
		return setFloatPtr(&p.MarketRisk, column, value)
	case "bedrooms":
		return setIntPtr(&p.Bedrooms, column, value)
	case "bathrooms":
		return setFloatPtr(&p.Bathrooms, column, value)
	case "square_footage":
		return setIntPtr(&p.SquareFootage, column, value)
	case "year_built":
		return setIntPtr(&p.YearBuilt, column, value)
	case "lot_size":
		return setFloatPtr(&p.LotSize, column, value)
	case "property_type":
		return setStringPtr(&p.PropertyType, column, value)
	case "county":
		return setStringPtr(&p.County, column, value)
	case "rent_estimate":
		return setFloatPtr(&p.RentEstimate, column, value)
	case "value_estimate":
		return setFloatPtr(&p.ValueEstimate, column, value)
	case "status":
		return setStatus(p, value)
	case "notes":
		return setString(&p.Notes, column, value)
	case "last_updated":
		return setTimePtr(&p.LastUpdated, column, value)
	case "data_source":
		return setString(&p.DataSource, column, value)
	}
	return nil
}

func setStatus(p *models.Property, value interface{}) error {
	if value == nil {
		p.Status = models.StatusActive
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return &ValidationError{Field: "status", Reason: "must be a string"}
	}
	switch s {
	case models.StatusActive, models.StatusSold, models.StatusDeleted:
		p.Status = s
		return nil
	}
	return &ValidationError{Field: "status", Reason: "must be active, sold or deleted"}
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func setFloat(dst *float64, column string, value interface{}) error {
	if value == nil {
		*dst = 0
		return nil
	}
	f, ok := asFloat(value)
	if !ok {
		return &ValidationError{Field: column, Reason: "must be a number"}
	}
	*dst = f
	return nil
}

func setFloatPtr(dst **float64, column string, value interface{}) error {
	if value == nil {
		*dst = nil
		return nil
	}
	f, ok := asFloat(value)
	if !ok {
		return &ValidationError{Field: column, Reason: "must be a number"}
	}
	*dst = &f
	return nil
}

func setIntPtr(dst **int, column string, value interface{}) error {
	if value == nil {
		*dst = nil
		return nil
	}
	f, ok := asFloat(value)
	if !ok {
		return &ValidationError{Field: column, Reason: "must be a number"}
	}
	n := int(f)
	*dst = &n
	return nil
}

func setString(dst *string, column string, value interface{}) error {
	if value == nil {
		*dst = ""
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return &ValidationError{Field: column, Reason: "must be a string"}
	}
	*dst = s
	return nil
}

func setStringPtr(dst **string, column string, value interface{}) error {
	if value == nil {
		*dst = nil
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return &ValidationError{Field: column, Reason: "must be a string"}
	}
	*dst = &s
	return nil
}

func setTimePtr(dst **time.Time, column string, value interface{}) error {
	if value == nil {
		*dst = nil
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return &ValidationError{Field: column, Reason: "must be an RFC 3339 timestamp"}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return &ValidationError{Field: column, Reason: "must be an RFC 3339 timestamp"}
	}
	*dst = &t
	return nil
}
