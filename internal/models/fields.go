package models

// Logical field names shared by every extractor. Site selectors map these
// names onto source-specific keys (CSS selectors, CSV headers, JSON paths).
const (
	FieldCompanyName     = "company_name"
	FieldPosition        = "position"
	FieldApplicationLink = "application_link"
	FieldDescription     = "description"
	FieldCompanySize     = "company_size"
	FieldDate            = "date"
)

// CanonicalFields is the column order used when materializing frames and
// fingerprinting rows. Keeping the order fixed makes row fingerprints stable
// across cycles regardless of map iteration order.
var CanonicalFields = []string{
	FieldCompanyName,
	FieldPosition,
	FieldApplicationLink,
	FieldDescription,
	FieldCompanySize,
	FieldDate,
}
