package model

// DiseaseType is a row in the static `disease_types` reference table.  The
// application never mutates this table; it seeds the three tracked diseases
// (dengue, leptospirosis, malaria) with their heat-map color codes.
//
// Fields:
//  ID        – numeric identifier of the disease type.
//  Name      – unique lower-case disease name.
//  ColorCode – hex color used by the map renderer (e.g. "#e74c3c").
type DiseaseType struct {
	ID        uint64 // disease_types.id
	Name      string // disease_types.name
	ColorCode string // disease_types.color_code
}
