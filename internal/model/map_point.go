package model

// MapPoint is the anonymized projection served to the public heat map.  It
// deliberately carries no owner id and no address text; the projection
// contract guarantees no PII crosses the public boundary regardless of what
// the underlying case_reports table contains.
type MapPoint struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DiseaseType string  `json:"disease_type"`
	ColorCode   string  `json:"color_code"`
	Date        string  `json:"date"`
}
