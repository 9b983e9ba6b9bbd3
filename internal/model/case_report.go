package model

import "time"

// CaseReport records a single geocoded disease case submitted by a user.
// Latitude and longitude are always derived from the geocoding lookup on
// the free-text address; clients never supply coordinates directly.
// Mutations are scoped to the owning user.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who submitted the report (owner).
//  DiseaseTypeID – foreign key into disease_types.
//  Address       – sanitized free-text address as entered by the user.
//  Latitude      – geocoded latitude.
//  Longitude     – geocoded longitude.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type CaseReport struct {
	ID            uint64    // case_reports.id
	UserID        uint64    // case_reports.user_id
	DiseaseTypeID uint64    // case_reports.disease_type_id
	Address       string    // case_reports.address
	Latitude      float64   // case_reports.latitude
	Longitude     float64   // case_reports.longitude
	CreatedAt     time.Time // case_reports.created_at
	UpdatedAt     time.Time // case_reports.updated_at
}

// CaseReportView is a read-model row produced by joining case_reports with
// disease_types.  List endpoints return this shape so clients get the
// disease name and map color without a second lookup.
type CaseReportView struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id,omitempty"`
	Address     string    `json:"address"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	DiseaseType string    `json:"disease_type"`
	ColorCode   string    `json:"color_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
