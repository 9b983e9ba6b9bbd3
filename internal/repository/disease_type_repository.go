package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/disease-case-tracker/internal/model"
)

// DiseaseTypeRepo reads the static disease_types reference table. The table
// is seeded at provisioning time and never mutated by the application.
type DiseaseTypeRepo struct{ DB *sql.DB }

func NewDiseaseTypeRepo(db *sql.DB) *DiseaseTypeRepo { return &DiseaseTypeRepo{DB: db} }

// GetByName resolves a disease name (case-insensitive) to its reference row.
// Returns ErrUnknownDisease when the name has no entry.
func (r *DiseaseTypeRepo) GetByName(ctx context.Context, name string) (model.DiseaseType, error) {
	var dt model.DiseaseType
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,color_code FROM disease_types WHERE name=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(name))).Scan(&dt.ID, &dt.Name, &dt.ColorCode)
	if errors.Is(err, sql.ErrNoRows) {
		return dt, ErrUnknownDisease
	}
	return dt, err
}

// List returns every disease type ordered by id. Used by clients to render
// legend entries and filter controls.
func (r *DiseaseTypeRepo) List(ctx context.Context) ([]model.DiseaseType, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,name,color_code FROM disease_types ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DiseaseType
	for rows.Next() {
		var dt model.DiseaseType
		if err := rows.Scan(&dt.ID, &dt.Name, &dt.ColorCode); err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
