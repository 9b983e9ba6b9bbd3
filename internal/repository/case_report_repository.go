// Package repository contains data access logic separated from HTTP
// handlers. This file defines repository methods for case report CRUD and
// the read models behind the list and map endpoints. Every mutation runs
// under a combined id AND user_id predicate: the ownership pre-check reads
// decide the error to report, the guarded write is the actual safety net
// against a concurrent owner change between check and write.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/disease-case-tracker/internal/model"
)

// CaseReportRepo encapsulates all database queries related to case reports.
// It depends on a sql.DB connection pool injected at startup or in tests.
type CaseReportRepo struct{ DB *sql.DB }

func NewCaseReportRepo(db *sql.DB) *CaseReportRepo { return &CaseReportRepo{DB: db} }

// baseSelect is the join shared by every list query. Disease metadata rides
// along so clients never need a second lookup for names or map colors.
const baseSelect = `SELECT cr.id, cr.user_id, cr.address, cr.latitude, cr.longitude,
	   cr.created_at, cr.updated_at, dt.name, dt.color_code
FROM case_reports cr
INNER JOIN disease_types dt ON cr.disease_type_id = dt.id`

// Create inserts a new case report. On success the report's ID field is
// populated with the auto-generated value.
func (r *CaseReportRepo) Create(ctx context.Context, cr *model.CaseReport) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO case_reports (user_id, disease_type_id, address, latitude, longitude) VALUES (?,?,?,?,?)",
		cr.UserID, cr.DiseaseTypeID, cr.Address, cr.Latitude, cr.Longitude)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cr.ID = uint64(id)
	return nil
}

// verifyOwnership loads the stored owner of a report and compares it to the
// requester. A missing row and a foreign owner both yield ErrNotOwner so the
// caller cannot learn whether the id exists.
func (r *CaseReportRepo) verifyOwnership(ctx context.Context, id, userID uint64) error {
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM case_reports WHERE id=? LIMIT 1", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotOwner
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrNotOwner
	}
	return nil
}

// UpdateOwned rewrites a report's disease, address and coordinates if it
// belongs to userID. The UPDATE itself repeats the ownership predicate; zero
// affected rows after a passing pre-check means the row was deleted or
// reassigned in between and is reported as ErrNotOwner as well.
func (r *CaseReportRepo) UpdateOwned(ctx context.Context, id, userID, diseaseTypeID uint64, address string, lat, lng float64) error {
	if err := r.verifyOwnership(ctx, id, userID); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE case_reports SET disease_type_id=?, address=?, latitude=?, longitude=? WHERE id=? AND user_id=?",
		diseaseTypeID, address, lat, lng, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotOwner
	}
	return nil
}

// DeleteOwned removes a report if it belongs to userID, under the same
// combined predicate as UpdateOwned.
func (r *CaseReportRepo) DeleteOwned(ctx context.Context, id, userID uint64) error {
	if err := r.verifyOwnership(ctx, id, userID); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM case_reports WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotOwner
	}
	return nil
}

// ListAll returns every report joined with disease metadata, newest first.
func (r *CaseReportRepo) ListAll(ctx context.Context) ([]model.CaseReportView, error) {
	return r.list(ctx, baseSelect+" ORDER BY cr.created_at DESC")
}

// ListByUser returns the reports owned by a single user, newest first.
// Access control (caller must be that user) is enforced at the handler.
func (r *CaseReportRepo) ListByUser(ctx context.Context, userID uint64) ([]model.CaseReportView, error) {
	return r.list(ctx, baseSelect+" WHERE cr.user_id = ? ORDER BY cr.created_at DESC", userID)
}

// ListByDisease returns all reports of one disease type, newest first.
func (r *CaseReportRepo) ListByDisease(ctx context.Context, name string) ([]model.CaseReportView, error) {
	return r.list(ctx, baseSelect+" WHERE dt.name = ? ORDER BY cr.created_at DESC", name)
}

// ListRecent returns reports created within the last `days` days.
func (r *CaseReportRepo) ListRecent(ctx context.Context, days int) ([]model.CaseReportView, error) {
	return r.list(ctx,
		baseSelect+" WHERE cr.created_at >= DATE_SUB(NOW(), INTERVAL ? DAY) ORDER BY cr.created_at DESC",
		days)
}

func (r *CaseReportRepo) list(ctx context.Context, query string, args ...any) ([]model.CaseReportView, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CaseReportView{}
	for rows.Next() {
		var v model.CaseReportView
		if err := rows.Scan(&v.ID, &v.UserID, &v.Address, &v.Latitude, &v.Longitude,
			&v.CreatedAt, &v.UpdatedAt, &v.DiseaseType, &v.ColorCode); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMapPoints produces the anonymized heat-map projection: coordinates,
// disease metadata and a date only. The SELECT list is the projection
// contract; user_id and address are never read, so they cannot leak into
// the public endpoint regardless of handler bugs. diseaseName may be empty
// to include all diseases.
func (r *CaseReportRepo) ListMapPoints(ctx context.Context, days int, diseaseName string) ([]model.MapPoint, error) {
	query := `SELECT cr.latitude, cr.longitude, dt.name, dt.color_code, cr.created_at
FROM case_reports cr
INNER JOIN disease_types dt ON cr.disease_type_id = dt.id
WHERE cr.created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)`
	args := []any{days}
	if diseaseName != "" {
		query += " AND dt.name = ?"
		args = append(args, diseaseName)
	}
	query += " ORDER BY cr.created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MapPoint{}
	for rows.Next() {
		var p model.MapPoint
		var created sql.NullTime
		if err := rows.Scan(&p.Lat, &p.Lng, &p.DiseaseType, &p.ColorCode, &created); err != nil {
			return nil, err
		}
		if created.Valid {
			p.Date = created.Time.Format("2006-01-02 15:04:05")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
