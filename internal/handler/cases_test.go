package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/disease-case-tracker/internal/config"
	"github.com/iliyamo/disease-case-tracker/internal/geocode"
	"github.com/iliyamo/disease-case-tracker/internal/middleware"
	"github.com/iliyamo/disease-case-tracker/internal/repository"
	"github.com/iliyamo/disease-case-tracker/internal/session"
)

const geocodeOneResult = `[{"lat":"14.5995","lon":"120.9842"}]`

type caseFixture struct {
	e    *echo.Echo
	mock sqlmock.Sqlmock
	mgr  *session.Manager
}

// newCaseFixture wires the case routes the way the router does, with the
// geocoder pointed at a stub server serving the given body.
func newCaseFixture(t *testing.T, geocodeBody string, geocodeStatus int) *caseFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(geocodeStatus)
		_, _ = w.Write([]byte(geocodeBody))
	}))
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	mgr := session.NewManager(store, 30*time.Minute)

	cfg := config.Config{Env: "test"}
	sessCfg := config.SessionConfig{CookieName: testCookie, IdleTimeout: 30 * time.Minute}

	h := NewCaseHandler(cfg, sessCfg,
		repository.NewCaseReportRepo(db), repository.NewDiseaseTypeRepo(db),
		geocode.New(srv.URL, "test-agent", 2*time.Second), mgr, zerolog.Nop())

	e := echo.New()
	auth := middleware.SessionAuth(mgr, testCookie)
	e.POST("/v1/cases", h.Create, auth)
	e.PUT("/v1/cases", h.Update, auth)
	e.DELETE("/v1/cases", h.Delete, auth)
	e.GET("/v1/cases", h.List)
	e.GET("/v1/diseases", h.ListDiseases)

	return &caseFixture{e: e, mock: mock, mgr: mgr}
}

func (f *caseFixture) login(t *testing.T, userID uint64, username string) *http.Cookie {
	t.Helper()
	sid, err := f.mgr.Issue(c0(), "", session.Identity{ID: userID, Username: username, Email: username + "@x.com"})
	require.NoError(t, err)
	return &http.Cookie{Name: testCookie, Value: sid}
}

func (f *caseFixture) do(method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func diseaseQuery() string {
	return regexp.QuoteMeta("SELECT id,name,color_code FROM disease_types WHERE name=? LIMIT 1")
}

func ownershipQuery() string {
	return regexp.QuoteMeta("SELECT user_id FROM case_reports WHERE id=? LIMIT 1")
}

func TestCreateCase_Unauthenticated(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)

	rec := f.do(http.MethodPost, "/v1/cases", `{"disease_type":"dengue","address":"Manila"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Authentication required", body["message"])
}

func TestCreateCase_InvalidDisease(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	rec := f.do(http.MethodPost, "/v1/cases", `{"disease_type":"ebola","address":"Manila"}`, ck)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "disease_type")
	assert.NoError(t, f.mock.ExpectationsWereMet(), "rejected before any query")
}

func TestCreateCase_MissingFields(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	rec := f.do(http.MethodPost, "/v1/cases", `{"disease_type":"","address":""}`, ck)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "disease_type")
	assert.Contains(t, errs, "address")
}

func TestCreateCase_GeocodeFailure(t *testing.T) {
	// An empty candidate list means the address could not be resolved.
	f := newCaseFixture(t, `[]`, http.StatusOK)
	ck := f.login(t, 1, "alice")

	rec := f.do(http.MethodPost, "/v1/cases", `{"disease_type":"dengue","address":"nowhere at all"}`, ck)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, body["message"], "Could not geocode address")
	assert.NoError(t, f.mock.ExpectationsWereMet(), "nothing is persisted on geocode failure")
}

func TestCreateCase_Success(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	f.mock.ExpectQuery(diseaseQuery()).WithArgs("dengue").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color_code"}).AddRow(1, "dengue", "#e74c3c"))
	f.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO case_reports (user_id, disease_type_id, address, latitude, longitude) VALUES (?,?,?,?,?)")).
		WithArgs(uint64(1), uint64(1), "123 Main St", 14.5995, 120.9842).
		WillReturnResult(sqlmock.NewResult(7, 1))

	// Markup in the address is stripped before it is stored.
	rec := f.do(http.MethodPost, "/v1/cases", `{"disease_type":"Dengue","address":"123 Main <b>St</b>"}`, ck)
	assert.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(7), body["case_id"])
	coords := body["coordinates"].(map[string]any)
	assert.InDelta(t, 14.5995, coords["lat"], 1e-9)
	assert.InDelta(t, 120.9842, coords["lng"], 1e-9)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateCase_NotOwner(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	f.mock.ExpectQuery(diseaseQuery()).WithArgs("malaria").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color_code"}).AddRow(3, "malaria", "#2ecc71"))
	// The stored row belongs to someone else; no UPDATE may follow.
	f.mock.ExpectQuery(ownershipQuery()).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(99))

	rec := f.do(http.MethodPut, "/v1/cases", `{"case_id":42,"disease_type":"malaria","address":"Quezon City"}`, ck)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to update case report or unauthorized", body["message"])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateCase_MissingRowLooksTheSame(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	f.mock.ExpectQuery(diseaseQuery()).WithArgs("malaria").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color_code"}).AddRow(3, "malaria", "#2ecc71"))
	f.mock.ExpectQuery(ownershipQuery()).WithArgs(uint64(404)).WillReturnError(sql.ErrNoRows)

	rec := f.do(http.MethodPut, "/v1/cases", `{"case_id":404,"disease_type":"malaria","address":"Quezon City"}`, ck)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to update case report or unauthorized", body["message"],
		"a missing report and a foreign report must be indistinguishable")
}

func TestUpdateCase_Success(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	f.mock.ExpectQuery(diseaseQuery()).WithArgs("leptospirosis").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color_code"}).AddRow(2, "leptospirosis", "#f39c12"))
	f.mock.ExpectQuery(ownershipQuery()).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE case_reports SET disease_type_id=?, address=?, latitude=?, longitude=? WHERE id=? AND user_id=?")).
		WithArgs(uint64(2), "Pasig", 14.5995, 120.9842, uint64(42), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := f.do(http.MethodPut, "/v1/cases", `{"case_id":42,"disease_type":"leptospirosis","address":"Pasig"}`, ck)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteCase_MissingID(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	rec := f.do(http.MethodDelete, "/v1/cases", `{}`, ck)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCase_NotOwner(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	f.mock.ExpectQuery(ownershipQuery()).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(99))

	rec := f.do(http.MethodDelete, "/v1/cases", `{"case_id":42}`, ck)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to delete case report or unauthorized", body["message"])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteCase_Success(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	f.mock.ExpectQuery(ownershipQuery()).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
	f.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM case_reports WHERE id=? AND user_id=?")).
		WithArgs(uint64(42), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := f.do(http.MethodDelete, "/v1/cases", `{"case_id":42}`, ck)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func caseViewRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "address", "latitude", "longitude",
		"created_at", "updated_at", "name", "color_code",
	}).AddRow(1, 1, "Manila", 14.5995, 120.9842, now, now, "dengue", "#e74c3c")
}

func TestListCases_All(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)

	f.mock.ExpectQuery(regexp.QuoteMeta("FROM case_reports cr")).WillReturnRows(caseViewRows())

	rec := f.do(http.MethodGet, "/v1/cases", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

func TestListCases_ByUserRequiresMatchingIdentity(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	// Someone else's reports: forbidden even when authenticated.
	rec := f.do(http.MethodGet, "/v1/cases?user_id=2", "", ck)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Unauthorized access", body["message"])
	assert.NoError(t, f.mock.ExpectationsWereMet(), "forbidden before any query")

	// Anonymous callers get the same answer.
	rec = f.do(http.MethodGet, "/v1/cases?user_id=2", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListDiseases(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)

	f.mock.ExpectQuery(regexp.QuoteMeta("SELECT id,name,color_code FROM disease_types ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color_code"}).
			AddRow(1, "dengue", "#e74c3c").
			AddRow(2, "leptospirosis", "#f39c12").
			AddRow(3, "malaria", "#2ecc71"))

	rec := f.do(http.MethodGet, "/v1/diseases", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	diseases := body["diseases"].([]any)
	require.Len(t, diseases, 3)
	first := diseases[0].(map[string]any)
	assert.Equal(t, "dengue", first["name"])
	assert.Equal(t, "#e74c3c", first["color_code"])
}

func TestListCases_ByUser(t *testing.T) {
	f := newCaseFixture(t, geocodeOneResult, http.StatusOK)
	ck := f.login(t, 1, "alice")

	f.mock.ExpectQuery(regexp.QuoteMeta("WHERE cr.user_id = ?")).WithArgs(uint64(1)).
		WillReturnRows(caseViewRows())

	rec := f.do(http.MethodGet, "/v1/cases?user_id=1", "", ck)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	reports := body["reports"].([]any)
	first := reports[0].(map[string]any)
	assert.Equal(t, "dengue", first["disease_type"])
}
