// Package handler exposes HTTP handlers for authentication, case report
// CRUD and the public map projection. This file implements the case report
// endpoints. Mutations run behind the session middleware and are scoped to
// the owning user; ownership failures never reveal whether the target row
// exists.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/disease-case-tracker/internal/config"
	"github.com/iliyamo/disease-case-tracker/internal/geocode"
	"github.com/iliyamo/disease-case-tracker/internal/logging"
	"github.com/iliyamo/disease-case-tracker/internal/middleware"
	"github.com/iliyamo/disease-case-tracker/internal/model"
	"github.com/iliyamo/disease-case-tracker/internal/queue"
	"github.com/iliyamo/disease-case-tracker/internal/repository"
	queue_publisher "github.com/iliyamo/disease-case-tracker/internal/service"
	"github.com/iliyamo/disease-case-tracker/internal/session"
	"github.com/iliyamo/disease-case-tracker/internal/utils"
)

// validDiseases is the fixed set of tracked diseases. The reference table
// carries the same names; this map rejects unknown input before any lookup.
var validDiseases = map[string]bool{
	"dengue":        true,
	"leptospirosis": true,
	"malaria":       true,
}

const (
	defaultRecentDays = 90
	maxRecentDays     = 365
)

// CaseHandler bundles dependencies for case report endpoints.
type CaseHandler struct {
	Cfg      config.Config
	SessCfg  config.SessionConfig
	Cases    *repository.CaseReportRepo
	Diseases *repository.DiseaseTypeRepo
	Geocoder *geocode.Client
	Sessions *session.Manager
	Log      zerolog.Logger
}

func NewCaseHandler(cfg config.Config, sessCfg config.SessionConfig, cases *repository.CaseReportRepo,
	diseases *repository.DiseaseTypeRepo, geocoder *geocode.Client, sm *session.Manager, log zerolog.Logger) *CaseHandler {
	return &CaseHandler{Cfg: cfg, SessCfg: sessCfg, Cases: cases, Diseases: diseases,
		Geocoder: geocoder, Sessions: sm, Log: log}
}

// ----- DTOs -----

type createCaseReq struct {
	DiseaseType string `json:"disease_type"`
	Address     string `json:"address"`
}
type updateCaseReq struct {
	CaseID      uint64 `json:"case_id"`
	DiseaseType string `json:"disease_type"`
	Address     string `json:"address"`
}
type deleteCaseReq struct {
	CaseID uint64 `json:"case_id"`
}

// Create handles POST /v1/cases. The address is geocoded before anything is
// persisted; a failed lookup aborts the submission with a validation-style
// error.
func (h *CaseHandler) Create(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Authentication required")
	}

	var req createCaseReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if fields := requireCaseFields(req.DiseaseType, req.Address); fields != nil {
		return failFields(c, http.StatusBadRequest, "Disease type and address are required", fields)
	}
	disease := strings.ToLower(strings.TrimSpace(req.DiseaseType))
	if !validDiseases[disease] {
		return failFields(c, http.StatusBadRequest, "Invalid disease type",
			map[string]string{"disease_type": "Must be dengue, leptospirosis, or malaria"})
	}

	coords, err := h.Geocoder.Resolve(c.Request().Context(), req.Address)
	if err != nil {
		return failFields(c, http.StatusBadRequest,
			"Could not geocode address. Please try a more specific location.",
			map[string]string{"address": "Unable to find coordinates for this address"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dt, err := h.Diseases.GetByName(ctx, disease)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownDisease) {
			return failFields(c, http.StatusBadRequest, "Invalid disease type",
				map[string]string{"disease_type": "Must be dengue, leptospirosis, or malaria"})
		}
		return failStorage(c, http.StatusInternalServerError, "Failed to create case report", h.Cfg.IsDev(), err)
	}

	cr := model.CaseReport{
		UserID:        ident.ID,
		DiseaseTypeID: dt.ID,
		Address:       utils.SanitizeAddress(req.Address),
		Latitude:      coords.Lat,
		Longitude:     coords.Lng,
	}
	if err := h.Cases.Create(ctx, &cr); err != nil {
		logging.Case(h.Log, "create", 0, ident.ID, false)
		return failStorage(c, http.StatusInternalServerError, "Failed to create case report", h.Cfg.IsDev(), err)
	}

	logging.Case(h.Log, "create", cr.ID, ident.ID, true)
	h.publishEvent("created", cr.ID, ident.ID, dt.Name, coords.Lat, coords.Lng)

	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"message":     "Case report submitted successfully",
		"case_id":     cr.ID,
		"coordinates": coords,
	})
}

// List handles GET /v1/cases. The first matching filter wins: user_id, then
// disease_type, then days, then everything. Listing by user requires the
// caller's authenticated identity to match the requested user.
func (h *CaseHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		reports []model.CaseReportView
		err     error
	)
	switch {
	case c.QueryParam("user_id") != "":
		userID, perr := strconv.ParseUint(c.QueryParam("user_id"), 10, 64)
		if perr != nil {
			return fail(c, http.StatusBadRequest, "Invalid user_id")
		}
		ident, serr := h.currentIdentity(c)
		if serr != nil || ident.ID != userID {
			return fail(c, http.StatusForbidden, "Unauthorized access")
		}
		reports, err = h.Cases.ListByUser(ctx, userID)
	case c.QueryParam("disease_type") != "":
		reports, err = h.Cases.ListByDisease(ctx, strings.ToLower(strings.TrimSpace(c.QueryParam("disease_type"))))
	case c.QueryParam("days") != "":
		reports, err = h.Cases.ListRecent(ctx, clampDays(c.QueryParam("days")))
	default:
		reports, err = h.Cases.ListAll(ctx)
	}
	if err != nil {
		return failStorage(c, http.StatusInternalServerError, "Failed to retrieve case reports", h.Cfg.IsDev(), err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"reports": reports,
		"count":   len(reports),
	})
}

// Update handles PUT /v1/cases. Every update re-validates the disease type
// and re-geocodes the address, even when unchanged, so coordinates can never
// drift from the stored address.
func (h *CaseHandler) Update(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Authentication required")
	}

	var req updateCaseReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.CaseID == 0 || strings.TrimSpace(req.DiseaseType) == "" || strings.TrimSpace(req.Address) == "" {
		return fail(c, http.StatusBadRequest, "Case ID, disease type, and address are required")
	}
	disease := strings.ToLower(strings.TrimSpace(req.DiseaseType))
	if !validDiseases[disease] {
		return failFields(c, http.StatusBadRequest, "Invalid disease type",
			map[string]string{"disease_type": "Must be dengue, leptospirosis, or malaria"})
	}

	coords, err := h.Geocoder.Resolve(c.Request().Context(), req.Address)
	if err != nil {
		return failFields(c, http.StatusBadRequest,
			"Could not geocode address. Please try a more specific location.",
			map[string]string{"address": "Unable to find coordinates for this address"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dt, err := h.Diseases.GetByName(ctx, disease)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownDisease) {
			return failFields(c, http.StatusBadRequest, "Invalid disease type",
				map[string]string{"disease_type": "Must be dengue, leptospirosis, or malaria"})
		}
		return failStorage(c, http.StatusInternalServerError, "Failed to update case report", h.Cfg.IsDev(), err)
	}

	err = h.Cases.UpdateOwned(ctx, req.CaseID, ident.ID, dt.ID,
		utils.SanitizeAddress(req.Address), coords.Lat, coords.Lng)
	if err != nil {
		if errors.Is(err, repository.ErrNotOwner) {
			// One signal for "missing" and "not yours".
			logging.Case(h.Log, "update", req.CaseID, ident.ID, false)
			return fail(c, http.StatusForbidden, "Failed to update case report or unauthorized")
		}
		return failStorage(c, http.StatusInternalServerError, "Failed to update case report", h.Cfg.IsDev(), err)
	}

	logging.Case(h.Log, "update", req.CaseID, ident.ID, true)
	h.publishEvent("updated", req.CaseID, ident.ID, dt.Name, coords.Lat, coords.Lng)

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"message":     "Case report updated successfully",
		"coordinates": coords,
	})
}

// Delete handles DELETE /v1/cases.
func (h *CaseHandler) Delete(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Authentication required")
	}

	var req deleteCaseReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.CaseID == 0 {
		return fail(c, http.StatusBadRequest, "Case ID is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cases.DeleteOwned(ctx, req.CaseID, ident.ID); err != nil {
		if errors.Is(err, repository.ErrNotOwner) {
			logging.Case(h.Log, "delete", req.CaseID, ident.ID, false)
			return fail(c, http.StatusForbidden, "Failed to delete case report or unauthorized")
		}
		return failStorage(c, http.StatusInternalServerError, "Failed to delete case report", h.Cfg.IsDev(), err)
	}

	logging.Case(h.Log, "delete", req.CaseID, ident.ID, true)
	h.publishEvent("deleted", req.CaseID, ident.ID, "", 0, 0)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Case report deleted successfully"})
}

type diseasePart struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	ColorCode string `json:"color_code"`
}

// ListDiseases handles GET /v1/diseases: the reference table as-is, for map
// legends and filter controls.
func (h *CaseHandler) ListDiseases(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	types, err := h.Diseases.List(ctx)
	if err != nil {
		return failStorage(c, http.StatusInternalServerError, "Failed to retrieve disease types", h.Cfg.IsDev(), err)
	}
	out := make([]diseasePart, 0, len(types))
	for _, dt := range types {
		out = append(out, diseasePart{ID: dt.ID, Name: dt.Name, ColorCode: dt.ColorCode})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "diseases": out})
}

// ----- helpers -----

// currentIdentity resolves the session cookie for routes registered outside
// the session middleware (the list endpoint, which is public except for the
// user_id filter).
func (h *CaseHandler) currentIdentity(c echo.Context) (session.Identity, error) {
	cookie, err := c.Cookie(h.SessCfg.CookieName)
	if err != nil {
		return session.Identity{}, session.ErrUnauthenticated
	}
	return h.Sessions.Check(c.Request().Context(), cookie.Value)
}

// publishEvent ships a case event to the broker in the background; a broker
// outage must never delay or fail the request.
func (h *CaseHandler) publishEvent(action string, caseID, userID uint64, disease string, lat, lng float64) {
	ev := queue.CaseEvent{
		Action:      action,
		CaseID:      caseID,
		UserID:      userID,
		DiseaseType: disease,
		Latitude:    lat,
		Longitude:   lng,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishCaseEvent(ctx, ev)
	}()
}

func requireCaseFields(diseaseType, address string) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(diseaseType) == "" {
		fields["disease_type"] = "Disease type is required"
	}
	if strings.TrimSpace(address) == "" {
		fields["address"] = "Address is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// clampDays parses a day-window parameter, falling back to the 90-day
// default when absent, malformed or outside [1,365].
func clampDays(raw string) int {
	if raw == "" {
		return defaultRecentDays
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxRecentDays {
		return defaultRecentDays
	}
	return n
}
