package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"dealdesk/internal/middleware"
	"dealdesk/internal/models"
	"dealdesk/internal/service"
	"dealdesk/pkg/validator"
)

// DealHandler handles deal pipeline requests
type DealHandler struct {
	dealService *service.DealService
}

// NewDealHandler creates a new deal handler
func NewDealHandler(dealService *service.DealService) *DealHandler {
	return &DealHandler{
		dealService: dealService,
	}
}

// CreateDealRequest represents a deal creation request
type CreateDealRequest struct {
	Name       string   `json:"name" validate:"required"`
	CompanyURL *string  `json:"company_url"`
	Round      *string  `json:"round"`
	CheckSize  *float64 `json:"check_size"`
}

// TransitionStageRequest represents a stage transition request
type TransitionStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// Create handles deal creation
// @Summary Create a deal
// @Description Create a new deal owned by the caller (analyst or above)
// @Tags Deals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateDealRequest true "Deal details"
// @Success 201 {object} models.Deal "Deal created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /deals [post]
func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CreateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	deal, err := h.dealService.CreateDeal(actor, req.Name, req.CompanyURL, req.Round, req.CheckSize)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	slog.Info("Deal created", "deal_id", deal.ID, "name", deal.Name, "owner_id", actor.ID)
	respondWithJSON(w, http.StatusCreated, deal)
}

// List handles listing active deals
// @Summary List active deals
// @Description Return all active deals with owners expanded
// @Tags Deals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Deal "Active deals"
// @Router /deals [get]
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	deals, err := h.dealService.ListActiveDeals()
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, deals)
}

// Get handles fetching a single deal
// @Summary Get a deal
// @Description Return a deal by ID, archived deals included
// @Tags Deals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Success 200 {object} models.Deal "Deal"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id} [get]
func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	deal, err := h.dealService.GetDeal(dealID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, deal)
}

// Update handles partial deal updates
// @Summary Update deal fields
// @Description Apply a partial update to a deal (admin, or analyst owning it)
// @Tags Deals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Param request body service.DealPatch true "Fields to update"
// @Success 200 {object} models.Deal "Updated deal"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id} [patch]
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	var patch service.DealPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	deal, err := h.dealService.UpdateDealFields(actor, dealID, patch)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, deal)
}

// TransitionStage handles moving a deal to a new stage
// @Summary Move a deal to a stage
// @Description Move a deal to any of the six pipeline stages
// @Tags Deals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Param request body TransitionStageRequest true "Target stage"
// @Success 200 {object} models.Deal "Updated deal"
// @Failure 400 {object} map[string]string "Invalid stage"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id}/stage [post]
func (h *DealHandler) TransitionStage(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	var req TransitionStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	deal, err := h.dealService.TransitionStage(actor, dealID, models.Stage(req.Stage))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, deal)
}

// Archive handles soft-deleting a deal
// @Summary Archive a deal
// @Description Mark a deal as archived (admin only); the deal stays fetchable
// @Tags Deals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Success 200 {object} models.Deal "Archived deal"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id} [delete]
func (h *DealHandler) Archive(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	deal, err := h.dealService.ArchiveDeal(actor, dealID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	slog.Info("Deal archived", "deal_id", deal.ID, "by", actor.ID)
	respondWithJSON(w, http.StatusOK, deal)
}

// ListActivity handles listing a deal's audit trail
// @Summary List deal activity
// @Description Return the deal's activity entries, newest first
// @Tags Deals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Success 200 {array} models.Activity "Activity entries"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id}/activity [get]
func (h *DealHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	activities, err := h.dealService.ListActivity(dealID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, activities)
}
