package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"dealdesk/internal/middleware"
	"dealdesk/internal/models"
	"dealdesk/internal/service"
)

// MemoHandler handles IC memo requests
type MemoHandler struct {
	memoService *service.MemoService
}

// NewMemoHandler creates a new memo handler
func NewMemoHandler(memoService *service.MemoService) *MemoHandler {
	return &MemoHandler{
		memoService: memoService,
	}
}

// SaveMemoRequest represents a memo save request. All sections are
// optional; omitted sections are stored empty.
type SaveMemoRequest struct {
	Sections models.MemoSections `json:"sections"`
}

// Save handles appending a new memo version
// @Summary Save an IC memo version
// @Description Append a new memo version for the deal (analyst or above)
// @Tags Memos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Param request body SaveMemoRequest true "Memo sections"
// @Success 201 {object} models.ICMemo "Memo version created"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id}/memos [post]
func (h *MemoHandler) Save(w http.ResponseWriter, r *http.Request) {
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

	var req SaveMemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	memo, err := h.memoService.SaveMemoVersion(actor, dealID, req.Sections)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	slog.Info("Memo version saved", "deal_id", dealID, "version", memo.Version, "author_id", actor.ID)
	respondWithJSON(w, http.StatusCreated, memo)
}

// List handles listing all memo versions of a deal
// @Summary List memo versions
// @Description Return all memo versions of a deal, newest first
// @Tags Memos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Success 200 {array} models.ICMemo "Memo versions"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id}/memos [get]
func (h *MemoHandler) List(w http.ResponseWriter, r *http.Request) {
	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	memos, err := h.memoService.ListMemoVersions(dealID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, memos)
}

// GetLatest handles fetching the newest memo version
// @Summary Get the latest memo
// @Description Return the highest-numbered memo version of a deal
// @Tags Memos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Success 200 {object} models.ICMemo "Latest memo version"
// @Failure 404 {object} map[string]string "Deal or memo not found"
// @Router /deals/{id}/memos/latest [get]
func (h *MemoHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	memo, err := h.memoService.GetLatestMemo(dealID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, memo)
}

// GetVersion handles fetching one specific memo version
// @Summary Get a memo version
// @Description Return one memo version of a deal
// @Tags Memos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Param version path int true "Memo version"
// @Success 200 {object} models.ICMemo "Memo version"
// @Failure 404 {object} map[string]string "Deal or memo not found"
// @Router /deals/{id}/memos/{version} [get]
func (h *MemoHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	version, err := parseUintParam(r, "version")
	if err != nil || version == 0 {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidVersion)
		return
	}

	memo, err := h.memoService.GetMemoVersion(dealID, int(version))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, memo)
}
