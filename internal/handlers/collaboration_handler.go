package handlers

import (
	"encoding/json"
	"net/http"

	"dealdesk/internal/middleware"
	"dealdesk/internal/models"
	"dealdesk/internal/service"
	"dealdesk/pkg/validator"
)

// CollaborationHandler handles comment and vote requests
type CollaborationHandler struct {
	collabService *service.CollaborationService
}

// NewCollaborationHandler creates a new collaboration handler
func NewCollaborationHandler(collabService *service.CollaborationService) *CollaborationHandler {
	return &CollaborationHandler{
		collabService: collabService,
	}
}

// AddCommentRequest represents a comment creation request
type AddCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// CastVoteRequest represents a vote request
type CastVoteRequest struct {
	Value   string `json:"value" validate:"required"`
	Comment string `json:"comment"`
}

// AddComment handles attaching a comment to a deal
// @Summary Add a comment
// @Description Attach a comment to a deal; any authenticated user may comment
// @Tags Collaboration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Param request body AddCommentRequest true "Comment body"
// @Success 201 {object} models.Comment "Comment created"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id}/comments [post]
func (h *CollaborationHandler) AddComment(w http.ResponseWriter, r *http.Request) {
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

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.collabService.AddComment(actor, dealID, req.Content)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, comment)
}

// ListComments handles listing a deal's comments
// @Summary List comments
// @Description Return a deal's comments, newest first
// @Tags Collaboration
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Success 200 {array} models.Comment "Comments"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id}/comments [get]
func (h *CollaborationHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	comments, err := h.collabService.ListComments(dealID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, comments)
}

// CastVote handles recording or replacing a vote
// @Summary Cast a vote
// @Description Record the caller's approve/decline vote on a deal; voting again replaces the previous vote
// @Tags Collaboration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Param request body CastVoteRequest true "Vote"
// @Success 200 {object} models.Vote "Recorded vote"
// @Failure 400 {object} map[string]string "Invalid vote value"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id}/votes [post]
func (h *CollaborationHandler) CastVote(w http.ResponseWriter, r *http.Request) {
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

	var req CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	vote, err := h.collabService.CastVote(actor, dealID, models.VoteValue(req.Value), req.Comment)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, vote)
}

// ListVotes handles listing a deal's votes
// @Summary List votes
// @Description Return a deal's votes with voters expanded
// @Tags Collaboration
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Success 200 {array} models.Vote "Votes"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id}/votes [get]
func (h *CollaborationHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	votes, err := h.collabService.ListVotes(dealID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, votes)
}

// VoteSummary handles the approve/decline tally
// @Summary Vote summary
// @Description Return the approve/decline tally for a deal
// @Tags Collaboration
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deal ID"
// @Success 200 {object} models.VoteSummary "Tally"
// @Failure 404 {object} map[string]string "Deal not found"
// @Router /deals/{id}/votes/summary [get]
func (h *CollaborationHandler) VoteSummary(w http.ResponseWriter, r *http.Request) {
	dealID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDealID)
		return
	}

	summary, err := h.collabService.VoteSummary(dealID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
