package service

import (
	"dealdesk/internal/models"
	"dealdesk/internal/permissions"
	"dealdesk/internal/repository"
)

// CollaborationService handles comments and votes on deals. Neither
// writes an activity entry; the audit trail tracks deal mutations only.
type CollaborationService struct {
	dealRepo    *repository.DealRepository
	commentRepo *repository.CommentRepository
	voteRepo    *repository.VoteRepository
}

// NewCollaborationService creates a new collaboration service
func NewCollaborationService(dealRepo *repository.DealRepository, commentRepo *repository.CommentRepository, voteRepo *repository.VoteRepository) *CollaborationService {
	return &CollaborationService{
		dealRepo:    dealRepo,
		commentRepo: commentRepo,
		voteRepo:    voteRepo,
	}
}

// AddComment attaches a comment to a deal. Any authenticated user may
// comment.
func (s *CollaborationService) AddComment(actor *models.User, dealID uint, content string) (*models.Comment, error) {
	if _, err := s.dealRepo.GetByID(dealID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		DealID:  dealID,
		UserID:  actor.ID,
		Content: content,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}

	comment.User = actor
	return comment, nil
}

// ListComments returns a deal's comments, newest first
func (s *CollaborationService) ListComments(dealID uint) ([]models.Comment, error) {
	if _, err := s.dealRepo.GetByID(dealID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListForDeal(dealID)
}

// CastVote records or replaces the actor's vote on a deal. Each user
// holds at most one vote per deal; voting again overwrites the previous
// value. Admins and partners only.
func (s *CollaborationService) CastVote(actor *models.User, dealID uint, value models.VoteValue, comment string) (*models.Vote, error) {
	if !permissions.CanVote(actor) {
		return nil, ErrForbidden
	}
	if !models.IsValidVoteValue(value) {
		return nil, ErrInvalidVoteValue
	}
	if _, err := s.dealRepo.GetByID(dealID); err != nil {
		return nil, err
	}

	vote := &models.Vote{
		DealID:  dealID,
		UserID:  actor.ID,
		Value:   value,
		Comment: comment,
	}
	if err := s.voteRepo.Upsert(vote); err != nil {
		return nil, err
	}

	vote.User = actor
	return vote, nil
}

// ListVotes returns a deal's votes with voters expanded
func (s *CollaborationService) ListVotes(dealID uint) ([]models.Vote, error) {
	if _, err := s.dealRepo.GetByID(dealID); err != nil {
		return nil, err
	}
	return s.voteRepo.ListForDeal(dealID)
}

// VoteSummary returns the approve/decline tally for a deal
func (s *CollaborationService) VoteSummary(dealID uint) (*models.VoteSummary, error) {
	if _, err := s.dealRepo.GetByID(dealID); err != nil {
		return nil, err
	}
	return s.voteRepo.Summary(dealID)
}
