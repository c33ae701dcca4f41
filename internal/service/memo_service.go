package service

import (
	"database/sql"
	"fmt"

	"dealdesk/internal/models"
	"dealdesk/internal/permissions"
	"dealdesk/internal/repository"
)

// MemoService manages the immutable IC memo history of a deal. Memos
// are append-only: saving always creates the next version, existing
// versions are never modified.
type MemoService struct {
	db           *sql.DB
	dealRepo     *repository.DealRepository
	memoRepo     *repository.MemoRepository
	activityRepo *repository.ActivityRepository
}

// NewMemoService creates a new memo service
func NewMemoService(db *sql.DB, dealRepo *repository.DealRepository, memoRepo *repository.MemoRepository, activityRepo *repository.ActivityRepository) *MemoService {
	return &MemoService{
		db:           db,
		dealRepo:     dealRepo,
		memoRepo:     memoRepo,
		activityRepo: activityRepo,
	}
}

// SaveMemoVersion appends a new memo version for the deal. The version
// number is assigned server-side as max(existing)+1, starting at 1.
// Analyst or above only.
func (s *MemoService) SaveMemoVersion(actor *models.User, dealID uint, sections models.MemoSections) (*models.ICMemo, error) {
	if !permissions.IsAnalystOrAbove(actor) {
		return nil, ErrForbidden
	}

	memo, err := s.saveVersion(actor, dealID, sections)
	if err == repository.ErrMemoVersionTaken {
		// Lost a race despite the row lock (e.g. a concurrent insert
		// committed between our read and write). One retry suffices.
		memo, err = s.saveVersion(actor, dealID, sections)
	}
	return memo, err
}

func (s *MemoService) saveVersion(actor *models.User, dealID uint, sections models.MemoSections) (*models.ICMemo, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	deal, err := s.dealRepo.GetByIDForUpdateTx(tx, dealID)
	if err != nil {
		return nil, err
	}

	version, err := s.memoRepo.NextVersionTx(tx, dealID)
	if err != nil {
		return nil, err
	}

	memo := &models.ICMemo{
		DealID:   dealID,
		Version:  version,
		Sections: sections,
		AuthorID: actor.ID,
	}
	if err := s.memoRepo.CreateTx(tx, memo); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		DealID:      deal.ID,
		UserID:      actor.ID,
		Description: fmt.Sprintf("saved IC Memo version %d", version),
	}
	if err := s.activityRepo.CreateTx(tx, activity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	memo.Author = actor
	return memo, nil
}

// GetMemoVersion returns one specific memo version of a deal
func (s *MemoService) GetMemoVersion(dealID uint, version int) (*models.ICMemo, error) {
	if _, err := s.dealRepo.GetByID(dealID); err != nil {
		return nil, err
	}
	return s.memoRepo.GetVersion(dealID, version)
}

// GetLatestMemo returns the highest-numbered memo version of a deal
func (s *MemoService) GetLatestMemo(dealID uint) (*models.ICMemo, error) {
	if _, err := s.dealRepo.GetByID(dealID); err != nil {
		return nil, err
	}
	return s.memoRepo.GetLatest(dealID)
}

// ListMemoVersions returns all memo versions of a deal, newest first
func (s *MemoService) ListMemoVersions(dealID uint) ([]models.ICMemo, error) {
	if _, err := s.dealRepo.GetByID(dealID); err != nil {
		return nil, err
	}
	return s.memoRepo.ListVersions(dealID)
}
