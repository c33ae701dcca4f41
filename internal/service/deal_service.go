package service

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"dealdesk/internal/models"
	"dealdesk/internal/permissions"
	"dealdesk/internal/repository"
)

// DealService owns the deal lifecycle: creation, field updates, stage
// moves, and archival. Every successful mutation writes exactly one
// activity entry in the same transaction.
type DealService struct {
	db           *sql.DB
	dealRepo     *repository.DealRepository
	activityRepo *repository.ActivityRepository
}

// NewDealService creates a new deal service
func NewDealService(db *sql.DB, dealRepo *repository.DealRepository, activityRepo *repository.ActivityRepository) *DealService {
	return &DealService{
		db:           db,
		dealRepo:     dealRepo,
		activityRepo: activityRepo,
	}
}

// DealPatch carries the optional fields of a partial deal update. Nil
// fields are left untouched. Owner and status are never patchable.
type DealPatch struct {
	Name       *string  `json:"name,omitempty"`
	CompanyURL *string  `json:"company_url,omitempty"`
	Round      *string  `json:"round,omitempty"`
	CheckSize  *float64 `json:"check_size,omitempty"`
}

// rollback rolls a transaction back unless it already committed
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Error("Failed to rollback transaction", "error", err)
	}
}

// CreateDeal creates a deal owned by the actor with stage Sourced and
// status active. Analyst or above only.
func (s *DealService) CreateDeal(actor *models.User, name string, companyURL, round *string, checkSize *float64) (*models.Deal, error) {
	if !permissions.IsAnalystOrAbove(actor) {
		return nil, ErrForbidden
	}

	deal := &models.Deal{
		Name:       name,
		CompanyURL: companyURL,
		OwnerID:    actor.ID,
		Stage:      models.StageSourced,
		Round:      round,
		CheckSize:  checkSize,
		Status:     models.DealStatusActive,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	if err := s.dealRepo.CreateTx(tx, deal); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		DealID:      deal.ID,
		UserID:      actor.ID,
		Description: fmt.Sprintf("created deal '%s'", deal.Name),
	}
	if err := s.activityRepo.CreateTx(tx, activity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	deal.Owner = actor
	return deal, nil
}

// UpdateDealFields applies the provided fields of the patch to the
// deal. Admins may edit any deal, analysts only their own. An empty
// patch changes nothing and writes no activity; otherwise one activity
// names the updated fields in patch-field order.
func (s *DealService) UpdateDealFields(actor *models.User, dealID uint, patch DealPatch) (*models.Deal, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	deal, err := s.dealRepo.GetByIDForUpdateTx(tx, dealID)
	if err != nil {
		return nil, err
	}

	if !permissions.CanEditDeal(actor, deal) {
		return nil, ErrForbidden
	}

	var updated []string
	if patch.Name != nil {
		deal.Name = *patch.Name
		updated = append(updated, "name")
	}
	if patch.CompanyURL != nil {
		deal.CompanyURL = patch.CompanyURL
		updated = append(updated, "company_url")
	}
	if patch.Round != nil {
		deal.Round = patch.Round
		updated = append(updated, "round")
	}
	if patch.CheckSize != nil {
		deal.CheckSize = patch.CheckSize
		updated = append(updated, "check_size")
	}

	if len(updated) == 0 {
		return deal, nil
	}

	if err := s.dealRepo.UpdateTx(tx, deal); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		DealID:      deal.ID,
		UserID:      actor.ID,
		Description: fmt.Sprintf("updated %s", strings.Join(updated, ", ")),
	}
	if err := s.activityRepo.CreateTx(tx, activity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return deal, nil
}

// TransitionStage moves a deal to a new stage. Any authenticated user
// may move any deal; the six-stage set is the only constraint, and a
// move to the current stage still logs an activity.
func (s *DealService) TransitionStage(actor *models.User, dealID uint, newStage models.Stage) (*models.Deal, error) {
	if !models.IsValidStage(newStage) {
		return nil, ErrInvalidStage
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	deal, err := s.dealRepo.GetByIDForUpdateTx(tx, dealID)
	if err != nil {
		return nil, err
	}

	oldStage := deal.Stage
	deal.Stage = newStage

	if err := s.dealRepo.UpdateTx(tx, deal); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		DealID:      deal.ID,
		UserID:      actor.ID,
		Description: fmt.Sprintf("moved '%s' from %s to %s", deal.Name, oldStage, newStage),
	}
	if err := s.activityRepo.CreateTx(tx, activity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return deal, nil
}

// ArchiveDeal soft-deletes a deal: status flips to archived, the row
// stays fetchable. Admin only.
func (s *DealService) ArchiveDeal(actor *models.User, dealID uint) (*models.Deal, error) {
	if !permissions.IsAdmin(actor) {
		return nil, ErrForbidden
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	deal, err := s.dealRepo.GetByIDForUpdateTx(tx, dealID)
	if err != nil {
		return nil, err
	}

	deal.Status = models.DealStatusArchived

	if err := s.dealRepo.UpdateTx(tx, deal); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		DealID:      deal.ID,
		UserID:      actor.ID,
		Description: fmt.Sprintf("archived deal '%s'", deal.Name),
	}
	if err := s.activityRepo.CreateTx(tx, activity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return deal, nil
}

// ListActiveDeals returns all active deals with owners expanded. Every
// authenticated user sees all active deals.
func (s *DealService) ListActiveDeals() ([]models.Deal, error) {
	return s.dealRepo.GetAllActive()
}

// GetDeal returns a deal by ID regardless of status
func (s *DealService) GetDeal(dealID uint) (*models.Deal, error) {
	return s.dealRepo.GetByID(dealID)
}

// ListActivity returns the deal's audit trail, newest first
func (s *DealService) ListActivity(dealID uint) ([]models.Activity, error) {
	if _, err := s.dealRepo.GetByID(dealID); err != nil {
		return nil, err
	}
	return s.activityRepo.ListForDeal(dealID)
}
