package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dealdesk/internal/models"
)

var (
	ErrMemoNotFound     = errors.New("memo not found")
	ErrMemoVersionTaken = errors.New("memo version already taken")
)

// MemoRepository handles IC memo database operations. Memo rows are
// append-only: there is no update or delete.
type MemoRepository struct {
	db *sql.DB
}

// NewMemoRepository creates a new memo repository
func NewMemoRepository(db *sql.DB) *MemoRepository {
	return &MemoRepository{db: db}
}

const memoColumns = `
	m.id, m.deal_id, m.version, m.summary, m.market, m.product, m.traction, m.risks, m.open_questions, m.author_id, m.created_at,
	u.id, u.email, u.username, u.first_name, u.last_name, u.role_id, u.is_active, u.created_at, u.updated_at
`

const memoJoins = `
	FROM ic_memos m
	JOIN users u ON m.author_id = u.id
`

func scanMemo(row interface{ Scan(...interface{}) error }) (*models.ICMemo, error) {
	memo := &models.ICMemo{}
	author := &models.User{}

	err := row.Scan(
		&memo.ID,
		&memo.DealID,
		&memo.Version,
		&memo.Sections.Summary,
		&memo.Sections.Market,
		&memo.Sections.Product,
		&memo.Sections.Traction,
		&memo.Sections.Risks,
		&memo.Sections.OpenQuestions,
		&memo.AuthorID,
		&memo.CreatedAt,
		&author.ID,
		&author.Email,
		&author.Username,
		&author.FirstName,
		&author.LastName,
		&author.RoleID,
		&author.IsActive,
		&author.CreatedAt,
		&author.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	memo.Author = author
	return memo, nil
}

// NextVersionTx computes the next version number for a deal's memo.
// The caller must hold the deal's row lock in the same transaction so
// two concurrent saves cannot compute the same version.
func (r *MemoRepository) NextVersionTx(tx *sql.Tx, dealID uint) (int, error) {
	var next int
	err := tx.QueryRow(`SELECT COALESCE(MAX(version), 0) + 1 FROM ic_memos WHERE deal_id = $1`, dealID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next memo version: %w", err)
	}
	return next, nil
}

// CreateTx appends a memo version inside the transaction. Returns
// ErrMemoVersionTaken if the (deal, version) pair already exists,
// which signals a lost race to the caller.
func (r *MemoRepository) CreateTx(tx *sql.Tx, memo *models.ICMemo) error {
	query := `
		INSERT INTO ic_memos (deal_id, version, summary, market, product, traction, risks, open_questions, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	now := time.Now()
	err := tx.QueryRow(
		query,
		memo.DealID,
		memo.Version,
		memo.Sections.Summary,
		memo.Sections.Market,
		memo.Sections.Product,
		memo.Sections.Traction,
		memo.Sections.Risks,
		memo.Sections.OpenQuestions,
		memo.AuthorID,
		now,
	).Scan(&memo.ID)

	if err != nil {
		if isUniqueViolation(err, "ic_memos_deal_id_version_key") {
			return ErrMemoVersionTaken
		}
		return fmt.Errorf("failed to create memo: %w", err)
	}

	memo.CreatedAt = now
	return nil
}

// GetVersion retrieves an exact memo version for a deal
func (r *MemoRepository) GetVersion(dealID uint, version int) (*models.ICMemo, error) {
	query := `SELECT ` + memoColumns + memoJoins + ` WHERE m.deal_id = $1 AND m.version = $2`

	memo, err := scanMemo(r.db.QueryRow(query, dealID, version))
	if err == sql.ErrNoRows {
		return nil, ErrMemoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memo: %w", err)
	}

	return memo, nil
}

// GetLatest retrieves the highest memo version for a deal
func (r *MemoRepository) GetLatest(dealID uint) (*models.ICMemo, error) {
	query := `SELECT ` + memoColumns + memoJoins + ` WHERE m.deal_id = $1 ORDER BY m.version DESC LIMIT 1`

	memo, err := scanMemo(r.db.QueryRow(query, dealID))
	if err == sql.ErrNoRows {
		return nil, ErrMemoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest memo: %w", err)
	}

	return memo, nil
}

// ListVersions retrieves all memo versions for a deal, descending
func (r *MemoRepository) ListVersions(dealID uint) ([]models.ICMemo, error) {
	query := `SELECT ` + memoColumns + memoJoins + ` WHERE m.deal_id = $1 ORDER BY m.version DESC`

	rows, err := r.db.Query(query, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memos: %w", err)
	}
	defer rows.Close()

	var memos []models.ICMemo
	for rows.Next() {
		memo, err := scanMemo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memo: %w", err)
		}
		memos = append(memos, *memo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memos: %w", err)
	}

	return memos, nil
}
