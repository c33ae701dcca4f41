package repository

import (
	"database/sql"
	"fmt"
	"time"

	"dealdesk/internal/models"
)

// CommentRepository handles comment database operations
type CommentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create creates a new comment
func (r *CommentRepository) Create(comment *models.Comment) error {
	query := `
		INSERT INTO comments (deal_id, user_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		comment.DealID,
		comment.UserID,
		comment.Content,
		now,
		now,
	).Scan(&comment.ID)

	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	comment.CreatedAt = now
	comment.UpdatedAt = now
	return nil
}

// ListForDeal retrieves all comments on a deal, newest first, with the
// commenting user expanded.
func (r *CommentRepository) ListForDeal(dealID uint) ([]models.Comment, error) {
	query := `
		SELECT c.id, c.deal_id, c.user_id, c.content, c.created_at, c.updated_at,
		       u.id, u.email, u.username, u.first_name, u.last_name, u.role_id, u.is_active, u.created_at, u.updated_at
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.deal_id = $1
		ORDER BY c.created_at DESC
	`

	rows, err := r.db.Query(query, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		user := &models.User{}
		if err := rows.Scan(
			&comment.ID,
			&comment.DealID,
			&comment.UserID,
			&comment.Content,
			&comment.CreatedAt,
			&comment.UpdatedAt,
			&user.ID,
			&user.Email,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.RoleID,
			&user.IsActive,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comment.User = user
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}
