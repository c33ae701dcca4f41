package models

import (
	"time"
)

// Stage is one of the six fixed pipeline states a deal occupies.
// Stages form a flat set: any stage is reachable from any other in
// one move, there is no enforced transition graph.
type Stage string

const (
	StageSourced   Stage = "Sourced"
	StageScreen    Stage = "Screen"
	StageDiligence Stage = "Diligence"
	StageIC        Stage = "IC"
	StageInvested  Stage = "Invested"
	StagePassed    Stage = "Passed"
)

// Stages lists all valid stages in pipeline order.
var Stages = []Stage{StageSourced, StageScreen, StageDiligence, StageIC, StageInvested, StagePassed}

// IsValidStage reports whether s is one of the six pipeline stages.
func IsValidStage(s Stage) bool {
	switch s {
	case StageSourced, StageScreen, StageDiligence, StageIC, StageInvested, StagePassed:
		return true
	}
	return false
}

// DealStatus is the lifecycle status of a deal. Archiving is a soft
// delete: the row is retained and stays individually fetchable.
type DealStatus string

const (
	DealStatusActive   DealStatus = "active"
	DealStatusArchived DealStatus = "archived"
)

// VoteValue is the position a vote takes on a deal.
type VoteValue string

const (
	VoteApprove VoteValue = "approve"
	VoteDecline VoteValue = "decline"
)

// IsValidVoteValue reports whether v is approve or decline.
func IsValidVoteValue(v VoteValue) bool {
	return v == VoteApprove || v == VoteDecline
}

// Role represents a user role with its permission tags
type Role struct {
	ID             uint      `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	HierarchyLevel int       `json:"hierarchy_level" db:"hierarchy_level"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	Permissions    []string  `json:"permissions" db:"-"` // Loaded from role_permissions
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// User represents a user in the system
type User struct {
	ID           uint      `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	RoleID       *uint     `json:"role_id,omitempty" db:"role_id"`
	Role         *Role     `json:"role,omitempty" db:"-"` // Loaded separately; nil means no role
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Deal represents an investment deal moving through the pipeline
type Deal struct {
	ID         uint       `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	CompanyURL *string    `json:"company_url,omitempty" db:"company_url"`
	OwnerID    uint       `json:"owner_id" db:"owner_id"`
	Owner      *User      `json:"owner,omitempty" db:"-"` // Loaded separately
	Stage      Stage      `json:"stage" db:"stage"`
	Round      *string    `json:"round,omitempty" db:"round"`
	CheckSize  *float64   `json:"check_size,omitempty" db:"check_size"`
	Status     DealStatus `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// MemoSections is the structured free-text payload of an IC memo
// version. Every section defaults to empty text.
type MemoSections struct {
	Summary       string `json:"summary"`
	Market        string `json:"market"`
	Product       string `json:"product"`
	Traction      string `json:"traction"`
	Risks         string `json:"risks"`
	OpenQuestions string `json:"open_questions"`
}

// ICMemo represents one immutable version of a deal's investment
// committee memo. Rows are append-only; an edit is a new row with
// version = previous max + 1.
type ICMemo struct {
	ID        uint         `json:"id" db:"id"`
	DealID    uint         `json:"deal_id" db:"deal_id"`
	Version   int          `json:"version" db:"version"`
	Sections  MemoSections `json:"sections"`
	AuthorID  uint         `json:"author_id" db:"author_id"`
	Author    *User        `json:"author,omitempty" db:"-"` // Loaded separately
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// Comment represents a free-text comment on a deal
type Comment struct {
	ID        uint      `json:"id" db:"id"`
	DealID    uint      `json:"deal_id" db:"deal_id"`
	UserID    uint      `json:"user_id" db:"user_id"`
	User      *User     `json:"user,omitempty" db:"-"` // Loaded separately
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Vote represents a user's position on a deal, unique per (deal, user).
// Re-voting overwrites the existing row.
type Vote struct {
	ID        uint      `json:"id" db:"id"`
	DealID    uint      `json:"deal_id" db:"deal_id"`
	UserID    uint      `json:"user_id" db:"user_id"`
	User      *User     `json:"user,omitempty" db:"-"` // Loaded separately
	Value     VoteValue `json:"value" db:"value"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VoteSummary aggregates the votes on a deal
type VoteSummary struct {
	TotalVotes int `json:"total_votes"`
	Approve    int `json:"approve"`
	Decline    int `json:"decline"`
}

// Activity represents one append-only audit trail entry for a deal.
// Activities are written in the same transaction as the mutation they
// describe and are never updated or deleted.
type Activity struct {
	ID          uint      `json:"id" db:"id"`
	DealID      uint      `json:"deal_id" db:"deal_id"`
	UserID      uint      `json:"user_id" db:"user_id"`
	User        *User     `json:"user,omitempty" db:"-"` // Loaded separately
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Session tracks the JTIs issued at login so tokens can be revoked
type Session struct {
	ID         uint      `json:"id" db:"id"`
	UserID     uint      `json:"user_id" db:"user_id"`
	AccessJTI  string    `json:"access_jti" db:"access_jti"`
	RefreshJTI string    `json:"refresh_jti" db:"refresh_jti"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
