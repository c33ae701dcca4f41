package service

import "errors"

// Domain failure sentinels. Not-found and conflict conditions surface
// as the repository sentinels (repository.ErrDealNotFound,
// repository.ErrUserExists, ...); everything else lives here.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidStage       = errors.New("invalid stage")
	ErrInvalidVoteValue   = errors.New("invalid vote value")
)
