package service_test

import (
	"errors"
	"testing"

	"dealdesk/internal/models"
	"dealdesk/internal/repository"
	"dealdesk/internal/service"
)

func TestAddComment(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	// Every role may comment, partners included.
	comment, err := env.collabSvc.AddComment(env.fixtures.PartnerUser, deal.ID, "Strong founding team")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if comment.Content != "Strong founding team" {
		t.Errorf("Unexpected content %q", comment.Content)
	}

	comments, err := env.collabSvc.ListComments(deal.ID)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(comments))
	}
	if comments[0].User == nil || comments[0].User.ID != env.fixtures.PartnerUser.ID {
		t.Errorf("Expected commenter expanded, got %+v", comments[0].User)
	}

	// Comments never touch the activity log.
	if descriptions := env.activityDescriptions(t, deal.ID); len(descriptions) != 0 {
		t.Errorf("Comment must not write activity, got %v", descriptions)
	}
}

func TestAddCommentMissingDeal(t *testing.T) {
	env := setupEnv(t)

	if _, err := env.collabSvc.AddComment(env.fixtures.AdminUser, 9999, "hello"); !errors.Is(err, repository.ErrDealNotFound) {
		t.Fatalf("Expected ErrDealNotFound, got %v", err)
	}
}

func TestCastVoteUpsert(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	vote, err := env.collabSvc.CastVote(env.fixtures.PartnerUser, deal.ID, models.VoteApprove, "")
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if vote.Value != models.VoteApprove {
		t.Errorf("Expected approve, got %s", vote.Value)
	}

	summary, err := env.collabSvc.VoteSummary(deal.ID)
	if err != nil {
		t.Fatalf("VoteSummary failed: %v", err)
	}
	if summary.TotalVotes != 1 || summary.Approve != 1 || summary.Decline != 0 {
		t.Errorf("Expected 1/1/0, got %+v", summary)
	}

	// Voting again replaces the vote instead of adding one.
	reason := "valuation too rich"
	if _, err := env.collabSvc.CastVote(env.fixtures.PartnerUser, deal.ID, models.VoteDecline, reason); err != nil {
		t.Fatalf("Second CastVote failed: %v", err)
	}

	summary, err = env.collabSvc.VoteSummary(deal.ID)
	if err != nil {
		t.Fatalf("VoteSummary failed: %v", err)
	}
	if summary.TotalVotes != 1 || summary.Approve != 0 || summary.Decline != 1 {
		t.Errorf("Expected 1/0/1 after revote, got %+v", summary)
	}

	votes, err := env.collabSvc.ListVotes(deal.ID)
	if err != nil {
		t.Fatalf("ListVotes failed: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("Expected 1 vote, got %d", len(votes))
	}
	if votes[0].Comment != reason {
		t.Errorf("Expected vote comment %q, got %v", reason, votes[0].Comment)
	}

	// Votes never touch the activity log either.
	if descriptions := env.activityDescriptions(t, deal.ID); len(descriptions) != 0 {
		t.Errorf("Vote must not write activity, got %v", descriptions)
	}
}

func TestCastVoteAdminAllowed(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	if _, err := env.collabSvc.CastVote(env.fixtures.AdminUser, deal.ID, models.VoteApprove, ""); err != nil {
		t.Fatalf("Admin CastVote failed: %v", err)
	}
}

func TestCastVoteAnalystForbidden(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	_, err := env.collabSvc.CastVote(env.fixtures.AnalystUser, deal.ID, models.VoteApprove, "")
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
}

func TestCastVoteInvalidValue(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	_, err := env.collabSvc.CastVote(env.fixtures.PartnerUser, deal.ID, models.VoteValue("abstain"), "")
	if !errors.Is(err, service.ErrInvalidVoteValue) {
		t.Fatalf("Expected ErrInvalidVoteValue, got %v", err)
	}
}

func TestVoteSummaryMissingDeal(t *testing.T) {
	env := setupEnv(t)

	if _, err := env.collabSvc.VoteSummary(9999); !errors.Is(err, repository.ErrDealNotFound) {
		t.Fatalf("Expected ErrDealNotFound, got %v", err)
	}
}
