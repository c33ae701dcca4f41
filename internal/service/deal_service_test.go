package service_test

import (
	"database/sql"
	"errors"
	"testing"

	"dealdesk/internal/models"
	"dealdesk/internal/repository"
	"dealdesk/internal/service"
	"dealdesk/internal/testutil"
)

type testEnv struct {
	containers *testutil.TestContainers
	fixtures   *testutil.Fixtures
	db         *sql.DB

	authSvc   *service.AuthService
	userSvc   *service.UserService
	dealSvc   *service.DealService
	memoSvc   *service.MemoService
	collabSvc *service.CollaborationService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	containers := testutil.SetupTestContainers(t)
	t.Cleanup(func() { containers.Cleanup(t) })

	fixtures := testutil.SetupFixtures(t, containers.DB)

	userRepo := repository.NewUserRepository(containers.DB)
	roleRepo := repository.NewRoleRepository(containers.DB)
	sessionRepo := repository.NewSessionRepository(containers.DB)
	dealRepo := repository.NewDealRepository(containers.DB)
	memoRepo := repository.NewMemoRepository(containers.DB)
	commentRepo := repository.NewCommentRepository(containers.DB)
	voteRepo := repository.NewVoteRepository(containers.DB)
	activityRepo := repository.NewActivityRepository(containers.DB)

	authHelper := testutil.NewAuthHelper(containers.DB)

	return &testEnv{
		containers: containers,
		fixtures:   fixtures,
		db:         containers.DB,
		authSvc:    service.NewAuthService(userRepo, roleRepo, sessionRepo, authHelper.Service),
		userSvc:    service.NewUserService(userRepo, roleRepo),
		dealSvc:    service.NewDealService(containers.DB, dealRepo, activityRepo),
		memoSvc:    service.NewMemoService(containers.DB, dealRepo, memoRepo, activityRepo),
		collabSvc:  service.NewCollaborationService(dealRepo, commentRepo, voteRepo),
	}
}

// activityDescriptions returns a deal's activity entries oldest first
func (e *testEnv) activityDescriptions(t *testing.T, dealID uint) []string {
	t.Helper()

	rows, err := e.db.Query("SELECT description FROM activities WHERE deal_id = $1 ORDER BY id", dealID)
	if err != nil {
		t.Fatalf("Failed to query activities: %v", err)
	}
	defer rows.Close()

	var descriptions []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			t.Fatalf("Failed to scan activity: %v", err)
		}
		descriptions = append(descriptions, d)
	}
	return descriptions
}

func TestCreateDeal(t *testing.T) {
	env := setupEnv(t)

	deal, err := env.dealSvc.CreateDeal(env.fixtures.AnalystUser, "Acme Robotics", nil, nil, nil)
	if err != nil {
		t.Fatalf("CreateDeal failed: %v", err)
	}

	if deal.Stage != models.StageSourced {
		t.Errorf("Expected stage %s, got %s", models.StageSourced, deal.Stage)
	}
	if deal.Status != models.DealStatusActive {
		t.Errorf("Expected status %s, got %s", models.DealStatusActive, deal.Status)
	}
	if deal.OwnerID != env.fixtures.AnalystUser.ID {
		t.Errorf("Expected owner %d, got %d", env.fixtures.AnalystUser.ID, deal.OwnerID)
	}

	descriptions := env.activityDescriptions(t, deal.ID)
	if len(descriptions) != 1 || descriptions[0] != "created deal 'Acme Robotics'" {
		t.Errorf("Expected creation activity, got %v", descriptions)
	}
}

func TestCreateDealPartnerForbidden(t *testing.T) {
	env := setupEnv(t)

	_, err := env.dealSvc.CreateDeal(env.fixtures.PartnerUser, "Acme Robotics", nil, nil, nil)
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
}

func TestUpdateDealFields(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	name := "Acme Robotics Inc"
	checkSize := 2_500_000.0
	updated, err := env.dealSvc.UpdateDealFields(env.fixtures.AnalystUser, deal.ID, service.DealPatch{
		Name:      &name,
		CheckSize: &checkSize,
	})
	if err != nil {
		t.Fatalf("UpdateDealFields failed: %v", err)
	}
	if updated.Name != name {
		t.Errorf("Expected name %q, got %q", name, updated.Name)
	}
	if updated.CheckSize == nil || *updated.CheckSize != checkSize {
		t.Errorf("Expected check size %v, got %v", checkSize, updated.CheckSize)
	}

	descriptions := env.activityDescriptions(t, deal.ID)
	if len(descriptions) != 1 || descriptions[0] != "updated name, check_size" {
		t.Errorf("Expected field update activity, got %v", descriptions)
	}
}

func TestUpdateDealFieldsAdminEditsAnyDeal(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	round := "Series A"
	if _, err := env.dealSvc.UpdateDealFields(env.fixtures.AdminUser, deal.ID, service.DealPatch{Round: &round}); err != nil {
		t.Fatalf("Admin update failed: %v", err)
	}
}

func TestUpdateDealFieldsNonOwnerForbidden(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AdminUser.ID, "Acme Robotics")

	name := "Renamed"
	_, err := env.dealSvc.UpdateDealFields(env.fixtures.AnalystUser, deal.ID, service.DealPatch{Name: &name})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
}

func TestUpdateDealFieldsMissingDealNotFound(t *testing.T) {
	env := setupEnv(t)

	// The missing deal wins over the permission check, even for a
	// caller who could never edit it.
	name := "Renamed"
	_, err := env.dealSvc.UpdateDealFields(env.fixtures.PartnerUser, 9999, service.DealPatch{Name: &name})
	if !errors.Is(err, repository.ErrDealNotFound) {
		t.Fatalf("Expected ErrDealNotFound, got %v", err)
	}
}

func TestUpdateDealFieldsEmptyPatch(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	updated, err := env.dealSvc.UpdateDealFields(env.fixtures.AnalystUser, deal.ID, service.DealPatch{})
	if err != nil {
		t.Fatalf("Empty patch failed: %v", err)
	}
	if updated.Name != deal.Name {
		t.Errorf("Deal changed by empty patch")
	}

	if descriptions := env.activityDescriptions(t, deal.ID); len(descriptions) != 0 {
		t.Errorf("Empty patch must not write activity, got %v", descriptions)
	}
}

func TestTransitionStage(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	// Partners hold no edit rights but may still move deals.
	updated, err := env.dealSvc.TransitionStage(env.fixtures.PartnerUser, deal.ID, models.StageDiligence)
	if err != nil {
		t.Fatalf("TransitionStage failed: %v", err)
	}
	if updated.Stage != models.StageDiligence {
		t.Errorf("Expected stage %s, got %s", models.StageDiligence, updated.Stage)
	}

	// Moving to the current stage is allowed and still recorded.
	if _, err := env.dealSvc.TransitionStage(env.fixtures.AdminUser, deal.ID, models.StageDiligence); err != nil {
		t.Fatalf("Same-stage transition failed: %v", err)
	}

	descriptions := env.activityDescriptions(t, deal.ID)
	expected := []string{
		"moved 'Acme Robotics' from Sourced to Diligence",
		"moved 'Acme Robotics' from Diligence to Diligence",
	}
	if len(descriptions) != len(expected) {
		t.Fatalf("Expected %d activities, got %v", len(expected), descriptions)
	}
	for i, want := range expected {
		if descriptions[i] != want {
			t.Errorf("Activity %d: expected %q, got %q", i, want, descriptions[i])
		}
	}
}

func TestTransitionStageInvalid(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	_, err := env.dealSvc.TransitionStage(env.fixtures.AdminUser, deal.ID, models.Stage("Incubating"))
	if !errors.Is(err, service.ErrInvalidStage) {
		t.Fatalf("Expected ErrInvalidStage, got %v", err)
	}

	// Deal and activity log stay untouched.
	current, err := env.dealSvc.GetDeal(deal.ID)
	if err != nil {
		t.Fatalf("GetDeal failed: %v", err)
	}
	if current.Stage != models.StageSourced {
		t.Errorf("Stage changed by invalid transition: %s", current.Stage)
	}
	if descriptions := env.activityDescriptions(t, deal.ID); len(descriptions) != 0 {
		t.Errorf("Invalid transition must not write activity, got %v", descriptions)
	}
}

func TestArchiveDeal(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	if _, err := env.dealSvc.ArchiveDeal(env.fixtures.AnalystUser, deal.ID); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for analyst, got %v", err)
	}

	archived, err := env.dealSvc.ArchiveDeal(env.fixtures.AdminUser, deal.ID)
	if err != nil {
		t.Fatalf("ArchiveDeal failed: %v", err)
	}
	if archived.Status != models.DealStatusArchived {
		t.Errorf("Expected status %s, got %s", models.DealStatusArchived, archived.Status)
	}

	// Archived deals disappear from the active listing but remain
	// fetchable by ID.
	deals, err := env.dealSvc.ListActiveDeals()
	if err != nil {
		t.Fatalf("ListActiveDeals failed: %v", err)
	}
	for _, d := range deals {
		if d.ID == deal.ID {
			t.Errorf("Archived deal still listed as active")
		}
	}

	fetched, err := env.dealSvc.GetDeal(deal.ID)
	if err != nil {
		t.Fatalf("GetDeal after archive failed: %v", err)
	}
	if fetched.Status != models.DealStatusArchived {
		t.Errorf("Expected archived status, got %s", fetched.Status)
	}

	descriptions := env.activityDescriptions(t, deal.ID)
	if len(descriptions) != 1 || descriptions[0] != "archived deal 'Acme Robotics'" {
		t.Errorf("Expected archive activity, got %v", descriptions)
	}
}

func TestArchiveDealPermissionBeforeExistence(t *testing.T) {
	env := setupEnv(t)

	if _, err := env.dealSvc.ArchiveDeal(env.fixtures.PartnerUser, 9999); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for non-admin on missing deal, got %v", err)
	}
	if _, err := env.dealSvc.ArchiveDeal(env.fixtures.AdminUser, 9999); !errors.Is(err, repository.ErrDealNotFound) {
		t.Fatalf("Expected ErrDealNotFound for admin on missing deal, got %v", err)
	}
}

func TestListActiveDealsExpandsOwner(t *testing.T) {
	env := setupEnv(t)
	env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	deals, err := env.dealSvc.ListActiveDeals()
	if err != nil {
		t.Fatalf("ListActiveDeals failed: %v", err)
	}
	if len(deals) != 1 {
		t.Fatalf("Expected 1 deal, got %d", len(deals))
	}
	owner := deals[0].Owner
	if owner == nil || owner.ID != env.fixtures.AnalystUser.ID {
		t.Fatalf("Expected owner expanded, got %+v", owner)
	}
	if owner.Role == nil || owner.Role.Name != "Analyst" {
		t.Errorf("Expected owner role expanded, got %+v", owner.Role)
	}
}

func TestListActivityMissingDeal(t *testing.T) {
	env := setupEnv(t)

	if _, err := env.dealSvc.ListActivity(9999); !errors.Is(err, repository.ErrDealNotFound) {
		t.Fatalf("Expected ErrDealNotFound, got %v", err)
	}
}
