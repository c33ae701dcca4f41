package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"dealdesk/internal/handlers"
	"dealdesk/internal/middleware"
	"dealdesk/internal/models"
	"dealdesk/internal/repository"
	"dealdesk/internal/service"
	"dealdesk/internal/testutil"
)

type apiEnv struct {
	fixtures *testutil.Fixtures
	auth     *testutil.AuthHelper
	router   http.Handler
}

// setupAPI wires the deal routes through the real authentication
// middleware, the way the server does.
func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	containers := testutil.SetupTestContainers(t)
	t.Cleanup(func() { containers.Cleanup(t) })

	fixtures := testutil.SetupFixtures(t, containers.DB)
	authHelper := testutil.NewAuthHelper(containers.DB)

	userRepo := repository.NewUserRepository(containers.DB)
	sessionRepo := repository.NewSessionRepository(containers.DB)
	dealRepo := repository.NewDealRepository(containers.DB)
	memoRepo := repository.NewMemoRepository(containers.DB)
	commentRepo := repository.NewCommentRepository(containers.DB)
	voteRepo := repository.NewVoteRepository(containers.DB)
	activityRepo := repository.NewActivityRepository(containers.DB)

	dealSvc := service.NewDealService(containers.DB, dealRepo, activityRepo)
	memoSvc := service.NewMemoService(containers.DB, dealRepo, memoRepo, activityRepo)
	collabSvc := service.NewCollaborationService(dealRepo, commentRepo, voteRepo)

	dealHandler := handlers.NewDealHandler(dealSvc)
	memoHandler := handlers.NewMemoHandler(memoSvc)
	collabHandler := handlers.NewCollaborationHandler(collabSvc)

	authMw := middleware.NewAuthMiddleware(authHelper.Service, sessionRepo, userRepo)
	protected := func(h http.HandlerFunc) http.Handler {
		return authMw.Authenticate(h)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/deals", protected(dealHandler.List))
	mux.Handle("POST /api/v1/deals", protected(dealHandler.Create))
	mux.Handle("GET /api/v1/deals/{id}", protected(dealHandler.Get))
	mux.Handle("DELETE /api/v1/deals/{id}", protected(dealHandler.Archive))
	mux.Handle("POST /api/v1/deals/{id}/stage", protected(dealHandler.TransitionStage))
	mux.Handle("POST /api/v1/deals/{id}/memos", protected(memoHandler.Save))
	mux.Handle("POST /api/v1/deals/{id}/votes", protected(collabHandler.CastVote))

	return &apiEnv{
		fixtures: fixtures,
		auth:     authHelper,
		router:   mux,
	}
}

func (e *apiEnv) request(t *testing.T, method, url string, body interface{}, user *models.User) *testutil.TestResponse {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, &buf)
	if user != nil {
		e.auth.AddAuthHeader(t, req, user)
	}

	resp := testutil.NewTestResponse()
	e.router.ServeHTTP(resp, req)
	return resp
}

func TestRequestsWithoutTokenRejected(t *testing.T) {
	env := setupAPI(t)

	resp := env.request(t, "GET", "/api/v1/deals", nil, nil)
	resp.AssertStatusUnauthorized(t)
}

func TestDealCreationRoleGate(t *testing.T) {
	env := setupAPI(t)
	body := handlers.CreateDealRequest{Name: "Acme Robotics"}

	resp := env.request(t, "POST", "/api/v1/deals", body, env.fixtures.AnalystUser)
	resp.AssertStatusCreated(t)

	resp = env.request(t, "POST", "/api/v1/deals", body, env.fixtures.PartnerUser)
	resp.AssertStatusForbidden(t)
}

func TestVoteRoleGate(t *testing.T) {
	env := setupAPI(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")
	url := "/api/v1/deals/" + itoa(deal.ID) + "/votes"

	resp := env.request(t, "POST", url, handlers.CastVoteRequest{Value: "approve"}, env.fixtures.PartnerUser)
	resp.AssertStatusOK(t)

	resp = env.request(t, "POST", url, handlers.CastVoteRequest{Value: "approve"}, env.fixtures.AnalystUser)
	resp.AssertStatusForbidden(t)

	resp = env.request(t, "POST", url, handlers.CastVoteRequest{Value: "abstain"}, env.fixtures.PartnerUser)
	resp.AssertStatusBadRequest(t)
}

func TestArchivedDealStillFetchable(t *testing.T) {
	env := setupAPI(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")
	url := "/api/v1/deals/" + itoa(deal.ID)

	resp := env.request(t, "DELETE", url, nil, env.fixtures.AnalystUser)
	resp.AssertStatusForbidden(t)

	resp = env.request(t, "DELETE", url, nil, env.fixtures.AdminUser)
	resp.AssertStatusOK(t)

	resp = env.request(t, "GET", url, nil, env.fixtures.PartnerUser)
	resp.AssertStatusOK(t)

	var fetched models.Deal
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("Failed to decode deal: %v", err)
	}
	if fetched.Status != models.DealStatusArchived {
		t.Errorf("Expected archived status, got %s", fetched.Status)
	}
}

func TestStageAndMemoEndpoints(t *testing.T) {
	env := setupAPI(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	resp := env.request(t, "POST", "/api/v1/deals/"+itoa(deal.ID)+"/stage",
		handlers.TransitionStageRequest{Stage: "IC"}, env.fixtures.PartnerUser)
	resp.AssertStatusOK(t)

	resp = env.request(t, "POST", "/api/v1/deals/"+itoa(deal.ID)+"/stage",
		handlers.TransitionStageRequest{Stage: "Incubating"}, env.fixtures.PartnerUser)
	resp.AssertStatusBadRequest(t)

	resp = env.request(t, "POST", "/api/v1/deals/"+itoa(deal.ID)+"/memos",
		handlers.SaveMemoRequest{Sections: models.MemoSections{Summary: "First pass"}}, env.fixtures.AnalystUser)
	resp.AssertStatusCreated(t)

	var memo models.ICMemo
	if err := json.NewDecoder(resp.Body).Decode(&memo); err != nil {
		t.Fatalf("Failed to decode memo: %v", err)
	}
	if memo.Version != 1 {
		t.Errorf("Expected version 1, got %d", memo.Version)
	}

	resp = env.request(t, "POST", "/api/v1/deals/9999/memos",
		handlers.SaveMemoRequest{}, env.fixtures.AnalystUser)
	resp.AssertStatusNotFound(t)
}

func TestInactiveUserRejected(t *testing.T) {
	env := setupAPI(t)

	// Issue the token first, then deactivate the account. The live
	// token must stop working immediately.
	req := env.auth.CreateAuthenticatedRequest(t, "GET", "/api/v1/deals", env.fixtures.PartnerUser)
	if _, err := env.fixtures.DB.Exec("UPDATE users SET is_active = false WHERE id = $1", env.fixtures.PartnerUser.ID); err != nil {
		t.Fatalf("Failed to deactivate user: %v", err)
	}

	resp := testutil.NewTestResponse()
	env.router.ServeHTTP(resp, req)
	resp.AssertStatusForbidden(t)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
