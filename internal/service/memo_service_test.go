package service_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"dealdesk/internal/models"
	"dealdesk/internal/repository"
	"dealdesk/internal/service"
)

func TestSaveMemoVersionsAreContiguous(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	for i := 1; i <= 3; i++ {
		memo, err := env.memoSvc.SaveMemoVersion(env.fixtures.AnalystUser, deal.ID, models.MemoSections{
			Summary: fmt.Sprintf("Draft %d", i),
		})
		if err != nil {
			t.Fatalf("SaveMemoVersion %d failed: %v", i, err)
		}
		if memo.Version != i {
			t.Errorf("Expected version %d, got %d", i, memo.Version)
		}
	}

	latest, err := env.memoSvc.GetLatestMemo(deal.ID)
	if err != nil {
		t.Fatalf("GetLatestMemo failed: %v", err)
	}
	if latest.Version != 3 || latest.Sections.Summary != "Draft 3" {
		t.Errorf("Expected latest version 3 with Draft 3, got %d %q", latest.Version, latest.Sections.Summary)
	}

	// Earlier versions stay readable exactly as written.
	second, err := env.memoSvc.GetMemoVersion(deal.ID, 2)
	if err != nil {
		t.Fatalf("GetMemoVersion failed: %v", err)
	}
	if second.Sections.Summary != "Draft 2" {
		t.Errorf("Expected Draft 2, got %q", second.Sections.Summary)
	}

	descriptions := env.activityDescriptions(t, deal.ID)
	expected := []string{
		"saved IC Memo version 1",
		"saved IC Memo version 2",
		"saved IC Memo version 3",
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

func TestSaveMemoVersionPartnerForbidden(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	_, err := env.memoSvc.SaveMemoVersion(env.fixtures.PartnerUser, deal.ID, models.MemoSections{})
	if !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
}

func TestSaveMemoVersionMissingDeal(t *testing.T) {
	env := setupEnv(t)

	_, err := env.memoSvc.SaveMemoVersion(env.fixtures.AnalystUser, 9999, models.MemoSections{})
	if !errors.Is(err, repository.ErrDealNotFound) {
		t.Fatalf("Expected ErrDealNotFound, got %v", err)
	}
}

func TestSaveMemoVersionConcurrent(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.memoSvc.SaveMemoVersion(env.fixtures.AnalystUser, deal.ID, models.MemoSections{}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent save failed: %v", err)
	}

	memos, err := env.memoSvc.ListMemoVersions(deal.ID)
	if err != nil {
		t.Fatalf("ListMemoVersions failed: %v", err)
	}
	if len(memos) != writers {
		t.Fatalf("Expected %d versions, got %d", writers, len(memos))
	}

	// Versions must come out contiguous from 1 with no gaps, whatever
	// order the writers ran in. The listing is newest first.
	for i, memo := range memos {
		if want := writers - i; memo.Version != want {
			t.Errorf("Position %d: expected version %d, got %d", i, want, memo.Version)
		}
	}
}

func TestGetLatestMemoEmpty(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	if _, err := env.memoSvc.GetLatestMemo(deal.ID); !errors.Is(err, repository.ErrMemoNotFound) {
		t.Fatalf("Expected ErrMemoNotFound, got %v", err)
	}
}

func TestGetMemoVersionMissing(t *testing.T) {
	env := setupEnv(t)
	deal := env.fixtures.CreateDeal(t, env.fixtures.AnalystUser.ID, "Acme Robotics")

	if _, err := env.memoSvc.SaveMemoVersion(env.fixtures.AdminUser, deal.ID, models.MemoSections{}); err != nil {
		t.Fatalf("SaveMemoVersion failed: %v", err)
	}

	if _, err := env.memoSvc.GetMemoVersion(deal.ID, 7); !errors.Is(err, repository.ErrMemoNotFound) {
		t.Fatalf("Expected ErrMemoNotFound, got %v", err)
	}
}
