package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/repos/testutil"
	"github.com/prodmanhq/prodman-backend/internal/types"
	"github.com/prodmanhq/prodman-backend/internal/utils"
)

func newUserHarness(t *testing.T) (UserService, *gorm.DB) {
	t.Helper()

	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(tx, log)
	service := NewUserService(tx, log, userRepo)
	return service, tx
}

func TestUserCreate_DefaultsToWorkerRole(t *testing.T) {
	service, _ := newUserHarness(t)

	suffix := uuid.New().String()[:8]
	user, err := service.Create(context.Background(), CreateUserInput{
		Name:     "Jamie",
		Username: "jamie_" + suffix,
		Email:    "jamie_" + suffix + "@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Role != types.RoleWorker {
		t.Fatalf("expected default role worker, got %q", user.Role)
	}
	if !user.Active {
		t.Fatalf("expected new users active")
	}
	if !utils.CheckPassword(user.Password, "secret123") {
		t.Fatalf("expected password stored hashed")
	}
}

func TestUserCreate_RejectsUnknownRole(t *testing.T) {
	service, _ := newUserHarness(t)

	suffix := uuid.New().String()[:8]
	_, err := service.Create(context.Background(), CreateUserInput{
		Name:     "Jamie",
		Username: "jamie_" + suffix,
		Email:    "jamie_" + suffix + "@example.com",
		Password: "secret123",
		Role:     "superuser",
	})
	if apperrors.Status(err) != 400 {
		t.Fatalf("expected 400 for unknown role, got %v", err)
	}
}

func TestUserUpdate_RequiresFields(t *testing.T) {
	service, tx := newUserHarness(t)

	user := testutil.SeedUser(t, tx, types.RoleWorker)
	_, err := service.Update(context.Background(), user.ID, UpdateUserInput{})
	if apperrors.Status(err) != 400 {
		t.Fatalf("expected 400 for empty update, got %v", err)
	}
}

func TestUserUpdate_UnknownUserIsNotFound(t *testing.T) {
	service, _ := newUserHarness(t)

	name := "Nobody"
	_, err := service.Update(context.Background(), uuid.New(), UpdateUserInput{Name: &name})
	if apperrors.Status(err) != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestUpdateCredentials_VerifiesCurrentPassword(t *testing.T) {
	service, tx := newUserHarness(t)

	user := testutil.SeedUser(t, tx, types.RoleWorker)

	_, err := service.UpdateCredentials(context.Background(), user.ID, CredentialsInput{
		CurrentPassword: "not the password",
		Password:        "newsecret",
	})
	if apperrors.Status(err) != 401 {
		t.Fatalf("expected 401 for wrong current password, got %v", err)
	}

	updated, err := service.UpdateCredentials(context.Background(), user.ID, CredentialsInput{
		CurrentPassword: "secret123",
		Password:        "newsecret",
	})
	if err != nil {
		t.Fatalf("update credentials: %v", err)
	}
	if !utils.CheckPassword(updated.Password, "newsecret") {
		t.Fatalf("expected new password stored")
	}
}

func TestUpdateCredentials_RequiresEmailOrPassword(t *testing.T) {
	service, tx := newUserHarness(t)

	user := testutil.SeedUser(t, tx, types.RoleWorker)
	_, err := service.UpdateCredentials(context.Background(), user.ID, CredentialsInput{
		CurrentPassword: "secret123",
	})
	if apperrors.Status(err) != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestActiveWorkers_ExcludesAdminsAndInactive(t *testing.T) {
	service, tx := newUserHarness(t)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	testutil.SeedUser(t, tx, types.RoleAdmin)
	inactive := testutil.SeedUser(t, tx, types.RoleWorker)
	if err := tx.Model(&types.User{}).Where("id = ?", inactive.ID).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate worker: %v", err)
	}

	workers, err := service.ActiveWorkers(context.Background())
	if err != nil {
		t.Fatalf("active workers: %v", err)
	}
	found := false
	for _, view := range workers {
		if view.ID == inactive.ID {
			t.Fatalf("inactive worker listed")
		}
		if view.ID == worker.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected active worker listed")
	}
}

func TestUserList_SearchPagination(t *testing.T) {
	service, tx := newUserHarness(t)

	marker := uuid.New().String()[:8]
	for i := 0; i < 2; i++ {
		user := testutil.SeedUser(t, tx, types.RoleWorker)
		if err := tx.Model(&types.User{}).Where("id = ?", user.ID).Update("name", "Search "+marker).Error; err != nil {
			t.Fatalf("rename user: %v", err)
		}
	}

	page, err := service.List(context.Background(), ListUsersInput{Search: marker, Limit: 1, Page: 2})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(page.Data) != 1 {
		t.Fatalf("expected one user on page 2, got %d", len(page.Data))
	}
	if page.NextPage != nil {
		t.Fatalf("expected no next page")
	}
	if page.PrevPage == nil || *page.PrevPage != 1 {
		t.Fatalf("expected prevPage=1")
	}
}
