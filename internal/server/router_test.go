package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/handlers"
	"github.com/prodmanhq/prodman-backend/internal/middleware"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/repos/testutil"
	"github.com/prodmanhq/prodman-backend/internal/services"
	"github.com/prodmanhq/prodman-backend/internal/sessions"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

type fakeSessionStore struct {
	byID map[string]sessions.Session
}

func (s *fakeSessionStore) Create(_ context.Context, sess sessions.Session, _ time.Duration) (string, error) {
	sid := uuid.New().String()
	s.byID[sid] = sess
	return sid, nil
}

func (s *fakeSessionStore) Get(_ context.Context, sid string) (*sessions.Session, error) {
	sess, ok := s.byID[sid]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, sid string) error {
	delete(s.byID, sid)
	return nil
}

func (s *fakeSessionStore) Close() error { return nil }

func newRouterHarness(t *testing.T) (*gin.Engine, *fakeSessionStore, *gorm.DB) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(tx, log)
	taskRepo := repos.NewTaskRepo(tx, log)
	subtaskRepo := repos.NewSubtaskRepo(tx, log)
	eventRepo := repos.NewSubtaskEventRepo(tx, log)
	productRepo := repos.NewProductRepo(tx, log)
	categoryRepo := repos.NewCategoryRepo(tx, log)
	ledger := repos.NewStockLedger(tx, log)
	configRepo := repos.NewConfigRepo(tx, log)

	store := &fakeSessionStore{byID: map[string]sessions.Session{}}

	configService := services.NewConfigService(tx, log, configRepo)
	authService := services.NewAuthService(tx, log, userRepo, configService, store)
	userService := services.NewUserService(tx, log, userRepo)
	productService := services.NewProductService(tx, log, productRepo, categoryRepo)
	taskService := services.NewTaskService(tx, log, taskRepo, subtaskRepo, eventRepo)
	dispatchService := services.NewDispatchService(tx, log, taskRepo, subtaskRepo, configService)
	completionService := services.NewCompletionService(tx, log, taskRepo, subtaskRepo, eventRepo, ledger)
	productionService := services.NewProductionService(tx, log, eventRepo)

	docsHandler, err := handlers.NewDocsHandler("../../docs/openapi.yaml")
	if err != nil {
		t.Fatalf("load openapi document: %v", err)
	}

	router := NewRouter(RouterConfig{
		AuthHandler:       handlers.NewAuthHandler(authService),
		UserHandler:       handlers.NewUserHandler(userService),
		ConfigHandler:     handlers.NewConfigHandler(configService),
		WorkerHandler:     handlers.NewWorkerHandler(dispatchService, completionService, userService),
		TaskHandler:       handlers.NewTaskHandler(taskService),
		ProductHandler:    handlers.NewProductHandler(productService),
		ProductionHandler: handlers.NewProductionHandler(productionService),
		DocsHandler:       docsHandler,
		SessionMiddleware: middleware.NewSessionMiddleware(log, store),
	})
	return router, store, tx
}

func openSession(t *testing.T, store *fakeSessionStore, userID uuid.UUID, role string) *http.Cookie {
	t.Helper()

	sid, err := store.Create(context.Background(), sessions.Session{UserID: userID, Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return &http.Cookie{Name: sessions.CookieName, Value: sid}
}

func TestRouter_ActiveWorkersServedWithoutSession(t *testing.T) {
	router, _, tx := newRouterHarness(t)
	worker := testutil.SeedUser(t, tx, types.RoleWorker)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/worker/active", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without a session, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), worker.Username) {
		t.Fatalf("expected worker %q in body, got %s", worker.Username, rec.Body.String())
	}
}

func TestRouter_NextTaskBodyIsTheTaskItself(t *testing.T) {
	router, store, tx := newRouterHarness(t)
	testutil.SeedConfig(t, tx, types.ConfigKeyWorkerGetNextSubtask, "false", types.ConfigTypeBoolean)

	worker := testutil.SeedUser(t, tx, types.RoleWorker)
	product := testutil.SeedProduct(t, tx, "Bench")
	task := testutil.SeedTask(t, tx, worker, types.TaskStatusPending)
	testutil.SeedSubtask(t, tx, task, product, 0, 5, types.TaskStatusPending)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/worker/task", nil)
	req.AddCookie(openSession(t, store, worker.ID, types.RoleWorker))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["id"] != task.ID.String() {
		t.Fatalf("expected the task as the whole body, got %s", rec.Body.String())
	}
	if _, wrapped := body["task"]; wrapped {
		t.Fatalf("task must not be wrapped in an envelope, got %s", rec.Body.String())
	}
}

func TestRouter_NextTaskIdleWorkerGetsNullBody(t *testing.T) {
	router, store, tx := newRouterHarness(t)
	testutil.SeedConfig(t, tx, types.ConfigKeyWorkerGetNextSubtask, "false", types.ConfigTypeBoolean)
	worker := testutil.SeedUser(t, tx, types.RoleWorker)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/worker/task", nil)
	req.AddCookie(openSession(t, store, worker.ID, types.RoleWorker))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an idle worker, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("expected a null body, got %q", rec.Body.String())
	}
}

func TestRouter_ProductListFilterNames(t *testing.T) {
	router, store, tx := newRouterHarness(t)
	admin := testutil.SeedUser(t, tx, types.RoleAdmin)
	cookie := openSession(t, store, admin.ID, types.RoleAdmin)

	category := testutil.SeedCategory(t, tx, "Seating")
	chair := testutil.SeedProduct(t, tx, "Filter chair")
	table := testutil.SeedProduct(t, tx, "Filter table")
	membership := &types.ProductCategory{ID: uuid.New(), ProductID: chair.ID, CategoryID: category.ID}
	if err := tx.Create(membership).Error; err != nil {
		t.Fatalf("attach category: %v", err)
	}
	retired := testutil.SeedProduct(t, tx, "Filter retired")
	if err := tx.Model(&types.Product{}).Where("id = ?", retired.ID).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate product: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?category="+category.ID.String(), nil)
	req.AddCookie(cookie)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), chair.Name) || strings.Contains(rec.Body.String(), table.Name) {
		t.Fatalf("category filter not applied, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(rec, req)
	if strings.Contains(rec.Body.String(), retired.Name) {
		t.Fatalf("inactive product listed by default, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/products?inactive=true", nil)
	req.AddCookie(cookie)
	router.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), retired.Name) {
		t.Fatalf("inactive filter not honored, got %s", rec.Body.String())
	}
}
