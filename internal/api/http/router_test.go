package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/trafficwatch/problem-service/internal/api/http/handlers"
	"github.com/trafficwatch/problem-service/internal/auth"
	"github.com/trafficwatch/problem-service/internal/config"
	"github.com/trafficwatch/problem-service/internal/domain"
	"github.com/trafficwatch/problem-service/internal/observability"
	"github.com/trafficwatch/problem-service/internal/report"
	"github.com/trafficwatch/problem-service/internal/service"
	"github.com/trafficwatch/problem-service/internal/storage"
)

type memUsers struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

type memProblems struct {
	items []domain.Problem
}

// encodeID mirrors the driver: a value that is not a uuid cannot be bound to
// the uuid column and fails with a generic error, not ErrNoRows.
func encodeID(id string) error {
	if uuid.Validate(id) != nil {
		return fmt.Errorf("unable to encode %q into uuid format", id)
	}
	return nil
}

func (r *memProblems) Create(_ context.Context, p *domain.Problem) error {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.items = append(r.items, *p)
	return nil
}

func (r *memProblems) Update(_ context.Context, p *domain.Problem) error {
	for i := range r.items {
		if r.items[i].ID == p.ID && r.items[i].UserID == p.UserID {
			r.items[i] = *p
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memProblems) GetForOwner(_ context.Context, ownerID, id string) (*domain.Problem, error) {
	if err := encodeID(id); err != nil {
		return nil, err
	}
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == ownerID {
			p := r.items[i]
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memProblems) ListByOwner(_ context.Context, ownerID string, status *domain.ProblemStatus) ([]domain.Problem, error) {
	var out []domain.Problem
	for i := len(r.items) - 1; i >= 0; i-- {
		p := r.items[i]
		if p.UserID != ownerID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memProblems) DeleteForOwner(_ context.Context, ownerID, id string) error {
	if err := encodeID(id); err != nil {
		return err
	}
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == ownerID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func newTestApp(t *testing.T) (*fiber.App, *observability.Metrics) {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 30,
			BcryptCost:            4,
		},
	}

	users := newMemUsers()
	problems := &memProblems{}

	store, err := storage.NewStore(config.StorageConfig{
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	authService := service.NewAuthService(cfg, users)
	problemService := service.NewProblemService(problems, nil)
	generator := report.NewGenerator(problems, store, config.ReportConfig{}, zap.NewNop())

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{Logger: zap.NewNop(), Metrics: metrics})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", nil, nil),
		Users:          handlers.NewUsersHandler(authService),
		Problems:       handlers.NewProblemsHandler(problemService),
		Reports:        handlers.NewReportsHandler(generator),
		Uploads:        handlers.NewUploadsHandler(store),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
		UploadsDir:     store.Dir(),
		CreateLimiter:  RateLimiter(nil, "ratelimit:problems", 0, time.Hour),
		ReportLimiter:  RateLimiter(nil, "ratelimit:reports", 0, time.Hour),
	})
	return app, metrics
}

func registerAndLogin(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"lozinka123"}`, email)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	var parsed struct {
		Data struct {
			Auth struct {
				Token string `json:"token"`
			} `json:"auth"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if parsed.Data.Auth.Token == "" {
		t.Fatal("register returned no token")
	}
	return parsed.Data.Auth.Token
}

func authedRequest(method, target, token, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	app, metrics := newTestApp(t)

	for _, target := range []string{"/problems", "/reports/problems"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		if err != nil {
			t.Fatalf("%s: %v", target, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", target, resp.StatusCode)
		}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("%s decode: %v", target, err)
		}
		if body.Error != "Morate biti ulogovani" {
			t.Errorf("%s error = %q", target, body.Error)
		}
		if got := metrics.RequestTotal(target, http.MethodGet, http.StatusUnauthorized); got != 1 {
			t.Errorf("%s request counter = %d, want 1", target, got)
		}
	}
}

func TestMalformedIDIsNotFound(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerAndLogin(t, app, "ana@example.com")

	requests := []*http.Request{
		authedRequest(http.MethodGet, "/problems/abc", token, ""),
		authedRequest(http.MethodPut, "/problems/abc", token, `{"title":"novo"}`),
		authedRequest(http.MethodDelete, "/problems/abc", token, ""),
	}
	for _, req := range requests {
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", req.Method, req.URL.Path, resp.StatusCode)
		}
	}
}

func TestProblemLifecycleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerAndLogin(t, app, "ana@example.com")

	createBody := `{"title":"Rupa kod škole","problemType":"Rupe na putu","latitude":44.8,"longitude":20.46}`
	resp, err := app.Test(authedRequest(http.MethodPost, "/problems", token, createBody))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if created.Data.Status != "prijavljeno" {
		t.Errorf("default status = %q", created.Data.Status)
	}

	resp, err = app.Test(authedRequest(http.MethodGet, "/problems/"+created.Data.ID, token, ""))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}

	// another user must see NotFound, never the record
	otherToken := registerAndLogin(t, app, "boban@example.com")
	resp, err = app.Test(authedRequest(http.MethodGet, "/problems/"+created.Data.ID, otherToken, ""))
	if err != nil {
		t.Fatalf("cross-user get: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-user get status = %d, want 404", resp.StatusCode)
	}

	resp, err = app.Test(authedRequest(http.MethodDelete, "/problems/"+created.Data.ID, token, ""))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
}

func TestReportEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerAndLogin(t, app, "ana@example.com")

	resp, err := app.Test(authedRequest(http.MethodGet, "/reports/problems?status=bogus", token, ""))
	if err != nil {
		t.Fatalf("invalid filter: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid filter status = %d, want 400", resp.StatusCode)
	}

	resp, err = app.Test(authedRequest(http.MethodGet, "/reports/problems", token, ""))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	disposition := resp.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "report_all_") || !strings.Contains(disposition, ".pdf") {
		t.Errorf("content disposition = %q", disposition)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("response body is not a PDF document")
	}
}
