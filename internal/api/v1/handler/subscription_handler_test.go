package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"app/internal/middleware"
	"app/internal/service"
)

type fakeSubscriptionService struct {
	res *service.ReconcileResult
	err error

	gotIdentity service.Identity
}

func (f *fakeSubscriptionService) Reconcile(_ context.Context, id service.Identity) (*service.ReconcileResult, error) {
	f.gotIdentity = id
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

// injectUser stands in for the auth middleware in tests.
func injectUser(user middleware.AuthUser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func noopMiddleware(next http.Handler) http.Handler { return next }

func doCheckRequest(t *testing.T, svc service.SubscriptionService, user middleware.AuthUser) *httptest.ResponseRecorder {
	t.Helper()
	h := NewSubscriptionHandler(svc, zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, injectUser(user), noopMiddleware)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions/check", nil)
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCheckActive(t *testing.T) {
	tier := "basic"
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.AddDate(0, 1, 0)
	svc := &fakeSubscriptionService{res: &service.ReconcileResult{
		Status: "active",
		Tier:   &tier,
		Start:  &t0,
		End:    &t1,
	}}
	user := middleware.AuthUser{ID: "user-1", Email: "alice@example.com", DiscordUserID: "111"}

	rec := doCheckRequest(t, svc, user)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"subscription_status": "active",
		"subscription_tier": "basic",
		"subscription_start": "2026-08-01T00:00:00Z",
		"subscription_end": "2026-09-01T00:00:00Z"
	}`, rec.Body.String())
	assert.Equal(t, "alice@example.com", svc.gotIdentity.Email)
	assert.Equal(t, "111", svc.gotIdentity.DiscordUserID)
}

func TestCheckPendingNulls(t *testing.T) {
	svc := &fakeSubscriptionService{res: &service.ReconcileResult{Status: "pending"}}
	user := middleware.AuthUser{ID: "user-1", Email: "alice@example.com"}

	rec := doCheckRequest(t, svc, user)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"subscription_status": "pending",
		"subscription_tier": null,
		"subscription_start": null,
		"subscription_end": null
	}`, rec.Body.String())
}

func TestCheckMissingEmail(t *testing.T) {
	svc := &fakeSubscriptionService{res: &service.ReconcileResult{Status: "pending"}}
	user := middleware.AuthUser{ID: "user-1"}

	rec := doCheckRequest(t, svc, user)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckReconcileFailure(t *testing.T) {
	svc := &fakeSubscriptionService{err: errors.New("stripe unavailable")}
	user := middleware.AuthUser{ID: "user-1", Email: "alice@example.com"}

	rec := doCheckRequest(t, svc, user)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{
		"subscription_status": "pending",
		"subscription_tier": null,
		"subscription_start": null,
		"subscription_end": null,
		"error": "stripe unavailable"
	}`, rec.Body.String())
}

func TestCheckMethodNotAllowed(t *testing.T) {
	svc := &fakeSubscriptionService{res: &service.ReconcileResult{Status: "pending"}}
	h := NewSubscriptionHandler(svc, zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, noopMiddleware, noopMiddleware)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/subscriptions/check", nil)
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
