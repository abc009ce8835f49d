package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/geocoder89/supplylens/internal/auth"
	"github.com/geocoder89/supplylens/internal/domain/user"
	"github.com/geocoder89/supplylens/internal/http/handlers"
	"github.com/geocoder89/supplylens/internal/security"
)

// fakeUserStore lets each test override only the calls it cares about.
type fakeUserStore struct {
	createFn     func(ctx context.Context, email, hash string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	getByIDFn    func(ctx context.Context, id string) (user.User, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (f *fakeUserStore) Create(ctx context.Context, email, hash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, hash)
	}
	return user.New(email, hash), nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, h)
	return r
}

func postJSON(r *gin.Engine, path string, body any) (*httptest.ResponseRecorder, apiResponse) {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func newAuthHandler(store handlers.UserStore) (*handlers.AuthHandler, *security.Hasher) {
	hasher := security.NewHasher(bcrypt.MinCost)
	tokens := auth.NewManager("auth-handler-secret", time.Minute, time.Hour)
	h, err := handlers.NewAuthHandler(store, tokens, hasher, nil)
	if err != nil {
		panic(err)
	}
	return h, hasher
}

// recordingHasher wraps a real hasher and remembers the digests Verify saw.
type recordingHasher struct {
	*security.Hasher
	hashErr  error
	verified []string
}

func (r *recordingHasher) Hash(plain string) (string, error) {
	if r.hashErr != nil {
		return "", r.hashErr
	}
	return r.Hasher.Hash(plain)
}

func (r *recordingHasher) Verify(plain, digest string) bool {
	r.verified = append(r.verified, digest)
	return r.Hasher.Verify(plain, digest)
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name        string
		store       *fakeUserStore
		wantStatus  int
		wantSuccess bool
		wantCode    string
	}{
		{
			name:        "created",
			store:       &fakeUserStore{},
			wantStatus:  http.StatusOK,
			wantSuccess: true,
		},
		{
			name: "email already registered",
			store: &fakeUserStore{getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
				return user.New(email, "x"), nil
			}},
			wantStatus: http.StatusOK,
			wantCode:   "AUTH_USER_EXISTS",
		},
		{
			name: "lost the unique index race",
			store: &fakeUserStore{createFn: func(context.Context, string, string) (user.User, error) {
				return user.User{}, user.ErrEmailTaken
			}},
			wantStatus: http.StatusOK,
			wantCode:   "AUTH_USER_EXISTS",
		},
		{
			name: "store failure",
			store: &fakeUserStore{createFn: func(context.Context, string, string) (user.User, error) {
				return user.User{}, errors.New("db down")
			}},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newAuthHandler(tt.store)
			r := setupRouter(http.MethodPost, "/register", h.Register)

			w, resp := postJSON(r, "/register", map[string]string{"email": "new@example.com", "password": "Str0ng-Passw0rd"})

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if resp.Success != tt.wantSuccess {
				t.Fatalf("success = %v body=%s", resp.Success, w.Body.String())
			}
			if tt.wantCode != "" && (resp.Error == nil || resp.Error.Code != tt.wantCode) {
				t.Fatalf("code mismatch: %s", w.Body.String())
			}
		})
	}
}

func TestRegister_StoresHashNotPassword(t *testing.T) {
	var stored string
	store := &fakeUserStore{createFn: func(ctx context.Context, email, hash string) (user.User, error) {
		stored = hash
		return user.New(email, hash), nil
	}}

	h, hasher := newAuthHandler(store)
	r := setupRouter(http.MethodPost, "/register", h.Register)

	w, resp := postJSON(r, "/register", map[string]string{"email": "new@example.com", "password": "Str0ng-Passw0rd"})
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("register failed: %s", w.Body.String())
	}

	if stored == "" || stored == "Str0ng-Passw0rd" || !hasher.Verify("Str0ng-Passw0rd", stored) {
		t.Fatalf("store received %q", stored)
	}
	if bytes.Contains(w.Body.Bytes(), []byte(stored)) {
		t.Fatalf("hash leaked in response")
	}
}

func TestLogin(t *testing.T) {
	hasher := security.NewHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("Str0ng-Passw0rd")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	known := user.New("known@example.com", hash)

	store := &fakeUserStore{getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
		if email == known.Email {
			return known, nil
		}
		return user.User{}, user.ErrNotFound
	}}

	h, _ := newAuthHandler(store)
	r := setupRouter(http.MethodPost, "/login", h.Login)

	w, resp := postJSON(r, "/login", map[string]string{"email": known.Email, "password": "Str0ng-Passw0rd"})
	if w.Code != http.StatusOK || !resp.Success || resp.Message == nil || *resp.Message != "Login successful" {
		t.Fatalf("login: %s", w.Body.String())
	}

	for _, creds := range []map[string]string{
		{"email": known.Email, "password": "wrong"},
		{"email": "ghost@example.com", "password": "Str0ng-Passw0rd"},
	} {
		w, resp = postJSON(r, "/login", creds)
		if w.Code != http.StatusOK || resp.Success || resp.Error.Code != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("bad creds %v: %s", creds, w.Body.String())
		}
	}
}

func TestNewAuthHandler_HashFailure(t *testing.T) {
	hasher := &recordingHasher{Hasher: security.NewHasher(bcrypt.MinCost), hashErr: errors.New("entropy exhausted")}
	tokens := auth.NewManager("auth-handler-secret", time.Minute, time.Hour)

	h, err := handlers.NewAuthHandler(&fakeUserStore{}, tokens, hasher, nil)
	if err == nil || h != nil {
		t.Fatalf("expected constructor error, got handler=%v err=%v", h, err)
	}
}

func TestLogin_UnknownEmailStillVerifies(t *testing.T) {
	hasher := &recordingHasher{Hasher: security.NewHasher(bcrypt.MinCost)}
	tokens := auth.NewManager("auth-handler-secret", time.Minute, time.Hour)
	store := &fakeUserStore{getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
		return user.User{}, user.ErrNotFound
	}}

	h, err := handlers.NewAuthHandler(store, tokens, hasher, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	r := setupRouter(http.MethodPost, "/login", h.Login)

	w, resp := postJSON(r, "/login", map[string]string{"email": "ghost@example.com", "password": "Str0ng-Passw0rd"})
	if w.Code != http.StatusOK || resp.Success {
		t.Fatalf("unexpected: %s", w.Body.String())
	}

	if len(hasher.verified) != 1 {
		t.Fatalf("expected one bcrypt comparison, got %d", len(hasher.verified))
	}
	if _, err := bcrypt.Cost([]byte(hasher.verified[0])); err != nil {
		t.Fatalf("unknown email compared against an invalid digest %q: %v", hasher.verified[0], err)
	}
}
