package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/car-catalog/backend/internal/models"
	"github.com/ayush/car-catalog/backend/internal/store"
)

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, username, email, hashed string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[email]; ok {
		return nil, store.ErrAlreadyExists
	}
	u := &models.User{ID: "id-" + username, Username: username, Email: email, Password: hashed, CreatedAt: time.Now()}
	f.byEmail[email] = u
	out := *u
	out.Password = ""
	return &out, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			out := *u
			out.Password = ""
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeRevoker struct {
	revoked map[string]time.Time
}

func (f *fakeRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	f.revoked[id] = until
	return nil
}

func newTestHandler() (*Handler, *fakeRevoker) {
	rev := &fakeRevoker{revoked: map[string]time.Time{}}
	tm := NewTokenManager("secret", "car-catalog", time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(newFakeUsers(), tm, rev, log), rev
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := newTestHandler()

	rec := post(h.Register, `{"username":"u1","email":" U1@Example.com ","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "u1@example.com", user.Email)

	rec = post(h.Login, `{"email":"u1@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, user.ID, login.User.ID)

	claims, err := h.tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
}

func TestRegister_Validation(t *testing.T) {
	h, _ := newTestHandler()

	for _, body := range []string{
		`{`,
		`{"username":"","email":"a@example.com","password":"secret1"}`,
		`{"username":"u","email":"not-an-email","password":"secret1"}`,
		`{"username":"u","email":"a@example.com","password":"short"}`,
	} {
		rec := post(h.Register, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	h, _ := newTestHandler()
	body := `{"username":"u1","email":"u1@example.com","password":"hunter22"}`

	require.Equal(t, http.StatusCreated, post(h.Register, body).Code)
	assert.Equal(t, http.StatusConflict, post(h.Register, body).Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h, _ := newTestHandler()
	require.Equal(t, http.StatusCreated, post(h.Register, `{"username":"u1","email":"u1@example.com","password":"hunter22"}`).Code)

	assert.Equal(t, http.StatusUnauthorized, post(h.Login, `{"email":"u1@example.com","password":"wrong-pass"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(h.Login, `{"email":"nobody@example.com","password":"hunter22"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h.Login, `{"email":""}`).Code)
}

func TestMeAndLogout(t *testing.T) {
	h, rev := newTestHandler()
	require.Equal(t, http.StatusCreated, post(h.Register, `{"username":"u1","email":"u1@example.com","password":"hunter22"}`).Code)

	user, err := h.users.GetUserByEmail(context.Background(), "u1@example.com")
	require.NoError(t, err)
	tok, err := h.tokens.Generate(user)
	require.NoError(t, err)
	claims, err := h.tokens.Verify(tok)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(NewContext(req.Context(), claims))
	rec := httptest.NewRecorder()
	h.Me(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"u1@example.com"`)

	rec = httptest.NewRecorder()
	h.Logout(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rev.revoked, claims.ID)
}

func TestMe_WithoutClaims(t *testing.T) {
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
