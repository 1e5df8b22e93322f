package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/repository"
	apperrors "github.com/deptevents/event-registration/pkg/util/errorutil"
)

type stubUsers struct {
	users map[int64]*domain.User
}

func (s *stubUsers) Create(context.Context, *domain.User) error { return nil }
func (s *stubUsers) Update(context.Context, *domain.User) error { return nil }
func (s *stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}
func (s *stubUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}
func (s *stubUsers) List(context.Context, repository.UserFilter) ([]domain.User, error) {
	return nil, nil
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	user := &domain.User{ID: 5, Email: "a@gmail.com", Role: domain.UserRoleAdmin}

	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(5), claims.UserID)
	assert.Equal(t, domain.UserRoleAdmin, claims.Role)
	assert.Equal(t, "5", claims.Subject)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	user := &domain.User{ID: 1, Role: domain.UserRoleUser}
	token, _, err := NewTokenManager("one", 5).GenerateToken(user)
	require.NoError(t, err)

	_, err = NewTokenManager("two", 5).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := NewTokenManager("one", 5)
	later.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = later.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordPolicyAndHash(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("12345"), ErrPasswordTooShort)
	assert.NoError(t, ValidatePassword("123456"))

	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.True(t, ComparePassword(hash, "hunter22"))
	assert.False(t, ComparePassword(hash, "hunter23"))
}

func newTestApp(mw *AuthMiddleware, cookie *SessionCookie) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/login", func(c *fiber.Ctx) error {
		return cookie.Write(c, c.Query("token"), time.Now().Add(time.Hour))
	})
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": p.UserID()})
	})
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	app.Get("/maybe", mw.Optional, func(c *fiber.Ctx) error {
		if ViewerID(c) == nil {
			return c.SendString("anonymous")
		}
		return c.SendString("known")
	})
	return app
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	cookie := NewSessionCookie("access_token", "hash-key-for-tests", "", time.Hour, false)
	users := &stubUsers{users: map[int64]*domain.User{
		1: {ID: 1, Role: domain.UserRoleUser, Active: true},
		2: {ID: 2, Role: domain.UserRoleAdmin, Active: true},
		3: {ID: 3, Role: domain.UserRoleUser, Active: false},
	}}
	app := newTestApp(NewAuthMiddleware(tm, cookie, users), cookie)

	tokenFor := func(id int64) string {
		tok, _, err := tm.GenerateToken(users.users[id])
		require.NoError(t, err)
		return tok
	}
	do := func(path, bearer string, cookies ...*http.Cookie) *http.Response {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, http.StatusUnauthorized, do("/me", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do("/me", "garbage").StatusCode)
	assert.Equal(t, http.StatusOK, do("/me", tokenFor(1)).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do("/me", tokenFor(3)).StatusCode, "unverified accounts are rejected")
	assert.Equal(t, http.StatusForbidden, do("/admin", tokenFor(1)).StatusCode)
	assert.Equal(t, http.StatusNoContent, do("/admin", tokenFor(2)).StatusCode)

	login := do("/login?token="+tokenFor(1), "")
	var session *http.Cookie
	for _, ck := range login.Cookies() {
		if ck.Name == "access_token" {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, http.StatusOK, do("/me", "", session).StatusCode)

	tampered := &http.Cookie{Name: "access_token", Value: tokenFor(1)}
	assert.Equal(t, http.StatusUnauthorized, do("/me", "", tampered).StatusCode)

	body := func(resp *http.Response) string {
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(b)
	}
	assert.Equal(t, "anonymous", body(do("/maybe", "")))
	assert.Equal(t, "known", body(do("/maybe", "", session)))
}
