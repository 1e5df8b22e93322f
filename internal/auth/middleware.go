package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/repository"
	apperrors "github.com/deptevents/event-registration/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User   *domain.User
	Claims *Claims
}

// UserID returns the id of the caller.
func (p *Principal) UserID() int64 {
	return p.User.ID
}

// AuthMiddleware validates bearer tokens or the session cookie and loads
// principals.
type AuthMiddleware struct {
	tokens *TokenManager
	cookie *SessionCookie
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware. cookie may be nil to accept only
// bearer tokens.
func NewAuthMiddleware(tokens *TokenManager, cookie *SessionCookie, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, cookie: cookie, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.resolve(c)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// Optional loads the principal when credentials are present and valid, and
// lets anonymous callers through otherwise.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	if principal, err := m.resolve(c); err == nil {
		c.Locals(principalKey, principal)
	}
	return c.Next()
}

func (m *AuthMiddleware) resolve(c *fiber.Ctx) (*Principal, error) {
	tokenStr, err := m.extractToken(c)
	if err != nil {
		return nil, err
	}

	claims, err := m.tokens.ParseToken(tokenStr)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized(domain.ErrAccountNotVerified.Error())
	}
	return &Principal{User: user, Claims: claims}, nil
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.NewUnauthorized("invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if m.cookie != nil {
		if token := m.cookie.Read(c); token != "" {
			return token, nil
		}
	}
	return "", apperrors.NewUnauthorized("missing credentials")
}

// PrincipalFromContext retrieves the authenticated user.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil && principal.User != nil
}

// ViewerID returns the caller's id, or nil for anonymous requests.
func ViewerID(c *fiber.Ctx) *int64 {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return nil
	}
	id := principal.User.ID
	return &id
}
