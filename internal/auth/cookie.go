package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/securecookie"
)

// SessionCookie stores the access token in a signed (and optionally
// encrypted) cookie for the server-rendered pages.
type SessionCookie struct {
	name   string
	secure bool
	codec  *securecookie.SecureCookie
}

// NewSessionCookie builds the cookie codec. blockKey may be empty to sign
// without encrypting. maxAge bounds how long an encoded value is accepted.
func NewSessionCookie(name, hashKey, blockKey string, maxAge time.Duration, secure bool) *SessionCookie {
	var block []byte
	if blockKey != "" {
		block = []byte(blockKey)
	}
	codec := securecookie.New([]byte(hashKey), block)
	codec.MaxAge(int(maxAge.Seconds()))
	return &SessionCookie{
		name:   name,
		secure: secure,
		codec:  codec,
	}
}

// Name returns the cookie name.
func (s *SessionCookie) Name() string {
	return s.name
}

// Write sets the cookie holding token until expiresAt.
func (s *SessionCookie) Write(c *fiber.Ctx, token string, expiresAt time.Time) error {
	encoded, err := s.codec.Encode(s.name, token)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.name,
		Value:    encoded,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

// Read returns the token from the request cookie, or "" when absent or
// tampered with.
func (s *SessionCookie) Read(c *fiber.Ctx) string {
	raw := c.Cookies(s.name)
	if raw == "" {
		return ""
	}
	var token string
	if err := s.codec.Decode(s.name, raw, &token); err != nil {
		return ""
	}
	return token
}

// Clear expires the cookie.
func (s *SessionCookie) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
