package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yanqian/flat-price/internal/infra/config"
)

const sessionIssuer = "flat-price"

// SessionCookies issues and reads the signed cookie that identifies a form session.
type SessionCookies struct {
	name   string
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionCookies builds the cookie codec from the form configuration.
func NewSessionCookies(cfg *config.Config) *SessionCookies {
	return &SessionCookies{
		name:   cfg.Form.CookieName,
		secret: []byte(cfg.Form.CookieSecret),
		ttl:    cfg.Form.SessionTTL,
		secure: cfg.Form.CookieSecure,
		now:    time.Now,
	}
}

// Resolve returns the session id carried by the request, minting a new one when the
// cookie is missing, expired or forged. The cookie is re-issued so its expiry slides.
func (s *SessionCookies) Resolve(c *gin.Context) string {
	id, err := s.read(c)
	if err != nil {
		id = uuid.NewString()
	}
	s.issue(c, id)
	return id
}

func (s *SessionCookies) read(c *gin.Context) (string, error) {
	value, err := c.Cookie(s.name)
	if err != nil || value == "" {
		return "", errors.New("session cookie missing")
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", errors.New("session cookie invalid")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errors.New("session cookie subject invalid")
	}
	return claims.Subject, nil
}

func (s *SessionCookies) issue(c *gin.Context, id string) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return
	}
	secure := s.secure || c.Request.TLS != nil
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.name, signed, int(s.ttl.Seconds()), "/", "", secure, true)
}
