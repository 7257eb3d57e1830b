package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// SubjectKey is the echo context key holding the authenticated subject.
const SubjectKey = "auth_subject"

const (
	// APIKeySubject identifies callers that presented the static API key.
	APIKeySubject = "api-key"
	// DevSubject identifies unauthenticated callers in development mode.
	DevSubject = "dev-user"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the HS256 token claims accepted alongside the API key.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// Config selects how bearer credentials are checked.
type Config struct {
	// APIKey is compared in constant time against the bearer token.
	APIKey string
	// JWTSecret enables HS256 tokens when non-empty.
	JWTSecret []byte
	Issuer    string
	// Development bypasses authentication entirely.
	Development bool
	Skipper     func(echo.Context) bool
}

// Authenticator validates bearer credentials against a Config.
type Authenticator struct {
	cfg Config
}

// NewAuthenticator returns an Authenticator for cfg.
func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{cfg: cfg}
}

// Authenticate returns the subject for token, or ErrInvalidToken.
func (a *Authenticator) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	if a.cfg.APIKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.cfg.APIKey)) == 1 {
		return APIKeySubject, nil
	}
	if len(a.cfg.JWTSecret) == 0 {
		return "", ErrInvalidToken
	}

	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.cfg.JWTSecret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// IssueToken signs an HS256 token for subject valid for ttl.
func IssueToken(secret []byte, issuer, subject string, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Middleware requires a valid bearer credential on every non-public request.
// WebSocket upgrades may pass the credential as ?token= since browsers cannot
// set headers on them.
func Middleware(cfg Config, logger zerolog.Logger) echo.MiddlewareFunc {
	authn := NewAuthenticator(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			if cfg.Development {
				setSubject(c, DevSubject)
				return next(c)
			}

			token, err := bearerToken(c.Request())
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			subject, err := authn.Authenticate(token)
			if err != nil {
				rid, _ := c.Get("request_id").(string)
				logger.Warn().
					Str("request_id", rid).
					Str("path", c.Request().URL.Path).
					Str("remote_ip", c.RealIP()).
					Msg("authentication failed")
				return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error())
			}

			setSubject(c, subject)
			return next(c)
		}
	}
}

func setSubject(c echo.Context, subject string) {
	c.Set(SubjectKey, subject)
	ctx := context.WithValue(c.Request().Context(), UserIDKey, subject)
	c.SetRequest(c.Request().WithContext(ctx))
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			if t := r.URL.Query().Get("token"); t != "" {
				return t, nil
			}
		}
		return "", ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// UserIDFromContext returns the authenticated subject stored by Middleware.
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}
