// Package auth issues and validates doctor session tokens.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SessionClaims are the claims carried by a doctor session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization"`
}

// Sessions signs and verifies doctor session tokens with an HMAC secret.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

// NewSessions builds a Sessions signer. ttl bounds how long an issued token
// stays valid.
func NewSessions(secret []byte, ttl time.Duration) *Sessions {
	return &Sessions{secret: secret, ttl: ttl}
}

// Issue signs a session token for the given doctor.
func (s *Sessions) Issue(doctorID uuid.UUID, name, specialization string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   doctorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		DoctorName:     name,
		Specialization: specialization,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token string.
func (s *Sessions) Verify(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// RequireSession returns middleware that rejects requests without a valid
// bearer token. On success the doctor ID and claims are stored on the echo
// context under "doctor_id" and "session".
func RequireSession(s *Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}
			claims, err := s.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			doctorID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}
			c.Set("doctor_id", doctorID)
			c.Set("session", claims)
			return next(c)
		}
	}
}

// DoctorIDFromContext returns the authenticated doctor's ID, or uuid.Nil
// when the request carried no session.
func DoctorIDFromContext(c echo.Context) uuid.UUID {
	id, _ := c.Get("doctor_id").(uuid.UUID)
	return id
}
