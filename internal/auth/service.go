package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("forbidden")
)

// Role is what a token holder may do with a session.
type Role string

const (
	RoleControl Role = "control"
	RoleView    Role = "view"
)

const defaultTTL = 24 * time.Hour

type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       defaultTTL,
		now:       time.Now,
	}
}

// Claims identify a session and the holder's role in it.
type Claims struct {
	SessionID string
	Role      Role
}

// Allows reports whether the claims grant want on sessionID. A control
// token also grants view.
func (c *Claims) Allows(sessionID string, want Role) bool {
	if c == nil || c.SessionID != sessionID {
		return false
	}
	return c.Role == want || c.Role == RoleControl
}

func (s *Service) IssueToken(sessionID string, role Role) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  sessionID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	sessionID, ok := claims["sub"].(string)
	if !ok || sessionID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	role, _ := claims["role"].(string)
	switch Role(role) {
	case RoleControl, RoleView:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
	}

	return &Claims{SessionID: sessionID, Role: Role(role)}, nil
}
