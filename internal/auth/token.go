package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/chatlift/chatlift/internal/shared"
)

// Claims is the bearer token payload. The embedded role data is a snapshot
// taken at issue time, for display only; authorization always re-resolves the
// live graph.
type Claims struct {
	jwt.RegisteredClaims

	Email string   `json:"email"`
	Name  string   `json:"name,omitempty"`
	Role  string   `json:"role"`
	Roles []string `json:"roles"`
}

// TokenManager mints and verifies signed, time-bounded bearer tokens using a
// server-held symmetric secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token for the user carrying identity and the role snapshot.
func (m *TokenManager) Issue(user *User, roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	primary := shared.RoleUser
	if len(roles) > 0 {
		primary = roles[0]
	}
	now := m.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Email: user.Email,
		Name:  user.FullName,
		Role:  primary,
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the subject user id. It is a
// pure cryptographic check: no database access, no claims trusted beyond the
// subject.
func (m *TokenManager) Verify(tokenString string) (int64, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil || !token.Valid {
		return 0, shared.ErrInvalidToken
	}
	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subject <= 0 {
		return 0, shared.ErrInvalidToken
	}
	return subject, nil
}
