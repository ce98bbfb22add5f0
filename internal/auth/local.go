package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultIssuer   = "dump-practice-service"
	defaultTokenTTL = 24 * time.Hour
	bcryptCost      = 12
)

// Claims are the JWT claims issued for local accounts
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// LocalIssuer signs and verifies HS256 tokens for accounts stored in the database
type LocalIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewLocalIssuer(secret string, ttl time.Duration) *LocalIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &LocalIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for user and its expiry
func (l *LocalIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := l.now()
	expires := now.Add(l.ttl)
	claims := &Claims{
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    defaultIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

func (l *LocalIssuer) Verify(ctx context.Context, tokenStr string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return l.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(defaultIssuer),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     models.UserRole(claims.Role),
	}, nil
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password against a stored bcrypt hash
func CheckPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}
