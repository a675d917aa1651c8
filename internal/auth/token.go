package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/siteops/alertdesk/internal/domain"
)

// ErrWrongTokenType is returned when a refresh token is used as an access token or vice versa.
var ErrWrongTokenType = errors.New("unexpected token type")

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTLMinutes, refreshTTLMinutes int) *TokenManager {
	if accessTTLMinutes <= 0 {
		accessTTLMinutes = 60
	}
	if refreshTTLMinutes <= 0 {
		refreshTTLMinutes = 7 * 24 * 60
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  time.Duration(accessTTLMinutes) * time.Minute,
		refreshTTL: time.Duration(refreshTTLMinutes) * time.Minute,
		now:        time.Now,
	}
}

// Claims describes JWT payload.
type Claims struct {
	UserID string           `json:"uid"`
	Role   domain.UserRole  `json:"role"`
	Type   domain.TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT for the user.
func (tm *TokenManager) GenerateToken(userID string, role domain.UserRole, tokenType domain.TokenType) (string, time.Time, error) {
	ttl := tm.accessTTL
	if tokenType == domain.TokenTypeRefresh {
		ttl = tm.refreshTTL
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		UserID: userID,
		Role:   role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// IssuePair signs an access and a refresh token for the user.
func (tm *TokenManager) IssuePair(user *domain.User) (domain.TokenPair, error) {
	access, accessExp, err := tm.GenerateToken(user.ID, user.Role, domain.TokenTypeAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := tm.GenerateToken(user.ID, user.Role, domain.TokenTypeRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ParseToken validates the signature, expiry and token type and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string, expected domain.TokenType) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Type != expected {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
