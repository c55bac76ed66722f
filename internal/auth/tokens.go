package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/watchthis/user-service/internal/config"
	"github.com/watchthis/user-service/internal/entities"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the signed payload of every token this service issues.
type Claims struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Type     TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is returned by every endpoint that mints tokens.
// ExpiresIn is the access token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// TokenService signs and verifies tokens. It holds no state besides its
// configuration and is safe for concurrent use.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   string
	now        func() time.Time
}

// NewTokenService creates a token service from config. When no secret is
// configured a random one is generated, so tokens issued by this process
// stop verifying after a restart.
func NewTokenService(cfg config.JWT) (*TokenService, error) {
	secret := cfg.Secret
	if secret == "" {
		generated, err := GenerateSecret(64)
		if err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		secret = generated
		slog.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  cfg.AccessExpiresIn,
		refreshTTL: cfg.RefreshExpiresIn,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		now:        time.Now,
	}, nil
}

// Issue signs a token of the given kind for user.
func (s *TokenService) Issue(user *entities.User, kind TokenType) (string, error) {
	ttl := s.accessTTL
	if kind == TokenTypeRefresh {
		ttl = s.refreshTTL
	}

	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Type:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// IssuePair signs a fresh access and refresh token for user.
func (s *TokenService) IssuePair(user *entities.User) (*TokenPair, error) {
	access, err := s.Issue(user, TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.Issue(user, TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL / time.Second),
	}, nil
}

// Verify checks signature, expiry, issuer and audience. It does not check
// the token type; callers decide which kind they accept.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}
