package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/YusovID/addon-reviews/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and verifies the HS256 bearer tokens that identify API callers.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *TokenManager) Issue(userID int64) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse returns the user id carried by a valid token.
func (m *TokenManager) Parse(token string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return 0, err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return 0, jwt.ErrTokenInvalidClaims
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, jwt.ErrTokenInvalidSubject
	}

	return userID, nil
}

type AuthService interface {
	// Authenticate turns a bearer token into a caller. An empty token yields an anonymous caller.
	Authenticate(ctx context.Context, token, ipAddress string) (domain.Caller, error)
}

type AuthServiceImpl struct {
	log    *slog.Logger
	tokens *TokenManager
	users  repository.UserRepository
}

func NewAuthService(log *slog.Logger, tokens *TokenManager, users repository.UserRepository) *AuthServiceImpl {
	return &AuthServiceImpl{
		log:    log,
		tokens: tokens,
		users:  users,
	}
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, token, ipAddress string) (domain.Caller, error) {
	const op = "internal.service.auth.Authenticate"

	caller := domain.Caller{IPAddress: ipAddress, Permissions: map[string]struct{}{}}
	if token == "" {
		return caller, nil
	}

	userID, err := s.tokens.Parse(token)
	if err != nil {
		s.log.Debug("rejected token", slog.String("op", op), slog.String("reason", err.Error()))
		return caller, fmt.Errorf("%s: %w: invalid token", op, apperrors.ErrUnauthenticated)
	}

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return caller, fmt.Errorf("%s: %w: unknown user", op, apperrors.ErrUnauthenticated)
		}

		return caller, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	perms, err := s.users.GetPermissions(ctx, userID)
	if err != nil {
		return caller, fmt.Errorf("%s: failed to get permissions: %w", op, err)
	}

	caller.UserID = userID
	for _, p := range perms {
		caller.Permissions[p] = struct{}{}
	}

	return caller, nil
}
