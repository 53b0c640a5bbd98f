package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/config"
	"github.com/objaverse/platform/internal/principal"
	"github.com/objaverse/platform/pkg/id"
)

type Service interface {
	Issue(ctx context.Context, p *principal.Principal) (*IssueResult, error)
	Verify(ctx context.Context, tokenString string) (*Claims, error)
	Revoke(ctx context.Context, tokenString string) error
}

type IssueResult struct {
	Token     string
	ExpiresAt time.Time
	TokenID   id.TokenID
}

type service struct {
	logger     *zap.Logger
	cfg        *config.TokenConfig
	denylist   Denylist
	signingAlg jwt.SigningMethod
	now        func() time.Time
}

type Option func(*service)

// WithClock overrides the time source; tests use it to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

func NewService(logger *zap.Logger, cfg *config.TokenConfig, denylist Denylist, opts ...Option) Service {
	s := &service{
		logger:     logger,
		cfg:        cfg,
		denylist:   denylist,
		signingAlg: jwt.SigningMethodHS256,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Issue(ctx context.Context, p *principal.Principal) (*IssueResult, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.cfg.TTL)
	jti := id.NewTokenID()

	claims := &Claims{
		Sub:  p.PublicID,
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ID:        string(jti),
		},
	}

	signed, err := jwt.NewWithClaims(s.signingAlg, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		s.logger.Error("failed to sign token", zap.Error(err))
		return nil, err
	}

	return &IssueResult{
		Token:     signed,
		ExpiresAt: expiresAt,
		TokenID:   jti,
	}, nil
}

// Verify checks the token in fixed order: parse, signature, expiry, then
// denylist. No claim value is trusted before the signature passes; the HMAC
// comparison inside golang-jwt is constant-time.
func (s *service) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.signingAlg.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
	)

	var claims Claims
	tkn, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		default:
			return nil, ErrBadSignature
		}
	}
	if !tkn.Valid {
		return nil, ErrBadSignature
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, id.TokenID(claims.ID))
		if err != nil {
			s.logger.Error("denylist lookup failed", zap.Error(err))
			return nil, err
		}
		if revoked {
			return nil, ErrRevoked
		}
	}

	return &claims, nil
}

// Revoke verifies the token, then denylists its jti for the remaining
// lifetime. Revoking an already-expired token is a no-op.
func (s *service) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.Verify(ctx, tokenString)
	if err != nil {
		if errors.Is(err, ErrExpired) || errors.Is(err, ErrRevoked) {
			return nil
		}
		return err
	}
	if s.denylist == nil || claims.ID == "" {
		return nil
	}

	remaining := claims.ExpiresAt.Time.Sub(s.now().UTC())
	if remaining <= 0 {
		return nil
	}
	return s.denylist.Revoke(ctx, id.TokenID(claims.ID), remaining)
}
