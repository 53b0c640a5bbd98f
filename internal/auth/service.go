package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/objaverse/platform/internal/lockout"
	"github.com/objaverse/platform/internal/metrics"
	"github.com/objaverse/platform/internal/principal"
	"github.com/objaverse/platform/internal/token"
	"github.com/objaverse/platform/pkg/id"
)

type Service interface {
	Register(ctx context.Context, email, password string, role principal.Role) (id.PublicID, error)
	Login(ctx context.Context, email, password string) (*token.IssueResult, error)
	Logout(ctx context.Context, tokenString string) error
	Me(ctx context.Context, publicID id.PublicID) (*principal.Principal, error)
}

type service struct {
	principals principal.Repo
	tokens     token.Service
	lockout    *lockout.Service
	logger     *zap.Logger
}

func NewService(principals principal.Repo, tokens token.Service, lo *lockout.Service, logger *zap.Logger) Service {
	return &service{
		principals: principals,
		tokens:     tokens,
		lockout:    lo,
		logger:     logger,
	}
}

func (s *service) Register(ctx context.Context, email, password string, role principal.Role) (id.PublicID, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return "", err
	}

	publicID, err := s.principals.Create(ctx, principal.CreateDTO{
		Email:    email,
		Password: string(hashed),
		Role:     role,
	})
	if err != nil {
		return "", err
	}
	return publicID, nil
}

// dummyHash keeps the compare cost identical whether or not the principal
// exists, so response timing does not leak account presence.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

func (s *service) Login(ctx context.Context, email, password string) (*token.IssueResult, error) {
	if s.lockout != nil {
		locked, err := s.lockout.Check(ctx, email)
		if err != nil {
			s.logger.Error("lockout check failed", zap.Error(err))
			return nil, err
		}
		if locked {
			metrics.LoginAttempts.WithLabelValues("locked").Inc()
			return nil, ErrPrincipalLocked
		}
	}

	p, err := s.principals.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, s.fail(ctx, email)
		}
		s.logger.Error("principal lookup failed", zap.Error(err))
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(password)); err != nil {
		return nil, s.fail(ctx, email)
	}

	if s.lockout != nil {
		if err := s.lockout.OnSuccess(ctx, email); err != nil {
			// Stale counters are tolerable; the login still succeeds.
			s.logger.Warn("failed to clear lockout state", zap.Error(err))
		}
	}

	result, err := s.tokens.Issue(ctx, p)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.logger.Info("principal authenticated", zap.String("sub", string(p.PublicID)))
	return result, nil
}

// fail records exactly one failure against the identifier and collapses all
// causes into ErrInvalidCredential.
func (s *service) fail(ctx context.Context, email string) error {
	metrics.LoginAttempts.WithLabelValues("invalid_credential").Inc()
	if s.lockout != nil {
		if err := s.lockout.OnFailure(ctx, email); err != nil {
			s.logger.Error("failed to record auth failure", zap.Error(err))
		}
	}
	return ErrInvalidCredential
}

func (s *service) Logout(ctx context.Context, tokenString string) error {
	return s.tokens.Revoke(ctx, tokenString)
}

func (s *service) Me(ctx context.Context, publicID id.PublicID) (*principal.Principal, error) {
	return s.principals.FindByPublicID(ctx, publicID)
}
