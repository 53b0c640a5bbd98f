package lockout

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/config"
)

// Service applies the lockout policy: N failures inside a sliding window
// trigger a hard lock for the cooldown period.
type Service struct {
	store  Store
	cfg    *config.LockoutConfig
	logger *zap.Logger
}

func NewService(store Store, cfg *config.LockoutConfig, logger *zap.Logger) *Service {
	return &Service{store: store, cfg: cfg, logger: logger}
}

// Check reports whether the identifier is currently locked out.
func (s *Service) Check(ctx context.Context, identifier string) (bool, error) {
	locked, _, err := s.store.IsLocked(ctx, normalize(identifier))
	if err != nil {
		return false, err
	}
	return locked, nil
}

// OnFailure records one failed attempt and locks the identifier when the
// window threshold is reached.
func (s *Service) OnFailure(ctx context.Context, identifier string) error {
	key := normalize(identifier)
	count, err := s.store.RecordFailure(ctx, key, s.cfg.Window)
	if err != nil {
		return err
	}
	if count >= int64(s.cfg.MaxFailures) {
		s.logger.Warn("lockout triggered",
			zap.String("identifier", key),
			zap.Int64("failures", count),
			zap.Duration("cooldown", s.cfg.Cooldown),
		)
		return s.store.Lock(ctx, key, s.cfg.Cooldown)
	}
	return nil
}

// OnSuccess clears failure state after a successful authentication.
func (s *Service) OnSuccess(ctx context.Context, identifier string) error {
	return s.store.Clear(ctx, normalize(identifier))
}

func normalize(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
