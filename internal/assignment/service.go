package assignment

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/config"
	"github.com/objaverse/platform/internal/principal"
	"github.com/objaverse/platform/pkg/id"
)

var (
	ErrNoEvaluators = errors.New("no evaluators registered")
	// ErrNotEnoughObjects means the corpus cannot satisfy the configured
	// share and crossover percentages for the current evaluator count.
	ErrNotEnoughObjects = errors.New("not enough objects for requested distribution")
)

type Service interface {
	// Rebalance distributes objects across the registered evaluators: each
	// evaluator receives the configured share of the corpus, with a
	// configured fraction of that share deliberately overlapping with other
	// evaluators so their ratings can be compared. Returns the number of
	// pairs written.
	Rebalance(ctx context.Context) (int, error)
	ListForEvaluator(ctx context.Context, evaluatorID id.PublicID) ([]Assignment, error)
}

type service struct {
	repo       Repo
	principals principal.Repo
	cfg        *config.AssignmentConfig
	logger     *zap.Logger
	rng        *rand.Rand
}

type Option func(*service)

// WithRand overrides the shuffle source; tests use it for deterministic plans.
func WithRand(rng *rand.Rand) Option {
	return func(s *service) {
		s.rng = rng
	}
}

func NewService(repo Repo, principals principal.Repo, cfg *config.AssignmentConfig, logger *zap.Logger, opts ...Option) Service {
	s := &service{
		repo:       repo,
		principals: principals,
		cfg:        cfg,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Rebalance(ctx context.Context) (int, error) {
	evaluators, err := s.principals.ListByRole(ctx, principal.RoleEvaluator)
	if err != nil {
		return 0, err
	}
	if len(evaluators) == 0 {
		return 0, ErrNoEvaluators
	}

	evaluatorIDs := make([]id.PublicID, 0, len(evaluators))
	for _, ev := range evaluators {
		evaluatorIDs = append(evaluatorIDs, ev.PublicID)
	}
	sort.Slice(evaluatorIDs, func(i, j int) bool { return evaluatorIDs[i] < evaluatorIDs[j] })

	objectIDs, err := s.repo.AllObjectIDs(ctx)
	if err != nil {
		return 0, err
	}

	plan, err := s.plan(evaluatorIDs, objectIDs)
	if err != nil {
		return 0, err
	}

	assigned := 0
	for _, evaluatorID := range evaluatorIDs {
		for _, objectID := range plan[evaluatorID] {
			if err := s.repo.Assign(ctx, evaluatorID, objectID); err != nil {
				return assigned, err
			}
			assigned++
		}
	}

	s.logger.Info("assignments rebalanced",
		zap.Int("objects", len(objectIDs)),
		zap.Int("evaluators", len(evaluatorIDs)),
		zap.Int("pairs", assigned),
		zap.Float64("share", s.cfg.SharePercent),
		zap.Float64("crossover", s.cfg.CrossoverPercent),
	)
	return assigned, nil
}

// plan builds the evaluator→objects mapping. Each evaluator gets a unique
// slice of the shuffled corpus first; then every pair of evaluators receives
// at least one common object; then shared objects are topped up, preferring
// the partner an evaluator currently overlaps with least, until the crossover
// quota is met; finally short lists are filled from the leftover pool.
func (s *service) plan(evaluatorIDs []id.PublicID, objectIDs []id.ObjectID) (map[id.PublicID][]id.ObjectID, error) {
	n := len(evaluatorIDs)

	perEvaluator := int(float64(len(objectIDs)) * s.cfg.SharePercent)
	if perEvaluator < 1 {
		return nil, ErrNotEnoughObjects
	}
	sharedPer := int(float64(perEvaluator) * s.cfg.CrossoverPercent)
	uniquePer := perEvaluator - sharedPer

	// Unique slices plus one shared object per evaluator pair is the floor.
	pairCount := n * (n - 1) / 2
	if len(objectIDs) < n*uniquePer+pairCount {
		return nil, ErrNotEnoughObjects
	}

	shuffled := append([]id.ObjectID(nil), objectIDs...)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	plan := make(map[id.PublicID][]id.ObjectID, n)
	next := 0
	for _, evaluatorID := range evaluatorIDs {
		plan[evaluatorID] = append(plan[evaluatorID], shuffled[next:next+uniquePer]...)
		next += uniquePer
	}
	remaining := shuffled[next:]

	// Pairwise overlap counts, indexed by evaluator position.
	overlap := make([][]int, n)
	for i := range overlap {
		overlap[i] = make([]int, n)
	}
	shared := make([]int, n)

	take := func(i, j int) {
		objectID := remaining[0]
		remaining = remaining[1:]
		plan[evaluatorIDs[i]] = append(plan[evaluatorIDs[i]], objectID)
		plan[evaluatorIDs[j]] = append(plan[evaluatorIDs[j]], objectID)
		overlap[i][j]++
		overlap[j][i]++
		shared[i]++
		shared[j]++
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if len(remaining) == 0 {
				break
			}
			take(i, j)
		}
	}

	for i := 0; i < n; i++ {
		for shared[i] < sharedPer && len(remaining) > 0 {
			j := leastOverlappedPartner(overlap, i)
			if j < 0 {
				break
			}
			take(i, j)
		}
	}

	for _, evaluatorID := range evaluatorIDs {
		for len(plan[evaluatorID]) < perEvaluator && len(remaining) > 0 {
			plan[evaluatorID] = append(plan[evaluatorID], remaining[0])
			remaining = remaining[1:]
		}
	}

	return plan, nil
}

func leastOverlappedPartner(overlap [][]int, i int) int {
	best := -1
	for j := range overlap {
		if j == i {
			continue
		}
		if best < 0 || overlap[i][j] < overlap[i][best] {
			best = j
		}
	}
	return best
}

func (s *service) ListForEvaluator(ctx context.Context, evaluatorID id.PublicID) ([]Assignment, error) {
	return s.repo.ListByEvaluator(ctx, evaluatorID)
}
