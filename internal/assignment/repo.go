package assignment

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/objaverse/platform/pkg/id"
)

type Repo interface {
	// Assign records the pair; repeated assignment of the same pair is a
	// no-op so rebalancing stays idempotent.
	Assign(ctx context.Context, evaluatorID id.PublicID, objectID id.ObjectID) error
	ListByEvaluator(ctx context.Context, evaluatorID id.PublicID) ([]Assignment, error)
	AllObjectIDs(ctx context.Context) ([]id.ObjectID, error)
}

const (
	insertAssignmentQuery = `
						INSERT INTO assignments (evaluator_id, object_id)
						VALUES ($1, $2)
						ON CONFLICT (evaluator_id, object_id) DO NOTHING
						`
	listByEvaluatorQuery = `
						SELECT evaluator_id, object_id, assigned_at
						FROM assignments
						WHERE evaluator_id = $1
						ORDER BY id
						`
	allObjectIDsQuery = `SELECT object_id FROM objects ORDER BY id`
)

type postgresRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresRepo(db *sql.DB, logger *zap.Logger) Repo {
	return &postgresRepo{db: db, logger: logger}
}

func (r *postgresRepo) Assign(ctx context.Context, evaluatorID id.PublicID, objectID id.ObjectID) error {
	_, err := r.db.ExecContext(ctx, insertAssignmentQuery, string(evaluatorID), string(objectID))
	if err != nil {
		r.logger.Error("failed to insert assignment", zap.Error(err))
	}
	return err
}

func (r *postgresRepo) ListByEvaluator(ctx context.Context, evaluatorID id.PublicID) ([]Assignment, error) {
	rows, err := r.db.QueryContext(ctx, listByEvaluatorQuery, string(evaluatorID))
	if err != nil {
		r.logger.Error("failed to list assignments", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []Assignment{}
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.EvaluatorID, &a.ObjectID, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) AllObjectIDs(ctx context.Context) ([]id.ObjectID, error) {
	rows, err := r.db.QueryContext(ctx, allObjectIDsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []id.ObjectID
	for rows.Next() {
		var objectID id.ObjectID
		if err := rows.Scan(&objectID); err != nil {
			return nil, err
		}
		out = append(out, objectID)
	}
	return out, rows.Err()
}
