package principal

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/objaverse/platform/pkg/id"
)

type CreateDTO struct {
	Email    string
	Password string // bcrypt hash, never plaintext
	Role     Role
}

type Repo interface {
	Create(ctx context.Context, dto CreateDTO) (id.PublicID, error)
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByPublicID(ctx context.Context, publicID id.PublicID) (*Principal, error)
	Delete(ctx context.Context, publicID id.PublicID) error
	ListByRole(ctx context.Context, role Role) ([]Principal, error)
}

const (
	insertPrincipalQuery = `
						INSERT INTO principals (email, password, role)
						VALUES ($1, $2, $3)
						RETURNING public_id
						`
	findByEmailQuery = `
						SELECT id, public_id, email, password, role, is_deleted, created_at, updated_at
						FROM principals
						WHERE lower(email) = lower($1) AND NOT is_deleted
						`
	findByPublicIDQuery = `
						SELECT id, public_id, email, password, role, is_deleted, created_at, updated_at
						FROM principals
						WHERE public_id = $1 AND NOT is_deleted
						`
	deletePrincipalQuery = `
						UPDATE principals
						SET is_deleted = TRUE, updated_at = now()
						WHERE public_id = $1 AND NOT is_deleted
						`
	listByRoleQuery = `
						SELECT id, public_id, email, password, role, is_deleted, created_at, updated_at
						FROM principals
						WHERE role = $1 AND NOT is_deleted
						ORDER BY id
						`
)

type postgresRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresRepo(db *sql.DB, logger *zap.Logger) Repo {
	return &postgresRepo{db: db, logger: logger}
}

func (p *postgresRepo) Create(ctx context.Context, dto CreateDTO) (id.PublicID, error) {
	role := dto.Role
	if role == "" {
		role = RoleResearcher
	}

	row := p.db.QueryRowContext(ctx, insertPrincipalQuery,
		strings.ToLower(strings.TrimSpace(dto.Email)),
		dto.Password,
		role,
	)

	var publicID id.PublicID
	if err := row.Scan(&publicID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			p.logger.Warn("create principal canceled/timed out", zap.Error(err))
			return "", err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			p.logger.Debug("duplicate email", zap.String("email", dto.Email))
			return "", ErrDuplicateEmail
		}

		p.logger.Error("failed to insert principal", zap.Error(err))
		return "", err
	}

	return publicID, nil
}

func (p *postgresRepo) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	return p.scanOne(p.db.QueryRowContext(ctx, findByEmailQuery, strings.TrimSpace(email)))
}

func (p *postgresRepo) FindByPublicID(ctx context.Context, publicID id.PublicID) (*Principal, error) {
	return p.scanOne(p.db.QueryRowContext(ctx, findByPublicIDQuery, string(publicID)))
}

func (p *postgresRepo) Delete(ctx context.Context, publicID id.PublicID) error {
	res, err := p.db.ExecContext(ctx, deletePrincipalQuery, string(publicID))
	if err != nil {
		p.logger.Error("failed to delete principal", zap.String("public_id", string(publicID)), zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *postgresRepo) ListByRole(ctx context.Context, role Role) ([]Principal, error) {
	rows, err := p.db.QueryContext(ctx, listByRoleQuery, string(role))
	if err != nil {
		p.logger.Error("failed to list principals", zap.String("role", string(role)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []Principal
	for rows.Next() {
		var rec Principal
		if err := rows.Scan(&rec.ID, &rec.PublicID, &rec.Email, &rec.Password, &rec.Role,
			&rec.IsDeleted, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *postgresRepo) scanOne(row *sql.Row) (*Principal, error) {
	var rec Principal
	err := row.Scan(&rec.ID, &rec.PublicID, &rec.Email, &rec.Password, &rec.Role,
		&rec.IsDeleted, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		p.logger.Error("failed to scan principal", zap.Error(err))
		return nil, err
	}
	return &rec, nil
}
