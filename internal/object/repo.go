package object

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/objaverse/platform/pkg/id"
)

type Repo interface {
	Create(ctx context.Context, dto CreateDTO) (id.ObjectID, error)
	List(ctx context.Context, page, limit int) ([]Object3D, int, error)
	Get(ctx context.Context, objectID id.ObjectID) (*Object3D, error)
	Update(ctx context.Context, objectID id.ObjectID, dto UpdateDTO) error
	Delete(ctx context.Context, objectID id.ObjectID) error
	AddImage(ctx context.Context, objectID id.ObjectID, img Image) error
	// Search matches query case-insensitively against description and
	// category, capped at limit results.
	Search(ctx context.Context, query string, limit int) ([]Object3D, error)
}

const (
	insertObjectQuery = `
						INSERT INTO objects (object_id, description, category, metadata)
						VALUES ($1, $2, $3, $4)
						RETURNING object_id
						`
	listObjectsQuery = `
						SELECT object_id, description, category, metadata, created_at, updated_at
						FROM objects
						ORDER BY id
						OFFSET $1 LIMIT $2
						`
	countObjectsQuery = `SELECT count(*) FROM objects`
	getObjectQuery    = `
						SELECT object_id, description, category, metadata, created_at, updated_at
						FROM objects
						WHERE object_id = $1
						`
	updateObjectQuery = `
						UPDATE objects
						SET description = COALESCE($2, description),
						    category    = COALESCE($3, category),
						    metadata    = COALESCE($4, metadata),
						    updated_at  = now()
						WHERE object_id = $1
						`
	deleteObjectQuery  = `DELETE FROM objects WHERE object_id = $1`
	searchObjectsQuery = `
							SELECT object_id, description, category, metadata, created_at, updated_at
							FROM objects
							WHERE description ILIKE '%' || $1 || '%'
							   OR category ILIKE '%' || $1 || '%'
							ORDER BY id
							LIMIT $2
							`
	insertImageQuery  = `
						INSERT INTO object_images (image_id, object_id, url, angle)
						VALUES ($1, $2, $3, $4)
						`
	listImagesQuery = `
						SELECT image_id, url, angle
						FROM object_images
						WHERE object_id = $1
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

func (r *postgresRepo) Create(ctx context.Context, dto CreateDTO) (id.ObjectID, error) {
	meta, err := json.Marshal(dto.Metadata)
	if err != nil {
		return "", err
	}

	var objectID id.ObjectID
	err = r.db.QueryRowContext(ctx, insertObjectQuery,
		string(id.NewObjectID()),
		dto.Description,
		dto.Category,
		meta,
	).Scan(&objectID)
	if err != nil {
		r.logger.Error("failed to insert object", zap.Error(err))
		return "", err
	}
	return objectID, nil
}

func (r *postgresRepo) List(ctx context.Context, page, limit int) ([]Object3D, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, countObjectsQuery).Scan(&total); err != nil {
		r.logger.Error("failed to count objects", zap.Error(err))
		return nil, 0, err
	}

	offset := (page - 1) * limit
	rows, err := r.db.QueryContext(ctx, listObjectsQuery, offset, limit)
	if err != nil {
		r.logger.Error("failed to list objects", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var out []Object3D
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *obj)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		images, err := r.listImages(ctx, out[i].ObjectID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Images = images
	}
	return out, total, nil
}

func (r *postgresRepo) Get(ctx context.Context, objectID id.ObjectID) (*Object3D, error) {
	row := r.db.QueryRowContext(ctx, getObjectQuery, string(objectID))
	obj, err := scanObject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get object", zap.Error(err))
		return nil, err
	}

	images, err := r.listImages(ctx, obj.ObjectID)
	if err != nil {
		return nil, err
	}
	obj.Images = images
	return obj, nil
}

func (r *postgresRepo) Update(ctx context.Context, objectID id.ObjectID, dto UpdateDTO) error {
	var meta []byte
	if dto.Metadata != nil {
		b, err := json.Marshal(dto.Metadata)
		if err != nil {
			return err
		}
		meta = b
	}

	res, err := r.db.ExecContext(ctx, updateObjectQuery,
		string(objectID),
		dto.Description,
		dto.Category,
		meta,
	)
	if err != nil {
		r.logger.Error("failed to update object", zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, objectID id.ObjectID) error {
	res, err := r.db.ExecContext(ctx, deleteObjectQuery, string(objectID))
	if err != nil {
		r.logger.Error("failed to delete object", zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Search(ctx context.Context, query string, limit int) ([]Object3D, error) {
	rows, err := r.db.QueryContext(ctx, searchObjectsQuery, query, limit)
	if err != nil {
		r.logger.Error("failed to search objects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []Object3D
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *obj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		images, err := r.listImages(ctx, out[i].ObjectID)
		if err != nil {
			return nil, err
		}
		out[i].Images = images
	}
	return out, nil
}

func (r *postgresRepo) AddImage(ctx context.Context, objectID id.ObjectID, img Image) error {
	_, err := r.db.ExecContext(ctx, insertImageQuery,
		img.ImageID,
		string(objectID),
		img.URL,
		img.Angle,
	)
	if err != nil {
		r.logger.Error("failed to insert image", zap.Error(err))
	}
	return err
}

func (r *postgresRepo) listImages(ctx context.Context, objectID id.ObjectID) ([]Image, error) {
	rows, err := r.db.QueryContext(ctx, listImagesQuery, string(objectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []Image{}
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ImageID, &img.URL, &img.Angle); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner) (*Object3D, error) {
	var obj Object3D
	var meta []byte
	if err := row.Scan(&obj.ObjectID, &obj.Description, &obj.Category, &meta,
		&obj.CreatedAt, &obj.UpdatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &obj.Metadata); err != nil {
			return nil, err
		}
	}
	return &obj, nil
}
