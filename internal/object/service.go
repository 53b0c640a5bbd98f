package object

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/objaverse/platform/pkg/id"
)

type Service interface {
	Create(ctx context.Context, dto CreateDTO) (id.ObjectID, error)
	List(ctx context.Context, page, limit int) ([]Object3D, int, error)
	Get(ctx context.Context, objectID id.ObjectID) (*Object3D, error)
	Update(ctx context.Context, objectID id.ObjectID, dto UpdateDTO) error
	Delete(ctx context.Context, objectID id.ObjectID) error
	UploadImage(ctx context.Context, objectID id.ObjectID, filename, angle string, content io.Reader) (*Image, error)
	Search(ctx context.Context, query string) ([]Object3D, error)
}

// maxSearchResults caps a single search response.
const maxSearchResults = 20

type service struct {
	repo   Repo
	media  MediaStore
	logger *zap.Logger
}

func NewService(repo Repo, media MediaStore, logger *zap.Logger) Service {
	return &service{repo: repo, media: media, logger: logger}
}

func (s *service) Create(ctx context.Context, dto CreateDTO) (id.ObjectID, error) {
	return s.repo.Create(ctx, dto)
}

func (s *service) List(ctx context.Context, page, limit int) ([]Object3D, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.repo.List(ctx, page, limit)
}

func (s *service) Get(ctx context.Context, objectID id.ObjectID) (*Object3D, error) {
	return s.repo.Get(ctx, objectID)
}

func (s *service) Update(ctx context.Context, objectID id.ObjectID, dto UpdateDTO) error {
	return s.repo.Update(ctx, objectID, dto)
}

func (s *service) Delete(ctx context.Context, objectID id.ObjectID) error {
	return s.repo.Delete(ctx, objectID)
}

func (s *service) Search(ctx context.Context, query string) ([]Object3D, error) {
	return s.repo.Search(ctx, query, maxSearchResults)
}

// UploadImage pushes the blob to the media store first; the image row is only
// written once a URL exists, so the record never points at nothing.
func (s *service) UploadImage(ctx context.Context, objectID id.ObjectID, filename, angle string, content io.Reader) (*Image, error) {
	if _, err := s.repo.Get(ctx, objectID); err != nil {
		return nil, err
	}

	url, err := s.media.Upload(ctx, filename, content)
	if err != nil {
		s.logger.Error("media upload failed", zap.String("object_id", string(objectID)), zap.Error(err))
		return nil, err
	}

	img := Image{
		ImageID: string(id.NewObjectID()),
		URL:     url,
		Angle:   angle,
	}
	if err := s.repo.AddImage(ctx, objectID, img); err != nil {
		return nil, err
	}
	return &img, nil
}
