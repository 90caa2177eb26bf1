package annotation

import (
	"context"
	"strings"

	"literature-manager/internal/domain"
	"literature-manager/internal/errors"
)

type Service interface {
	ListAnnotations(ctx context.Context, publicationID uint64) ([]domain.Annotation, error)
	CreateAnnotation(ctx context.Context, publicationID uint64, req CreateRequest) (*domain.Annotation, error)
	UpdateAnnotation(ctx context.Context, publicationID, id uint64, req UpdateRequest) (*domain.Annotation, error)
	DeleteAnnotation(ctx context.Context, publicationID, id uint64) error
}

type DefaultService struct {
	repository Repository
}

func NewService(repository Repository) Service {
	return &DefaultService{repository: repository}
}

// RequiredFields must all be present as keys in a create body, even when
// their value is null.
var RequiredFields = []string{"page_number", "x", "y", "width", "height", "color"}

type CreateRequest struct {
	PageNumber uint    `json:"page_number" binding:"min=1"`
	X          float64 `json:"x" binding:"gte=0"`
	Y          float64 `json:"y" binding:"gte=0"`
	Width      float64 `json:"width" binding:"gte=0"`
	Height     float64 `json:"height" binding:"gte=0"`
	Color      *string `json:"color" binding:"omitempty,max=20"`
	Comment    *string `json:"comment"`
}

type UpdateRequest struct {
	Color   *string `json:"color" binding:"omitempty,max=20"`
	Comment *string `json:"comment"`
}

// colorOrDefault treats null and blank colors alike.
func colorOrDefault(color *string) string {
	if color == nil || strings.TrimSpace(*color) == "" {
		return domain.DefaultAnnotationColor
	}
	return strings.TrimSpace(*color)
}

func (s *DefaultService) ListAnnotations(ctx context.Context, publicationID uint64) ([]domain.Annotation, error) {
	if err := s.requirePublication(ctx, publicationID); err != nil {
		return nil, err
	}
	return s.repository.List(ctx, publicationID)
}

func (s *DefaultService) CreateAnnotation(ctx context.Context, publicationID uint64, req CreateRequest) (*domain.Annotation, error) {
	if err := s.requirePublication(ctx, publicationID); err != nil {
		return nil, err
	}

	annotation := &domain.Annotation{
		PublicationID: publicationID,
		PageNumber:    req.PageNumber,
		X:             req.X,
		Y:             req.Y,
		Width:         req.Width,
		Height:        req.Height,
		Color:         colorOrDefault(req.Color),
	}
	if req.Comment != nil {
		annotation.Comment = *req.Comment
	}

	if err := s.repository.Create(ctx, annotation); err != nil {
		return nil, err
	}
	return annotation, nil
}

func (s *DefaultService) UpdateAnnotation(ctx context.Context, publicationID, id uint64, req UpdateRequest) (*domain.Annotation, error) {
	annotation, err := s.repository.Find(ctx, publicationID, id)
	if err != nil {
		return nil, errors.FromLookup("Annotation", err)
	}

	if req.Comment != nil {
		annotation.Comment = *req.Comment
	}
	if req.Color != nil {
		annotation.Color = colorOrDefault(req.Color)
	}

	if err := s.repository.Update(ctx, annotation); err != nil {
		return nil, err
	}
	return annotation, nil
}

func (s *DefaultService) DeleteAnnotation(ctx context.Context, publicationID, id uint64) error {
	annotation, err := s.repository.Find(ctx, publicationID, id)
	if err != nil {
		return errors.FromLookup("Annotation", err)
	}
	return s.repository.Delete(ctx, annotation)
}

func (s *DefaultService) requirePublication(ctx context.Context, publicationID uint64) error {
	exists, err := s.repository.PublicationExists(ctx, publicationID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("Publication not found", nil)
	}
	return nil
}
