package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/repository"
)

// CategoryService manages the question category catalogue.
type CategoryService interface {
	List(ctx context.Context) ([]dto.CategoryResponse, error)
	Create(ctx context.Context, payload dto.CategoryRequest) (dto.CategoryResponse, error)
	Update(ctx context.Context, id uint, payload dto.CategoryRequest) (dto.CategoryResponse, error)
	Delete(ctx context.Context, id uint) error
}

type categoryService struct {
	categories repository.CategoryRepository
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
}

// NewCategoryService instantiates the category service.
func NewCategoryService(repo repository.CategoryRepository, validate *validator.Validate, logger zerolog.Logger) CategoryService {
	return &categoryService{
		categories: repo,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "category_service").Logger(),
	}
}

func (s *categoryService) List(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, dto.NewCategoryResponse(category))
	}

	return responses, nil
}

func (s *categoryService) Create(ctx context.Context, payload dto.CategoryRequest) (dto.CategoryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CategoryResponse{}, err
	}

	category := models.Category{
		Name:        strings.TrimSpace(s.sanitizer.Sanitize(payload.Name)),
		Description: strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
	}

	if err := s.categories.Create(ctx, &category); err != nil {
		return dto.CategoryResponse{}, err
	}

	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) Update(ctx context.Context, id uint, payload dto.CategoryRequest) (dto.CategoryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CategoryResponse{}, err
	}

	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CategoryResponse{}, ErrCategoryNotFound
		}
		return dto.CategoryResponse{}, err
	}

	category.Name = strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	category.Description = strings.TrimSpace(s.sanitizer.Sanitize(payload.Description))

	if err := s.categories.Update(ctx, &category); err != nil {
		return dto.CategoryResponse{}, err
	}

	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) Delete(ctx context.Context, id uint) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	return s.categories.Delete(ctx, id)
}
