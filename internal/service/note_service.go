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

// NoteService manages per-user scratch notes.
type NoteService interface {
	List(ctx context.Context, principal Principal) ([]dto.NoteResponse, error)
	Create(ctx context.Context, principal Principal, payload dto.NoteRequest) (dto.NoteResponse, error)
	Update(ctx context.Context, principal Principal, id uint, payload dto.NoteRequest) (dto.NoteResponse, error)
	Delete(ctx context.Context, principal Principal, id uint) error
}

type noteService struct {
	notes     repository.NoteRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewNoteService instantiates the note service.
func NewNoteService(repo repository.NoteRepository, validate *validator.Validate, logger zerolog.Logger) NoteService {
	return &noteService{
		notes:     repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "note_service").Logger(),
	}
}

func (s *noteService) List(ctx context.Context, principal Principal) ([]dto.NoteResponse, error) {
	notes, err := s.notes.ListByUser(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewNoteResponseSlice(notes), nil
}

func (s *noteService) Create(ctx context.Context, principal Principal, payload dto.NoteRequest) (dto.NoteResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NoteResponse{}, err
	}

	note := models.Note{
		UserID:  principal.ID,
		Title:   strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Content: s.sanitizer.Sanitize(payload.Content),
	}

	if err := s.notes.Create(ctx, &note); err != nil {
		return dto.NoteResponse{}, err
	}

	return dto.NewNoteResponse(note), nil
}

func (s *noteService) Update(ctx context.Context, principal Principal, id uint, payload dto.NoteRequest) (dto.NoteResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NoteResponse{}, err
	}

	note, err := s.loadOwned(ctx, principal, id)
	if err != nil {
		return dto.NoteResponse{}, err
	}

	note.Title = strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	note.Content = s.sanitizer.Sanitize(payload.Content)

	if err := s.notes.Update(ctx, &note); err != nil {
		return dto.NoteResponse{}, err
	}

	return dto.NewNoteResponse(note), nil
}

func (s *noteService) Delete(ctx context.Context, principal Principal, id uint) error {
	if _, err := s.loadOwned(ctx, principal, id); err != nil {
		return err
	}

	return s.notes.Delete(ctx, id)
}

func (s *noteService) loadOwned(ctx context.Context, principal Principal, id uint) (models.Note, error) {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Note{}, ErrNoteNotFound
		}
		return models.Note{}, err
	}

	if note.UserID != principal.ID {
		return models.Note{}, ErrNotResourceOwner
	}

	return note, nil
}
