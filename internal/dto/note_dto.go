package dto

import (
	"time"

	"github.com/evalhub/evalhub-api/internal/models"
)

// NoteRequest describes the payload to create or update a note.
type NoteRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content"`
}

// NoteResponse serializes a note.
type NoteResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNoteResponse converts a Note model into a DTO.
func NewNoteResponse(model models.Note) NoteResponse {
	return NoteResponse{
		ID:        model.ID,
		Title:     model.Title,
		Content:   model.Content,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewNoteResponseSlice converts note models into DTOs.
func NewNoteResponseSlice(notes []models.Note) []NoteResponse {
	responses := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		responses = append(responses, NewNoteResponse(note))
	}

	return responses
}
