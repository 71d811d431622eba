package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuchenlin/studyhub-server/internal/models"
)

func (s *DefaultService) ListNotes(ctx context.Context, courseID int64) (*models.NoteListResponse, error) {
	notes, err := s.repo.GetNotesByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("error getting notes: %w", err)
	}

	views := make([]models.NoteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, noteView(&n.Note, n.AuthorName))
	}

	return &models.NoteListResponse{
		Status: "success",
		Notes:  views,
	}, nil
}

func (s *DefaultService) AddNote(
	ctx context.Context,
	userID int64,
	req models.AddNoteRequest,
) (*models.NoteResponse, error) {
	course, err := s.repo.GetCourse(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("error getting course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	note := &models.Note{
		CourseID: req.CourseID,
		UserID:   userID,
		Title:    strings.TrimSpace(req.Title),
		Price:    req.Price,
		FileURL:  noteFileURL(req.FileName),
	}

	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("error creating note: %w", err)
	}

	view := noteView(note, user.Name)
	return &models.NoteResponse{
		Status: "success",
		Note:   view,
	}, nil
}

// PurchaseNote resolves the note's price server-side and spends exactly
// that amount from the buyer's wallet. Free notes skip the ledger
// entirely (a zero spend is not a valid ledger operation).
func (s *DefaultService) PurchaseNote(
	ctx context.Context,
	userID, noteID int64,
) (*models.WalletTransactionResponse, error) {
	note, err := s.repo.GetNote(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("error getting note: %w", err)
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}

	if note.Price == 0 {
		balance, err := s.repo.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &models.WalletTransactionResponse{
			Status: "success",
			Points: balance,
		}, nil
	}

	return s.SpendPoints(ctx, userID, models.WalletUseRequest{
		Amount:  note.Price,
		Message: "bought note: " + note.Title,
	})
}

// noteFileURL builds the stored object path for an uploaded note file.
// The uuid prefix keeps colliding client file names apart.
func noteFileURL(fileName string) string {
	safe := strings.Join(strings.Fields(fileName), "_")
	return "/uploads/notes/" + uuid.New().String() + "-" + safe
}

func noteView(note *models.Note, authorName string) models.NoteView {
	return models.NoteView{
		ID:         note.ID,
		AuthorName: authorName,
		Title:      note.Title,
		Price:      note.Price,
		FileURL:    note.FileURL,
		PreviewURL: note.FileURL,
		CreatedAt:  note.CreatedAt.Format(time.RFC3339),
	}
}
