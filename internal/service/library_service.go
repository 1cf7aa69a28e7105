package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gamelibrary/internal/access"
	"gamelibrary/internal/apperror"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
)

// AddToLibraryRequest accepts the legacy field spellings sent by older clients.
type AddToLibraryRequest struct {
	UserID          FlexID `json:"userId"`
	UserIDAlt       FlexID `json:"user_id"`
	GameID          FlexID `json:"gameId"`
	GameIDAlt       FlexID `json:"game_id"`
	Titulo          string `json:"titulo"`
	Title           string `json:"title"`
	Name            string `json:"name"`
	ImagenURL       string `json:"imagen_url"`
	ImageURL        string `json:"image_url"`
	BackgroundImage string `json:"background_image"`
	Platform        string `json:"platform"`
	Plataforma      string `json:"plataforma"`
	Description     string `json:"description"`
	Genre           string `json:"genre"`
	Released        string `json:"released"`
}

// FlexID is an id that decodes from a JSON number or a numeric string.
// Null and zero decode to 0, meaning absent.
type FlexID uint

func (id *FlexID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*id = 0
		return nil
	case float64:
		if v == 0 {
			*id = 0
			return nil
		}
	case string:
		if strings.TrimSpace(v) == "" || strings.TrimSpace(v) == "0" {
			*id = 0
			return nil
		}
	}
	parsed, ok := access.ParseOwnerID(raw)
	if !ok {
		return fmt.Errorf("invalid id %s", string(data))
	}
	*id = FlexID(parsed)
	return nil
}

// Owner is the target user id.
func (r AddToLibraryRequest) Owner() uint { return firstNonZero(uint(r.UserID), uint(r.UserIDAlt)) }

// Game is the catalog id.
func (r AddToLibraryRequest) Game() uint { return firstNonZero(uint(r.GameID), uint(r.GameIDAlt)) }

// ResolvedTitle picks titulo, then title, then name.
func (r AddToLibraryRequest) ResolvedTitle() string {
	return firstNonEmpty(r.Titulo, r.Title, r.Name)
}

// ResolvedImage picks imagen_url, then image_url, then background_image.
func (r AddToLibraryRequest) ResolvedImage() string {
	return firstNonEmpty(r.ImagenURL, r.ImageURL, r.BackgroundImage)
}

// UpdateEntryRequest is a partial update. Absent fields keep their value.
type UpdateEntryRequest struct {
	Status     *string `json:"status" binding:"omitempty,librarystatus"`
	Rating     *int    `json:"rating"`
	Valoracion *int    `json:"valoracion"`
}

func (r UpdateEntryRequest) rating() *int {
	if r.Rating != nil {
		return r.Rating
	}
	return r.Valoracion
}

type LibraryService interface {
	AddToLibrary(ctx context.Context, caller access.Caller, req AddToLibraryRequest) (*model.LibraryEntry, error)
	GetUserLibrary(ctx context.Context, userID uint) ([]model.LibraryEntry, error)
	GetEntry(ctx context.Context, caller access.Caller, id uint) (*model.LibraryEntry, error)
	UpdateEntry(ctx context.Context, caller access.Caller, id uint, req UpdateEntryRequest) (*model.LibraryEntry, error)
	DeleteEntry(ctx context.Context, caller access.Caller, id uint) error
}

type libraryService struct {
	library   repository.LibraryRepository
	games     repository.GameRepository
	txManager repository.TransactionManager
	events    Publisher
}

func NewLibraryService(
	library repository.LibraryRepository,
	games repository.GameRepository,
	txManager repository.TransactionManager,
	events Publisher,
) LibraryService {
	return &libraryService{library: library, games: games, txManager: txManager, events: publisherOrNoop(events)}
}

func (s *libraryService) AddToLibrary(ctx context.Context, caller access.Caller, req AddToLibraryRequest) (*model.LibraryEntry, error) {
	ownerID, gameID, title := req.Owner(), req.Game(), req.ResolvedTitle()
	if ownerID == 0 || gameID == 0 || title == "" {
		return nil, apperror.New(apperror.Validation, "missing required fields: userId, gameId, title")
	}

	if ownerID != caller.ID && !caller.Admin {
		return nil, apperror.New(apperror.Forbidden, "cannot add games to another user's library")
	}

	platform := firstNonEmpty(req.Platform, req.Plataforma)
	entry := &model.LibraryEntry{
		UserID:   ownerID,
		GameID:   gameID,
		Title:    title,
		ImageURL: req.ResolvedImage(),
		Platform: platform,
		Status:   model.StatusPending,
		Rating:   0,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		game := &model.Game{
			ID:          gameID,
			Title:       title,
			Description: req.Description,
			Genre:       req.Genre,
			Platform:    platform,
			ImageURL:    entry.ImageURL,
			Released:    req.Released,
		}
		if err := s.games.Upsert(txCtx, game); err != nil {
			return apperror.Internalf("failed to store game", err)
		}

		exists, err := s.library.Exists(txCtx, ownerID, gameID)
		if err != nil {
			return apperror.Internalf("failed to check library", err)
		}
		if exists {
			return apperror.ErrDuplicateEntry
		}

		if err := s.library.Create(txCtx, entry); err != nil {
			if isDuplicate(err) {
				return apperror.ErrDuplicateEntry
			}
			return apperror.Internalf("failed to add game to library", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishToUser(entry.UserID, EventLibraryAdded, entry)
	return entry, nil
}

func (s *libraryService) GetUserLibrary(ctx context.Context, userID uint) ([]model.LibraryEntry, error) {
	entries, err := s.library.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internalf("failed to fetch library", err)
	}
	return entries, nil
}

func (s *libraryService) GetEntry(ctx context.Context, caller access.Caller, id uint) (*model.LibraryEntry, error) {
	return s.ownedEntry(ctx, caller, id)
}

func (s *libraryService) UpdateEntry(ctx context.Context, caller access.Caller, id uint, req UpdateEntryRequest) (*model.LibraryEntry, error) {
	rating := req.rating()
	if req.Status == nil && rating == nil {
		return nil, apperror.New(apperror.Validation, "nothing to update: provide status or rating")
	}

	fields := map[string]interface{}{}
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if !model.ValidStatus(status) {
			return nil, apperror.New(apperror.Validation, "status must be one of pending, playing, completed, dropped")
		}
		fields["status"] = status
	}
	if rating != nil {
		if *rating < model.MinEntryRating || *rating > model.MaxEntryRating {
			return nil, apperror.New(apperror.Validation, "rating must be between 0 and 5")
		}
		fields["rating"] = *rating
	}

	var entry *model.LibraryEntry
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.ownedEntry(txCtx, caller, id); err != nil {
			return err
		}

		if _, err := s.library.Update(txCtx, id, fields); err != nil {
			return apperror.Internalf("failed to update library entry", err)
		}

		updated, err := s.library.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "library entry not found", "failed to reload library entry")
		}
		entry = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishToUser(entry.UserID, EventLibraryUpdated, entry)
	return entry, nil
}

func (s *libraryService) DeleteEntry(ctx context.Context, caller access.Caller, id uint) error {
	var ownerID uint
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err := s.ownedEntry(txCtx, caller, id)
		if err != nil {
			return err
		}
		ownerID = entry.UserID

		affected, err := s.library.Delete(txCtx, id)
		if err != nil {
			return apperror.Internalf("failed to delete library entry", err)
		}
		if affected == 0 {
			return apperror.New(apperror.NotFound, "library entry not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.PublishToUser(ownerID, EventLibraryRemoved, map[string]uint{"id": id})
	return nil
}

// ownedEntry loads the entry and checks the caller owns it or is an administrator.
func (s *libraryService) ownedEntry(ctx context.Context, caller access.Caller, id uint) (*model.LibraryEntry, error) {
	entry, err := s.library.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "library entry not found", "failed to fetch library entry")
	}
	if entry.UserID != caller.ID && !caller.Admin {
		return nil, apperror.New(apperror.Forbidden, "library entry belongs to another user")
	}
	return entry, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...uint) uint {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
