package service

import (
	"context"
	"errors"
	"strings"

	"gamelibrary/internal/access"
	"gamelibrary/internal/apperror"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateReviewRequest targets a library entry. gameId is the legacy spelling of the entry id.
type CreateReviewRequest struct {
	LibraryEntryID uint   `json:"libraryEntryId"`
	EntryIDAlt     uint   `json:"library_entry_id"`
	LegacyGameID   uint   `json:"gameId"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
}

// EntryID resolves the target library entry.
func (r CreateReviewRequest) EntryID() uint {
	return firstNonZero(r.LibraryEntryID, r.EntryIDAlt, r.LegacyGameID)
}

type UpdateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// GameReviews lists a game's reviews with their average rating.
type GameReviews struct {
	GameID        uint                 `json:"game_id"`
	Count         int                  `json:"count"`
	AverageRating decimal.Decimal      `json:"average_rating"`
	Reviews       []model.ReviewDetail `json:"reviews"`
}

type ReviewService interface {
	CreateReview(ctx context.Context, caller access.Caller, req CreateReviewRequest) (*model.Review, error)
	UpdateReview(ctx context.Context, caller access.Caller, id uint, req UpdateReviewRequest) (*model.Review, error)
	DeleteReview(ctx context.Context, caller access.Caller, id uint) error
	ListByGame(ctx context.Context, gameID uint) (*GameReviews, error)
	ListByUser(ctx context.Context, userID uint) ([]model.ReviewDetail, error)
	HasReviewed(ctx context.Context, userID, entryID uint) (bool, error)
}

type reviewService struct {
	reviews   repository.ReviewRepository
	library   repository.LibraryRepository
	txManager repository.TransactionManager
	events    Publisher
}

func NewReviewService(
	reviews repository.ReviewRepository,
	library repository.LibraryRepository,
	txManager repository.TransactionManager,
	events Publisher,
) ReviewService {
	return &reviewService{reviews: reviews, library: library, txManager: txManager, events: publisherOrNoop(events)}
}

func validReviewRating(rating int) bool {
	return rating >= model.MinReviewRating && rating <= model.MaxReviewRating
}

// CreateReview checks, in order: rating range, entry ownership, existing review.
func (s *reviewService) CreateReview(ctx context.Context, caller access.Caller, req CreateReviewRequest) (*model.Review, error) {
	if !validReviewRating(req.Rating) {
		return nil, apperror.ErrInvalidRating
	}

	entryID := req.EntryID()
	review := &model.Review{
		UserID:         caller.ID,
		LibraryEntryID: entryID,
		Rating:         req.Rating,
		Comment:        strings.TrimSpace(req.Comment),
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err := s.library.FindByID(txCtx, entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotOwned
			}
			return apperror.Internalf("failed to fetch library entry", err)
		}
		if entry.UserID != caller.ID {
			return apperror.ErrNotOwned
		}

		exists, err := s.reviews.Exists(txCtx, caller.ID, entryID)
		if err != nil {
			return apperror.Internalf("failed to check existing review", err)
		}
		if exists {
			return apperror.ErrDuplicateReview
		}

		if err := s.reviews.Create(txCtx, review); err != nil {
			if isDuplicate(err) {
				return apperror.ErrDuplicateReview
			}
			return apperror.Internalf("failed to create review", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishToUser(caller.ID, EventReviewCreated, review)
	return review, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, caller access.Caller, id uint, req UpdateReviewRequest) (*model.Review, error) {
	if !validReviewRating(req.Rating) {
		return nil, apperror.ErrInvalidRating
	}

	var review *model.Review
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.authoredReview(txCtx, caller, id)
		if err != nil {
			return err
		}

		comment := strings.TrimSpace(req.Comment)
		if err := s.reviews.Update(txCtx, id, req.Rating, comment); err != nil {
			return apperror.Internalf("failed to update review", err)
		}

		review, err = s.reviews.FindByID(txCtx, existing.ID)
		if err != nil {
			return notFoundOr(err, "review not found", "failed to reload review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishToUser(caller.ID, EventReviewUpdated, review)
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, caller access.Caller, id uint) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.authoredReview(txCtx, caller, id); err != nil {
			return err
		}

		affected, err := s.reviews.Delete(txCtx, id)
		if err != nil {
			return apperror.Internalf("failed to delete review", err)
		}
		if affected == 0 {
			return apperror.New(apperror.NotFound, "review not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.PublishToUser(caller.ID, EventReviewDeleted, map[string]uint{"id": id})
	return nil
}

func (s *reviewService) ListByGame(ctx context.Context, gameID uint) (*GameReviews, error) {
	reviews, err := s.reviews.ListByGame(ctx, gameID)
	if err != nil {
		return nil, apperror.Internalf("failed to fetch reviews", err)
	}

	return &GameReviews{
		GameID:        gameID,
		Count:         len(reviews),
		AverageRating: averageRating(reviews),
		Reviews:       reviews,
	}, nil
}

func (s *reviewService) ListByUser(ctx context.Context, userID uint) ([]model.ReviewDetail, error) {
	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internalf("failed to fetch reviews", err)
	}
	return reviews, nil
}

func (s *reviewService) HasReviewed(ctx context.Context, userID, entryID uint) (bool, error) {
	ok, err := s.reviews.Exists(ctx, userID, entryID)
	if err != nil {
		return false, apperror.Internalf("failed to check review", err)
	}
	return ok, nil
}

// authoredReview loads the review and checks the caller wrote it. Administrators get no exemption.
func (s *reviewService) authoredReview(ctx context.Context, caller access.Caller, id uint) (*model.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "review not found", "failed to fetch review")
	}
	if review.UserID != caller.ID {
		return nil, apperror.ErrNotAuthorized
	}
	return review, nil
}

// averageRating rounds to two decimal places; zero reviews average to zero.
func averageRating(reviews []model.ReviewDetail) decimal.Decimal {
	if len(reviews) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2)
}
