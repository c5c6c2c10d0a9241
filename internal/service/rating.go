package service

import (
	"context"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/repository"
)

type ratingAggregator struct {
	store repository.Store
}

func NewRatingAggregator(store repository.Store) RatingAggregator {
	return &ratingAggregator{store: store}
}

// AttachReview appends a review and recomputes the equipment's rating
// aggregate in one transaction. Reviews are append-only: one per reviewer
// per equipment, never edited or removed.
func (s *ratingAggregator) AttachReview(ctx context.Context, equipmentID, reviewerID, rating int32, comment string) (*domain.Review, error) {
	var review *domain.Review
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		review, err = attachReview(ctx, tx, equipmentID, reviewerID, rating, comment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// attachReview does the work under an already-open transaction so the
// booking rating path can share it. The equipment row lock serializes
// concurrent aggregate updates.
func attachReview(ctx context.Context, tx repository.Store, equipmentID, reviewerID, rating int32, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.ErrInvalidRating
	}

	eq, err := tx.Equipment().GetByIDForUpdate(ctx, equipmentID)
	if err != nil {
		return nil, err
	}

	existing, err := tx.Equipment().GetReviewByRenter(ctx, equipmentID, reviewerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyReviewed
	}

	review := &domain.Review{
		EquipmentID: equipmentID,
		RenterID:    reviewerID,
		Rating:      rating,
		Comment:     comment,
		CreatedOn:   time.Now(),
	}
	if err := tx.Equipment().AddReview(ctx, review); err != nil {
		return nil, err
	}

	newCount := eq.RatingCount + 1
	newAverage := (eq.RatingAverage*float64(eq.RatingCount) + float64(rating)) / float64(newCount)
	if err := tx.Equipment().UpdateRatingAggregate(ctx, equipmentID, newAverage, newCount); err != nil {
		return nil, err
	}
	return review, nil
}
