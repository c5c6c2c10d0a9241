package service

import (
	"context"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/logger"
	"agrirent-backend/internal/policy"
	"agrirent-backend/internal/repository"
)

type equipmentService struct {
	store repository.Store
}

func NewEquipmentService(store repository.Store) EquipmentService {
	return &equipmentService{store: store}
}

func (s *equipmentService) AddEquipment(ctx context.Context, actor domain.Actor, e *domain.Equipment) error {
	if actor.Role != domain.RoleProvider && actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	if e.OwnerID == 0 {
		e.OwnerID = actor.ID
	}
	if e.Status == "" {
		e.Status = domain.EquipmentStatusActive
	}
	e.IsAvailable = true
	if err := s.store.Equipment().Create(ctx, e); err != nil {
		return err
	}
	logger.Info("equipment added", "equipment_id", e.ID, "owner_id", e.OwnerID, "category", e.Category)
	return nil
}

// UpdateEquipment replaces the owner-editable fields of a listing.
// Ownership, the availability flag and the rating aggregate are preserved
// from the stored row; they have dedicated flows.
func (s *equipmentService) UpdateEquipment(ctx context.Context, actor domain.Actor, e *domain.Equipment) (*domain.Equipment, error) {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Equipment().GetByIDForUpdate(ctx, e.ID)
		if err != nil {
			return err
		}
		if !policy.CanManageEquipment(actor, current) {
			return domain.ErrForbidden
		}
		e.OwnerID = current.OwnerID
		e.IsAvailable = current.IsAvailable
		e.RatingAverage = current.RatingAverage
		e.RatingCount = current.RatingCount
		e.CreatedOn = current.CreatedOn
		if e.Status == "" {
			e.Status = current.Status
		}
		return tx.Equipment().Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("equipment updated", "equipment_id", e.ID, "owner_id", e.OwnerID)
	return e, nil
}

func (s *equipmentService) GetEquipment(ctx context.Context, id int32) (*domain.Equipment, error) {
	return s.store.Equipment().GetByID(ctx, id)
}

func (s *equipmentService) ListEquipment(ctx context.Context, f repository.EquipmentFilter) ([]domain.Equipment, error) {
	return s.store.Equipment().List(ctx, f)
}

func (s *equipmentService) NearbyEquipment(ctx context.Context, lat, lng, radiusKm float64, limit int32) ([]domain.Equipment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.Equipment().ListNearby(ctx, lat, lng, radiusKm, limit)
}

// SetAvailability flips the owner-controlled availability flag. It has no
// effect on intervals already reserved.
func (s *equipmentService) SetAvailability(ctx context.Context, actor domain.Actor, id int32, available bool) (*domain.Equipment, error) {
	var eq *domain.Equipment
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		eq, err = tx.Equipment().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !policy.CanManageEquipment(actor, eq) {
			return domain.ErrForbidden
		}
		eq.IsAvailable = available
		return tx.Equipment().SetAvailability(ctx, id, available)
	})
	if err != nil {
		return nil, err
	}
	return eq, nil
}

func (s *equipmentService) ListReviews(ctx context.Context, equipmentID int32) ([]domain.Review, error) {
	if _, err := s.store.Equipment().GetByID(ctx, equipmentID); err != nil {
		return nil, err
	}
	return s.store.Equipment().ListReviews(ctx, equipmentID)
}
