package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/repository"
)

type equipmentRepository struct {
	db DBTX
}

func NewEquipmentRepository(db DBTX) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

const equipmentColumns = `id, owner_id, name, description, category, sub_category,
	manufacturer, model, year, specifications,
	rate_per_hour_cents, rate_per_day_cents, rate_per_week_cents, minimum_rental_hours, deposit_cents, discounts,
	latitude, longitude, address, is_available,
	operator_included, operator_fee_cents, operator_fee_hourly, delivery_available, delivery_fee_cents,
	rating_average, rating_count, status, created_on, updated_on`

func (r *equipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	specs, err := json.Marshal(e.Specifications)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	addr, err := json.Marshal(e.Address)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	discounts, err := json.Marshal(e.Discounts)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	now := time.Now()
	query := `INSERT INTO equipment (owner_id, name, description, category, sub_category,
	            manufacturer, model, year, specifications,
	            rate_per_hour_cents, rate_per_day_cents, rate_per_week_cents, minimum_rental_hours, deposit_cents, discounts,
	            latitude, longitude, address, is_available,
	            operator_included, operator_fee_cents, operator_fee_hourly, delivery_available, delivery_fee_cents,
	            rating_average, rating_count, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
	                  $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
	          RETURNING id`
	err = r.db.QueryRowContext(ctx, query,
		e.OwnerID, e.Name, e.Description, e.Category, e.SubCategory,
		e.Manufacturer, e.Model, e.Year, specs,
		e.RatePerHourCents, e.RatePerDayCents, e.RatePerWeekCents, e.MinimumRentalHours, e.DepositCents, discounts,
		e.Latitude, e.Longitude, addr, e.IsAvailable,
		e.OperatorIncluded, e.OperatorFeeCents, e.OperatorFeeHourly, e.DeliveryAvailable, e.DeliveryFeeCents,
		e.RatingAverage, e.RatingCount, e.Status, now, now,
	).Scan(&e.ID)
	if err != nil {
		return mapError(err)
	}
	e.CreatedOn = now
	e.UpdatedOn = now
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, id int32) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`
	return scanEquipment(r.db.QueryRowContext(ctx, query, id))
}

func (r *equipmentRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 FOR UPDATE`
	return scanEquipment(r.db.QueryRowContext(ctx, query, id))
}

func (r *equipmentRepository) Update(ctx context.Context, e *domain.Equipment) error {
	specs, err := json.Marshal(e.Specifications)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	addr, err := json.Marshal(e.Address)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	discounts, err := json.Marshal(e.Discounts)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	query := `UPDATE equipment SET name = $1, description = $2, category = $3, sub_category = $4,
	            manufacturer = $5, model = $6, year = $7, specifications = $8,
	            rate_per_hour_cents = $9, rate_per_day_cents = $10, rate_per_week_cents = $11,
	            minimum_rental_hours = $12, deposit_cents = $13, discounts = $14,
	            latitude = $15, longitude = $16, address = $17,
	            operator_included = $18, operator_fee_cents = $19, operator_fee_hourly = $20,
	            delivery_available = $21, delivery_fee_cents = $22, status = $23, updated_on = $24
	          WHERE id = $25`
	res, err := r.db.ExecContext(ctx, query,
		e.Name, e.Description, e.Category, e.SubCategory,
		e.Manufacturer, e.Model, e.Year, specs,
		e.RatePerHourCents, e.RatePerDayCents, e.RatePerWeekCents,
		e.MinimumRentalHours, e.DepositCents, discounts,
		e.Latitude, e.Longitude, addr,
		e.OperatorIncluded, e.OperatorFeeCents, e.OperatorFeeHourly,
		e.DeliveryAvailable, e.DeliveryFeeCents, e.Status, time.Now(), e.ID)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) SetAvailability(ctx context.Context, id int32, available bool) error {
	query := `UPDATE equipment SET is_available = $1, updated_on = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, available, time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) UpdateRatingAggregate(ctx context.Context, id int32, average float64, count int32) error {
	query := `UPDATE equipment SET rating_average = $1, rating_count = $2, updated_on = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, average, count, time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) List(ctx context.Context, f repository.EquipmentFilter) ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE status <> 'inactive'`
	var args []interface{}
	idx := 1

	if f.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, *f.Category)
		idx++
	}
	if f.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", idx)
		args = append(args, *f.OwnerID)
		idx++
	}
	if f.OnlyAvailable {
		query += " AND is_available = TRUE"
	}
	query += " ORDER BY created_on DESC"

	return r.queryMany(ctx, query, args...)
}

// ListNearby delegates proximity ordering to the earthdistance index.
func (r *equipmentRepository) ListNearby(ctx context.Context, lat, lng, radiusKm float64, limit int32) ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment
	          WHERE status <> 'inactive' AND is_available = TRUE
	            AND earth_distance(ll_to_earth(latitude, longitude), ll_to_earth($1, $2)) <= $3
	          ORDER BY earth_distance(ll_to_earth(latitude, longitude), ll_to_earth($1, $2)) ASC
	          LIMIT $4`
	return r.queryMany(ctx, query, lat, lng, radiusKm*1000, limit)
}

func (r *equipmentRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]domain.Equipment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var items []domain.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	return items, mapError(rows.Err())
}

func (r *equipmentRepository) AddReview(ctx context.Context, rv *domain.Review) error {
	query := `INSERT INTO equipment_reviews (equipment_id, renter_id, rating, comment, created_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	now := time.Now()
	if err := r.db.QueryRowContext(ctx, query, rv.EquipmentID, rv.RenterID, rv.Rating, rv.Comment, now).Scan(&rv.ID); err != nil {
		return mapError(err)
	}
	rv.CreatedOn = now
	return nil
}

func (r *equipmentRepository) GetReviewByRenter(ctx context.Context, equipmentID, renterID int32) (*domain.Review, error) {
	query := `SELECT id, equipment_id, renter_id, rating, comment, created_on
	          FROM equipment_reviews WHERE equipment_id = $1 AND renter_id = $2`
	var rv domain.Review
	err := r.db.QueryRowContext(ctx, query, equipmentID, renterID).
		Scan(&rv.ID, &rv.EquipmentID, &rv.RenterID, &rv.Rating, &rv.Comment, &rv.CreatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	return &rv, nil
}

func (r *equipmentRepository) ListReviews(ctx context.Context, equipmentID int32) ([]domain.Review, error) {
	query := `SELECT id, equipment_id, renter_id, rating, comment, created_on
	          FROM equipment_reviews WHERE equipment_id = $1 ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, equipmentID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.EquipmentID, &rv.RenterID, &rv.Rating, &rv.Comment, &rv.CreatedOn); err != nil {
			return nil, mapError(err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, mapError(rows.Err())
}

func scanEquipment(row rowScanner) (*domain.Equipment, error) {
	var (
		e         domain.Equipment
		specs     []byte
		addr      []byte
		discounts []byte
		year      sql.NullInt32
	)
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.Name, &e.Description, &e.Category, &e.SubCategory,
		&e.Manufacturer, &e.Model, &year, &specs,
		&e.RatePerHourCents, &e.RatePerDayCents, &e.RatePerWeekCents, &e.MinimumRentalHours, &e.DepositCents, &discounts,
		&e.Latitude, &e.Longitude, &addr, &e.IsAvailable,
		&e.OperatorIncluded, &e.OperatorFeeCents, &e.OperatorFeeHourly, &e.DeliveryAvailable, &e.DeliveryFeeCents,
		&e.RatingAverage, &e.RatingCount, &e.Status, &e.CreatedOn, &e.UpdatedOn,
	)
	if err != nil {
		return nil, mapError(err)
	}
	e.Year = year.Int32

	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &e.Specifications); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
		}
	}
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &e.Address); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
		}
	}
	if len(discounts) > 0 {
		if err := json.Unmarshal(discounts, &e.Discounts); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
		}
	}
	return &e, nil
}
