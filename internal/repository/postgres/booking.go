package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/repository"
)

type bookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, booking_number, renter_id, provider_id, equipment_id, booking_type,
	start_time, end_time, duration_hours, duration_days,
	base_price_cents, delivery_fee_cents, operator_fee_cents, discount_cents, tax_cents, total_cents, deposit_cents,
	payment_status, payment_method, paid_amount_cents, paid_at,
	status,
	tracking_lat, tracking_lng, tracking_updated_at, estimated_arrival,
	equipment_rating, equipment_review, operator_rating, operator_review, rated_at,
	cancel_reason, cancelled_by, cancelled_at, refund_amount_cents, refund_status,
	notes, created_on, updated_on`

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	now := time.Now()
	query := `INSERT INTO bookings (booking_number, renter_id, provider_id, equipment_id, booking_type,
	            start_time, end_time, duration_hours, duration_days,
	            base_price_cents, delivery_fee_cents, operator_fee_cents, discount_cents, tax_cents, total_cents, deposit_cents,
	            payment_status, payment_method, paid_amount_cents,
	            status, notes, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	          RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		b.BookingNumber, b.RenterID, b.ProviderID, b.EquipmentID, b.Type,
		b.StartTime, b.EndTime, b.DurationHours, b.DurationDays,
		b.Pricing.BasePriceCents, b.Pricing.DeliveryFeeCents, b.Pricing.OperatorFeeCents,
		b.Pricing.DiscountCents, b.Pricing.TaxCents, b.Pricing.TotalCents, b.Pricing.DepositCents,
		b.Payment.Status, b.Payment.Method, b.Payment.PaidAmountCents,
		b.Status, b.Notes, now, now,
	).Scan(&b.ID)
	if err != nil {
		return mapError(err)
	}
	b.CreatedOn = now
	b.UpdatedOn = now

	for _, h := range b.StatusHistory {
		if err := r.insertHistory(ctx, b.ID, h); err != nil {
			return err
		}
	}
	return nil
}

func (r *bookingRepository) insertHistory(ctx context.Context, bookingID int32, h domain.StatusChange) error {
	query := `INSERT INTO booking_status_history (booking_id, status, changed_at, updated_by, note)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, bookingID, h.Status, h.Timestamp, h.UpdatedBy, h.Note)
	return mapError(err)
}

func (r *bookingRepository) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *bookingRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *bookingRepository) getOne(ctx context.Context, query string, id int32) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	history, err := r.loadHistory(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.StatusHistory = history
	return b, nil
}

func (r *bookingRepository) loadHistory(ctx context.Context, bookingID int32) ([]domain.StatusChange, error) {
	query := `SELECT status, changed_at, updated_by, note FROM booking_status_history
	          WHERE booking_id = $1 ORDER BY changed_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var history []domain.StatusChange
	for rows.Next() {
		var h domain.StatusChange
		if err := rows.Scan(&h.Status, &h.Timestamp, &h.UpdatedBy, &h.Note); err != nil {
			return nil, mapError(err)
		}
		history = append(history, h)
	}
	return history, mapError(rows.Err())
}

// AppendStatus writes the status, payment and cancellation state of the
// booking and appends one history row. Callers run it inside WithinTx so
// the status and its side effects commit together.
func (r *bookingRepository) AppendStatus(ctx context.Context, b *domain.Booking, change domain.StatusChange) error {
	var (
		cancelReason sql.NullString
		cancelledBy  sql.NullInt32
		cancelledAt  sql.NullTime
		refundCents  sql.NullInt32
		refundStatus sql.NullString
	)
	if c := b.Cancellation; c != nil {
		cancelReason = sql.NullString{String: c.Reason, Valid: true}
		cancelledBy = sql.NullInt32{Int32: c.CancelledBy, Valid: true}
		cancelledAt = sql.NullTime{Time: c.CancelledAt, Valid: true}
		refundCents = sql.NullInt32{Int32: c.RefundAmountCents, Valid: true}
		refundStatus = sql.NullString{String: string(c.RefundStatus), Valid: true}
	}

	query := `UPDATE bookings SET status = $1,
	            payment_status = $2, paid_amount_cents = $3, paid_at = $4,
	            cancel_reason = $5, cancelled_by = $6, cancelled_at = $7,
	            refund_amount_cents = $8, refund_status = $9,
	            updated_on = $10
	          WHERE id = $11`
	res, err := r.db.ExecContext(ctx, query,
		b.Status,
		b.Payment.Status, b.Payment.PaidAmountCents, b.Payment.PaidAt,
		cancelReason, cancelledBy, cancelledAt, refundCents, refundStatus,
		time.Now(), b.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	return r.insertHistory(ctx, b.ID, change)
}

func (r *bookingRepository) UpdateTracking(ctx context.Context, b *domain.Booking) error {
	t := b.Tracking
	if t == nil {
		return fmt.Errorf("%w: booking has no tracking info", domain.ErrStorageFailure)
	}
	query := `UPDATE bookings SET tracking_lat = $1, tracking_lng = $2, tracking_updated_at = $3,
	            estimated_arrival = $4, updated_on = $5
	          WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query,
		t.Latitude, t.Longitude, t.LastUpdated, t.EstimatedArrival, time.Now(), b.ID)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *bookingRepository) SetRating(ctx context.Context, b *domain.Booking) error {
	rt := b.Rating
	if rt == nil {
		return fmt.Errorf("%w: booking has no rating", domain.ErrStorageFailure)
	}
	query := `UPDATE bookings SET equipment_rating = $1, equipment_review = $2,
	            operator_rating = $3, operator_review = $4, rated_at = $5, updated_on = $6
	          WHERE id = $7 AND rated_at IS NULL`
	res, err := r.db.ExecContext(ctx, query,
		rt.EquipmentRating, rt.EquipmentReview, rt.OperatorRating, rt.OperatorReview,
		rt.CreatedAt, time.Now(), b.ID)
	if err != nil {
		return mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAlreadyRated
	}
	return nil
}

func (r *bookingRepository) List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.RenterID != nil {
		query += fmt.Sprintf(" AND renter_id = $%d", idx)
		args = append(args, *f.RenterID)
		idx++
	}
	if f.ProviderID != nil {
		query += fmt.Sprintf(" AND provider_id = $%d", idx)
		args = append(args, *f.ProviderID)
		idx++
	}
	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, *f.Status)
		idx++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND start_time >= $%d", idx)
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND start_time <= $%d", idx)
		args = append(args, *f.To)
		idx++
	}
	query += " ORDER BY start_time DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, mapError(rows.Err())
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b            domain.Booking
		paidAt       sql.NullTime
		trackLat     sql.NullFloat64
		trackLng     sql.NullFloat64
		trackAt      sql.NullTime
		eta          sql.NullTime
		eqRating     sql.NullInt32
		eqReview     sql.NullString
		opRating     sql.NullInt32
		opReview     sql.NullString
		ratedAt      sql.NullTime
		cancelReason sql.NullString
		cancelledBy  sql.NullInt32
		cancelledAt  sql.NullTime
		refundCents  sql.NullInt32
		refundStatus sql.NullString
	)

	err := row.Scan(
		&b.ID, &b.BookingNumber, &b.RenterID, &b.ProviderID, &b.EquipmentID, &b.Type,
		&b.StartTime, &b.EndTime, &b.DurationHours, &b.DurationDays,
		&b.Pricing.BasePriceCents, &b.Pricing.DeliveryFeeCents, &b.Pricing.OperatorFeeCents,
		&b.Pricing.DiscountCents, &b.Pricing.TaxCents, &b.Pricing.TotalCents, &b.Pricing.DepositCents,
		&b.Payment.Status, &b.Payment.Method, &b.Payment.PaidAmountCents, &paidAt,
		&b.Status,
		&trackLat, &trackLng, &trackAt, &eta,
		&eqRating, &eqReview, &opRating, &opReview, &ratedAt,
		&cancelReason, &cancelledBy, &cancelledAt, &refundCents, &refundStatus,
		&b.Notes, &b.CreatedOn, &b.UpdatedOn,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if paidAt.Valid {
		b.Payment.PaidAt = &paidAt.Time
	}
	if trackLat.Valid && trackLng.Valid {
		b.Tracking = &domain.TrackingInfo{
			Latitude:    trackLat.Float64,
			Longitude:   trackLng.Float64,
			LastUpdated: trackAt.Time,
		}
		if eta.Valid {
			b.Tracking.EstimatedArrival = &eta.Time
		}
	}
	if ratedAt.Valid {
		b.Rating = &domain.BookingRating{
			EquipmentRating: eqRating.Int32,
			EquipmentReview: eqReview.String,
			OperatorReview:  opReview.String,
			CreatedAt:       ratedAt.Time,
		}
		if opRating.Valid {
			b.Rating.OperatorRating = &opRating.Int32
		}
	}
	if cancelledAt.Valid {
		b.Cancellation = &domain.CancellationDetail{
			Reason:            cancelReason.String,
			CancelledBy:       cancelledBy.Int32,
			CancelledAt:       cancelledAt.Time,
			RefundAmountCents: refundCents.Int32,
			RefundStatus:      domain.RefundStatus(refundStatus.String),
		}
	}
	return &b, nil
}
