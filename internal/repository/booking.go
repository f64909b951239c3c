package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/langchou/sparkreach/internal/models"
)

// BookingRepository 预约数据仓库
type BookingRepository struct {
	db *DB
}

// NewBookingRepository 创建预约仓库
func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, charger_id, charger_location, charger_area, user_email, user_name, phone,
	vehicle_number, date, slot, duration, hourly_price, total_price, platform_fee, final_total,
	status, payment, idempotency_key, created_at, updated_at`

func scanBooking(row pgx.Row) (*models.Booking, error) {
	b := &models.Booking{}
	var idemKey *string
	err := row.Scan(
		&b.ID,
		&b.ChargerID,
		&b.ChargerLocation,
		&b.ChargerArea,
		&b.UserEmail,
		&b.UserName,
		&b.Phone,
		&b.VehicleNumber,
		&b.Date,
		&b.Slot,
		&b.Duration,
		&b.HourlyPrice,
		&b.TotalPrice,
		&b.PlatformFee,
		&b.FinalTotal,
		&b.Status,
		&b.Payment,
		&idemKey,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if idemKey != nil {
		b.IdempotencyKey = *idemKey
	}
	return b, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create 创建预约，时段已被占用返回 ErrSlotTaken
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		b.ID,
		b.ChargerID,
		b.ChargerLocation,
		b.ChargerArea,
		b.UserEmail,
		b.UserName,
		b.Phone,
		b.VehicleNumber,
		b.Date,
		b.Slot,
		b.Duration,
		b.HourlyPrice,
		b.TotalPrice,
		b.PlatformFee,
		b.FinalTotal,
		b.Status,
		b.Payment,
		nullIfEmpty(b.IdempotencyKey),
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", translate(err))
	}
	return nil
}

// GetByID 获取预约
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", translate(err))
	}
	return b, nil
}

// GetByIdempotencyKey 通过幂等键获取预约
func (r *BookingRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE idempotency_key = $1`
	b, err := scanBooking(r.db.Pool.QueryRow(ctx, query, key))
	if err != nil {
		return nil, fmt.Errorf("get booking by idempotency key: %w", translate(err))
	}
	return b, nil
}

// Update 更新状态与支付信息
func (r *BookingRepository) Update(ctx context.Context, b *models.Booking) error {
	query := `
		UPDATE bookings SET
			status = $2,
			payment = $3,
			updated_at = $4
		WHERE id = $1
	`
	tag, err := r.db.Pool.Exec(ctx, query, b.ID, b.Status, b.Payment, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update booking: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List 按状态列出预约，status 为空表示全部
func (r *BookingRepository) List(ctx context.Context, status string) ([]*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + ` FROM bookings
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
	`
	return r.query(ctx, query, status)
}

// ListByUser 列出某个用户的预约
func (r *BookingRepository) ListByUser(ctx context.Context, email string) ([]*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + ` FROM bookings
		WHERE $1 <> '' AND LOWER(user_email) = LOWER($1)
		ORDER BY created_at DESC
	`
	return r.query(ctx, query, email)
}

func (r *BookingRepository) query(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
