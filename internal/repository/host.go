package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/langchou/sparkreach/internal/models"
)

// HostRepository 房东申请数据仓库
type HostRepository struct {
	db *DB
}

// NewHostRepository 创建房东申请仓库
func NewHostRepository(db *DB) *HostRepository {
	return &HostRepository{db: db}
}

const hostColumns = `id, location, area, address, type, power, price, description, amenities,
	latitude, longitude, images, slots, host_name, host_email, host_phone, status,
	rejection_reason, charger_id, submitted_at, reviewed_at`

func scanHost(row pgx.Row) (*models.HostApplication, error) {
	h := &models.HostApplication{}
	err := row.Scan(
		&h.ID,
		&h.Location,
		&h.Area,
		&h.Address,
		&h.Type,
		&h.Power,
		&h.Price,
		&h.Description,
		&h.Amenities,
		&h.Latitude,
		&h.Longitude,
		&h.Images,
		&h.Slots,
		&h.HostName,
		&h.HostEmail,
		&h.HostPhone,
		&h.Status,
		&h.RejectionReason,
		&h.ChargerID,
		&h.SubmittedAt,
		&h.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Create 创建申请
func (r *HostRepository) Create(ctx context.Context, h *models.HostApplication) error {
	query := `
		INSERT INTO host_applications (` + hostColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		h.ID,
		h.Location,
		h.Area,
		h.Address,
		h.Type,
		h.Power,
		h.Price,
		h.Description,
		nonNil(h.Amenities),
		h.Latitude,
		h.Longitude,
		nonNil(h.Images),
		h.Slots,
		h.HostName,
		h.HostEmail,
		h.HostPhone,
		h.Status,
		h.RejectionReason,
		h.ChargerID,
		h.SubmittedAt,
		h.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("insert host application: %w", translate(err))
	}
	return nil
}

// GetByID 获取申请
func (r *HostRepository) GetByID(ctx context.Context, id string) (*models.HostApplication, error) {
	query := `SELECT ` + hostColumns + ` FROM host_applications WHERE id = $1`
	h, err := scanHost(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get host application: %w", translate(err))
	}
	return h, nil
}

// Update 更新审核结果
func (r *HostRepository) Update(ctx context.Context, h *models.HostApplication) error {
	query := `
		UPDATE host_applications SET
			status = $2,
			rejection_reason = $3,
			charger_id = $4,
			reviewed_at = $5
		WHERE id = $1
	`
	tag, err := r.db.Pool.Exec(ctx, query, h.ID, h.Status, h.RejectionReason, h.ChargerID, h.ReviewedAt)
	if err != nil {
		return fmt.Errorf("update host application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List 按状态列出申请，status 为空表示全部
func (r *HostRepository) List(ctx context.Context, status string) ([]*models.HostApplication, error) {
	query := `
		SELECT ` + hostColumns + ` FROM host_applications
		WHERE ($1 = '' OR status = $1)
		ORDER BY submitted_at
	`
	return r.query(ctx, query, status)
}

// ListByEmail 列出某个房东的申请
func (r *HostRepository) ListByEmail(ctx context.Context, email string) ([]*models.HostApplication, error) {
	query := `
		SELECT ` + hostColumns + ` FROM host_applications
		WHERE LOWER(host_email) = LOWER($1)
		ORDER BY submitted_at
	`
	return r.query(ctx, query, email)
}

func (r *HostRepository) query(ctx context.Context, query string, args ...any) ([]*models.HostApplication, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list host applications: %w", err)
	}
	defer rows.Close()

	var hosts []*models.HostApplication
	for rows.Next() {
		h, err := scanHost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan host application: %w", err)
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}
