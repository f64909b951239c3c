package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/langchou/sparkreach/internal/models"
)

// ChargerRepository 充电桩数据仓库
type ChargerRepository struct {
	db *DB
}

// NewChargerRepository 创建充电桩仓库
func NewChargerRepository(db *DB) *ChargerRepository {
	return &ChargerRepository{db: db}
}

const chargerColumns = `id, location, area, address, type, power, price, rating, reviews, slots,
	latitude, longitude, image, additional_images, amenities, description, host_name, created_at`

func scanCharger(row pgx.Row) (*models.Charger, error) {
	c := &models.Charger{}
	err := row.Scan(
		&c.ID,
		&c.Location,
		&c.Area,
		&c.Address,
		&c.Type,
		&c.Power,
		&c.Price,
		&c.Rating,
		&c.Reviews,
		&c.Slots,
		&c.Latitude,
		&c.Longitude,
		&c.Image,
		&c.AdditionalImages,
		&c.Amenities,
		&c.Description,
		&c.HostName,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create 上架充电桩
func (r *ChargerRepository) Create(ctx context.Context, c *models.Charger) error {
	query := `
		INSERT INTO chargers (` + chargerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		c.ID,
		c.Location,
		c.Area,
		c.Address,
		c.Type,
		c.Power,
		c.Price,
		c.Rating,
		c.Reviews,
		c.Slots,
		c.Latitude,
		c.Longitude,
		c.Image,
		nonNil(c.AdditionalImages),
		nonNil(c.Amenities),
		c.Description,
		c.HostName,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert charger: %w", translate(err))
	}
	return nil
}

// Seed 写入初始目录，已存在的 ID 跳过
func (r *ChargerRepository) Seed(ctx context.Context, chargers []*models.Charger) error {
	query := `
		INSERT INTO chargers (` + chargerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, c := range chargers {
		batch.Queue(query,
			c.ID, c.Location, c.Area, c.Address, c.Type, c.Power, c.Price, c.Rating, c.Reviews, c.Slots,
			c.Latitude, c.Longitude, c.Image, nonNil(c.AdditionalImages), nonNil(c.Amenities),
			c.Description, c.HostName, c.CreatedAt,
		)
	}
	if err := r.db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed chargers: %w", err)
	}
	return nil
}

// GetByID 通过 ID 获取充电桩
func (r *ChargerRepository) GetByID(ctx context.Context, id string) (*models.Charger, error) {
	query := `SELECT ` + chargerColumns + ` FROM chargers WHERE id = $1`
	c, err := scanCharger(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get charger by id: %w", translate(err))
	}
	return c, nil
}

// List 获取全部充电桩
func (r *ChargerRepository) List(ctx context.Context) ([]*models.Charger, error) {
	query := `SELECT ` + chargerColumns + ` FROM chargers ORDER BY created_at, id`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list chargers: %w", err)
	}
	defer rows.Close()

	var chargers []*models.Charger
	for rows.Next() {
		c, err := scanCharger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan charger: %w", err)
		}
		chargers = append(chargers, c)
	}
	return chargers, rows.Err()
}

// Count 统计充电桩数量
func (r *ChargerRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM chargers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chargers: %w", err)
	}
	return count, nil
}

// nonNil text[] 列不接受 NULL
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
