package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 连接池配置
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateChargers,
		migrationCreateHostApplications,
		migrationCreateBookings,
		migrationCreateUsers,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

const (
	pgUniqueViolation = "23505"
	slotHoldIndex     = "idx_bookings_slot_hold"
)

// translate 把驱动错误转换为仓库错误
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if pgErr.ConstraintName == slotHoldIndex {
			return ErrSlotTaken
		}
		return ErrDuplicate
	}
	return err
}

// 数据库迁移 SQL
const migrationCreateChargers = `
CREATE TABLE IF NOT EXISTS chargers (
    id VARCHAR(64) PRIMARY KEY,
    location VARCHAR(255) NOT NULL,
    area VARCHAR(255) NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    type VARCHAR(20) NOT NULL,
    power VARCHAR(50) NOT NULL,
    price INT NOT NULL CHECK (price > 0),
    rating DOUBLE PRECISION NOT NULL DEFAULT 0,
    reviews INT NOT NULL DEFAULT 0,
    slots JSONB NOT NULL DEFAULT '[]',
    latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
    longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
    image TEXT NOT NULL DEFAULT '',
    additional_images TEXT[] NOT NULL DEFAULT '{}',
    amenities TEXT[] NOT NULL DEFAULT '{}',
    description TEXT NOT NULL DEFAULT '',
    host_name VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_chargers_created_at ON chargers(created_at);
`

const migrationCreateHostApplications = `
CREATE TABLE IF NOT EXISTS host_applications (
    id VARCHAR(64) PRIMARY KEY,
    location VARCHAR(255) NOT NULL,
    area VARCHAR(255) NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    type VARCHAR(20) NOT NULL,
    power VARCHAR(50) NOT NULL,
    price INT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    amenities TEXT[] NOT NULL DEFAULT '{}',
    latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
    longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
    images TEXT[] NOT NULL DEFAULT '{}',
    slots JSONB NOT NULL DEFAULT '[]',
    host_name VARCHAR(255) NOT NULL DEFAULT '',
    host_email VARCHAR(255) NOT NULL DEFAULT '',
    host_phone VARCHAR(50) NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    rejection_reason TEXT NOT NULL DEFAULT '',
    charger_id VARCHAR(64) NOT NULL DEFAULT '',
    submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
    reviewed_at TIMESTAMP WITH TIME ZONE
);
CREATE INDEX IF NOT EXISTS idx_host_applications_status ON host_applications(status);
CREATE INDEX IF NOT EXISTS idx_host_applications_host_email ON host_applications(LOWER(host_email));
`

// 未取消的预约独占 (charger_id, date, slot)
const migrationCreateBookings = `
CREATE TABLE IF NOT EXISTS bookings (
    id VARCHAR(64) PRIMARY KEY,
    charger_id VARCHAR(64) NOT NULL,
    charger_location VARCHAR(255) NOT NULL DEFAULT '',
    charger_area VARCHAR(255) NOT NULL DEFAULT '',
    user_email VARCHAR(255) NOT NULL DEFAULT '',
    user_name VARCHAR(255) NOT NULL,
    phone VARCHAR(50) NOT NULL,
    vehicle_number VARCHAR(50) NOT NULL DEFAULT '',
    date VARCHAR(10) NOT NULL,
    slot VARCHAR(11) NOT NULL,
    duration INT NOT NULL CHECK (duration BETWEEN 1 AND 8),
    hourly_price INT NOT NULL,
    total_price INT NOT NULL,
    platform_fee INT NOT NULL,
    final_total INT NOT NULL,
    status VARCHAR(20) NOT NULL,
    payment JSONB NOT NULL DEFAULT '{}',
    idempotency_key VARCHAR(255),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_slot_hold
    ON bookings(charger_id, date, slot) WHERE status <> 'cancelled';
CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_idempotency_key
    ON bookings(idempotency_key) WHERE idempotency_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status);
CREATE INDEX IF NOT EXISTS idx_bookings_user_email ON bookings(LOWER(user_email));
`

const migrationCreateUsers = `
CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(255) NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL,
    phone VARCHAR(50) NOT NULL DEFAULT '',
    city VARCHAR(100) NOT NULL DEFAULT '',
    ev_details JSONB,
    password_hash TEXT NOT NULL DEFAULT '',
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));
`
