package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/langchou/sparkreach/internal/models"
)

// UserRepository 用户数据仓库
type UserRepository struct {
	db *DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, phone, city, ev_details, password_hash, joined_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.City,
		&u.EVDetails,
		&u.PasswordHash,
		&u.JoinedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create 注册用户，邮箱重复返回 ErrDuplicate
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Pool.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.Phone,
		u.City,
		u.EVDetails,
		u.PasswordHash,
		u.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

// GetByEmail 通过邮箱获取用户
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(r.db.Pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", translate(err))
	}
	return u, nil
}

// List 列出全部用户
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY joined_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
