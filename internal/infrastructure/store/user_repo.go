package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/example/rental-marketplace/internal/domain/user"
)

// UserRepository implements user persistence on PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role))
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return user.ErrEmailTaken
	}
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*user.User, error) {
	var (
		u    user.User
		role string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, role
		FROM users `+where, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role)
	if err == sql.ErrNoRows {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = user.Role(role)
	return &u, nil
}
