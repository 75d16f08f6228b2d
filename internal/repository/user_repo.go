package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"teammy/internal/model"
)

var ErrNotGroupMember = errors.New("user is not a member of the group")

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) error {
	defer observeQuery("insert", "users", time.Now())

	query := `
        INSERT INTO users (email, password_hash, created_at)
        VALUES ($1, $2, NOW())
        RETURNING id
    `
	return r.db.QueryRow(ctx, query, u.Email, u.PasswordHash).Scan(&u.ID)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	defer observeQuery("find_by_email", "users", time.Now())

	query := `
        SELECT id, email, password_hash, created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetMemberRole returns the user's role inside a group, or ErrNotGroupMember.
func (r *UserRepository) GetMemberRole(ctx context.Context, groupID string, userID int) (string, error) {
	defer observeQuery("member_role", "group_members", time.Now())

	query := `
        SELECT role
        FROM group_members
        WHERE group_id = $1 AND user_id = $2
    `
	var role string
	err := r.db.QueryRow(ctx, query, groupID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotGroupMember
		}
		r.logger.Error("Failed to resolve group role",
			zap.String("group_id", groupID),
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		return "", err
	}
	return role, nil
}
