package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"teammy/internal/model"
	"teammy/internal/repository"
	"teammy/internal/session"
	"teammy/pkg/util"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	userRepo  *repository.UserRepository
	sessions  *session.Store
	jwtSecret string
	jwtTTL    time.Duration
}

func NewAuthService(userRepo *repository.UserRepository, sessions *session.Store, jwtSecret string, jwtTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

// Register creates a new user.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, validationError("email and password are required")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, validationError("email already exists")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Login checks credentials, opens a session and returns a JWT. The session
// record is the explicit carrier of the signed-in identity; it is created
// here and removed by Logout, never implied from ambient state.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(u.ID, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return "", err
	}

	if err := s.sessions.Save(ctx, u.ID, u.Email); err != nil {
		return "", err
	}

	return token, nil
}

// Logout closes the session and drops any cached group roles.
func (s *AuthService) Logout(ctx context.Context, userID int) error {
	return s.sessions.Delete(ctx, userID)
}
