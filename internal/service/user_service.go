package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kpr-backend/internal/model"
	"kpr-backend/internal/repository"
	"kpr-backend/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileInput struct {
	FullName      string          `json:"full_name"`
	Occupation    string          `json:"occupation"`
	CompanyName   string          `json:"company_name"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	BirthDate     *time.Time      `json:"birth_date"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	Province      string          `json:"province"`
}

type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	// Login verifies credentials and returns a signed 24h access token.
	Login(ctx context.Context, input LoginInput) (string, *model.User, error)
	GetMe(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*model.UserProfile, error)
}

type userService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
}

func NewUserService(userRepo repository.UserRepository, jwtSecret []byte) UserService {
	return &userService{userRepo: userRepo, jwtSecret: jwtSecret}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: input.Username,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: string(hashed),
		Role:     model.RoleCustomer,
		Status:   model.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *userService) Login(ctx context.Context, input LoginInput) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil, apperr.ErrInvalidParameters
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return "", nil, apperr.ErrInvalidParameters
	}
	if user.Status == model.UserStatusSuspended {
		return "", nil, apperr.ErrUserSuspended
	}

	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, user, nil
}

func (s *userService) GetMe(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.userRepo.FindByIDWithProfile(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*model.UserProfile, error) {
	user, err := s.userRepo.FindByIDWithProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := user.Profile
	if profile == nil {
		profile = &model.UserProfile{UserID: userID}
	}
	profile.FullName = input.FullName
	profile.Occupation = input.Occupation
	profile.CompanyName = input.CompanyName
	profile.MonthlyIncome = input.MonthlyIncome
	profile.BirthDate = input.BirthDate
	profile.Address = input.Address
	profile.City = input.City
	profile.Province = input.Province

	if err := s.userRepo.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return profile, nil
}
