package service

import (
	"context"
	"fmt"

	"kpr-backend/internal/model"
	"kpr-backend/internal/repository"
	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateLevelInput struct {
	LevelName     string           `json:"level_name" binding:"required"`
	LevelOrder    int              `json:"level_order" binding:"required"`
	RoleRequired  string           `json:"role_required" binding:"required"`
	MinLoanAmount *decimal.Decimal `json:"min_loan_amount"`
	MaxLoanAmount *decimal.Decimal `json:"max_loan_amount"`
	IsRequired    *bool            `json:"is_required"`
	CanSkip       bool             `json:"can_skip"`
	TimeoutHours  int              `json:"timeout_hours"`
	Description   string           `json:"description"`
}

type LevelService interface {
	CreateLevel(ctx context.Context, input CreateLevelInput) (*model.ApprovalLevel, error)
	GetLevel(ctx context.Context, id uuid.UUID) (*model.ApprovalLevel, error)
	ListLevels(ctx context.Context) ([]model.ApprovalLevel, error)
	// ResolveLevel picks the approval level for a loan amount, or nil when
	// no configured bucket covers it (the workflow then runs unleveled with
	// the default deadline).
	ResolveLevel(ctx context.Context, loanAmount decimal.Decimal) (*model.ApprovalLevel, error)
}

type levelService struct {
	levelRepo repository.LevelRepository
	auditRepo repository.AuditRepository
}

func NewLevelService(levelRepo repository.LevelRepository, auditRepo repository.AuditRepository) LevelService {
	return &levelService{levelRepo: levelRepo, auditRepo: auditRepo}
}

func (s *levelService) CreateLevel(ctx context.Context, input CreateLevelInput) (*model.ApprovalLevel, error) {
	if input.MinLoanAmount != nil && input.MaxLoanAmount != nil &&
		input.MaxLoanAmount.LessThan(*input.MinLoanAmount) {
		return nil, apperr.ErrInvalidParameters
	}
	if input.TimeoutHours <= 0 {
		input.TimeoutHours = 72
	}
	required := true
	if input.IsRequired != nil {
		required = *input.IsRequired
	}

	level := &model.ApprovalLevel{
		LevelName:     input.LevelName,
		LevelOrder:    input.LevelOrder,
		RoleRequired:  input.RoleRequired,
		MinLoanAmount: input.MinLoanAmount,
		MaxLoanAmount: input.MaxLoanAmount,
		IsRequired:    required,
		CanSkip:       input.CanSkip,
		TimeoutHours:  input.TimeoutHours,
		Description:   input.Description,
		IsActive:      true,
	}
	if err := s.levelRepo.Create(ctx, level); err != nil {
		return nil, fmt.Errorf("failed to create approval level: %w", err)
	}

	_ = s.auditRepo.Create(ctx, &model.AuditLog{
		Action:     model.ActionCreateApprovalTier,
		EntityID:   level.ID.String(),
		EntityName: level.LevelName,
		Details:    fmt.Sprintf(`{"level_order":%d,"role_required":"%s"}`, level.LevelOrder, level.RoleRequired),
	})
	return level, nil
}

func (s *levelService) GetLevel(ctx context.Context, id uuid.UUID) (*model.ApprovalLevel, error) {
	return s.levelRepo.FindByID(ctx, id)
}

func (s *levelService) ListLevels(ctx context.Context) ([]model.ApprovalLevel, error) {
	return s.levelRepo.FindActive(ctx)
}

func (s *levelService) ResolveLevel(ctx context.Context, loanAmount decimal.Decimal) (*model.ApprovalLevel, error) {
	levels, err := s.levelRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load approval levels: %w", err)
	}
	return resolveLevel(levels, loanAmount), nil
}

// resolveLevel walks levels in level_order and returns the first whose
// amount bucket covers loanAmount. Nil means no level applies.
func resolveLevel(levels []model.ApprovalLevel, loanAmount decimal.Decimal) *model.ApprovalLevel {
	for i := range levels {
		if levels[i].Covers(loanAmount) {
			return &levels[i]
		}
	}
	return nil
}
