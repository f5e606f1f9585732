package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kpr-backend/internal/model"
	"kpr-backend/internal/repository"
	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultStageTimeoutHours = 72

type SubmitApplicationInput struct {
	UserID        uuid.UUID
	PropertyID    uuid.UUID       `json:"property_id" binding:"required"`
	DownPayment   decimal.Decimal `json:"down_payment" binding:"required"`
	LoanTermYears int             `json:"loan_term_years" binding:"required"`
	Purpose       string          `json:"purpose"`
	Notes         string          `json:"notes"`
}

type SimulateInput struct {
	PropertyID    uuid.UUID       `json:"property_id" binding:"required"`
	DownPayment   decimal.Decimal `json:"down_payment" binding:"required"`
	LoanTermYears int             `json:"loan_term_years" binding:"required"`
}

// SimulationResult is the no-commitment quote returned by Simulate.
type SimulationResult struct {
	PropertyValue      decimal.Decimal `json:"property_value"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	DownPayment        decimal.Decimal `json:"down_payment"`
	LoanTermYears      int             `json:"loan_term_years"`
	LtvRatio           decimal.Decimal `json:"ltv_ratio"`
	RateName           string          `json:"rate_name"`
	EffectiveRate      decimal.Decimal `json:"effective_rate"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	TotalInterest      decimal.Decimal `json:"total_interest"`
	AdminFee           decimal.Decimal `json:"admin_fee"`
	AppraisalFee       decimal.Decimal `json:"appraisal_fee"`
}

type ApplicationService interface {
	// Submit runs the whole origination sequence atomically: applicant and
	// property validation, duplicate guard, rate selection, installment
	// computation, level resolution, application-number generation and the
	// initial workflow stage. Either everything commits or nothing does.
	Submit(ctx context.Context, input SubmitApplicationInput) (*model.LoanApplication, error)
	Simulate(ctx context.Context, userID uuid.UUID, input SimulateInput) (*SimulationResult, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.LoanApplication, error)
	List(ctx context.Context, status string, page, limit int) ([]model.LoanApplication, int64, error)
	Cancel(ctx context.Context, id, actorID uuid.UUID, actorRole string) error
}

type applicationService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	propertyRepo repository.PropertyRepository
	appRepo      repository.ApplicationRepository
	workflowRepo repository.WorkflowRepository
	auditRepo    repository.AuditRepository
	rateService  RateService
	levelService LevelService
	notifService NotificationService
}

func NewApplicationService(
	txManager repository.TransactionManager,
	userRepo repository.UserRepository,
	propertyRepo repository.PropertyRepository,
	appRepo repository.ApplicationRepository,
	workflowRepo repository.WorkflowRepository,
	auditRepo repository.AuditRepository,
	rateService RateService,
	levelService LevelService,
	notifService NotificationService,
) ApplicationService {
	return &applicationService{
		txManager:    txManager,
		userRepo:     userRepo,
		propertyRepo: propertyRepo,
		appRepo:      appRepo,
		workflowRepo: workflowRepo,
		auditRepo:    auditRepo,
		rateService:  rateService,
		levelService: levelService,
		notifService: notifService,
	}
}

func (s *applicationService) Submit(ctx context.Context, input SubmitApplicationInput) (*model.LoanApplication, error) {
	app, err := s.submitOnce(ctx, input)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent submission won one of the unique indexes. Retry once:
		// the number generator recomputes the sequence, and a genuinely
		// duplicate pending application hits the partial index again.
		app, err = s.submitOnce(ctx, input)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.ErrDuplicateApplication
		}
	}
	if err != nil {
		return nil, err
	}

	s.notifService.Notify(ctx, app.UserID, model.NotifApplicationUpdate,
		"Application submitted",
		fmt.Sprintf("Your KPR application %s has been submitted and is under document verification.", app.ApplicationNumber))
	return app, nil
}

func (s *applicationService) submitOnce(ctx context.Context, input SubmitApplicationInput) (*model.LoanApplication, error) {
	user, err := s.userRepo.FindByIDWithProfile(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load applicant: %w", err)
	}
	if err := ValidateApplicant(user); err != nil {
		return nil, err
	}

	if input.Purpose == "" {
		input.Purpose = model.PurposePrimaryResidence
	}

	var app *model.LoanApplication
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		property, err := s.propertyRepo.FindByID(txCtx, input.PropertyID)
		if err != nil {
			return fmt.Errorf("failed to load property: %w", err)
		}
		if err := ValidateProperty(property, input.DownPayment, input.LoanTermYears); err != nil {
			return err
		}

		exists, err := s.appRepo.ExistsPending(txCtx, input.UserID, input.PropertyID)
		if err != nil {
			return fmt.Errorf("failed to check pending applications: %w", err)
		}
		if exists {
			return apperr.ErrDuplicateApplication
		}

		loanAmount := property.Price.Sub(input.DownPayment)
		if loanAmount.LessThanOrEqual(decimal.Zero) {
			return apperr.ErrInvalidParameters
		}
		ltv := loanAmount.DivRound(property.Price, 4)

		now := time.Now()
		criteria := RateCriteria{
			PropertyType:  property.PropertyType,
			LoanAmount:    loanAmount,
			TermYears:     input.LoanTermYears,
			LtvRatio:      ltv,
			Segment:       DeriveSegment(profileOccupation(user)),
			MonthlyIncome: profileIncome(user),
			Age:           user.Profile.AgeAt(now),
		}
		rate, err := s.rateService.SelectBestRate(txCtx, criteria)
		if err != nil {
			return err
		}

		installment, err := MonthlyInstallment(loanAmount, rate.EffectiveRate, input.LoanTermYears)
		if err != nil {
			return err
		}

		level, err := s.levelService.ResolveLevel(txCtx, loanAmount)
		if err != nil {
			return err
		}

		number, err := s.nextApplicationNumber(txCtx, now)
		if err != nil {
			return err
		}

		app = &model.LoanApplication{
			ApplicationNumber:  number,
			UserID:             input.UserID,
			PropertyID:         input.PropertyID,
			RatePlanID:         rate.ID,
			PropertyType:       property.PropertyType,
			PropertyValue:      property.Price,
			LoanAmount:         loanAmount,
			DownPayment:        input.DownPayment,
			LoanTermYears:      input.LoanTermYears,
			InterestRate:       rate.EffectiveRate,
			MonthlyInstallment: installment,
			LtvRatio:           ltv,
			Purpose:            input.Purpose,
			Status:             model.AppStatusDocumentVerification,
			SubmittedAt:        now,
			Notes:              input.Notes,
		}

		timeout := defaultStageTimeoutHours
		if level != nil {
			levelID := level.ID
			app.CurrentApprovalLevelID = &levelID
			if level.TimeoutHours > 0 {
				timeout = level.TimeoutHours
			}
		}

		if err := s.appRepo.Create(txCtx, app); err != nil {
			return err
		}

		workflow := &model.ApprovalWorkflow{
			ApplicationID: app.ID,
			Stage:         model.StageDocumentVerification,
			Status:        model.WorkflowPending,
			Priority:      priorityFor(loanAmount),
			DueDate:       now.Add(time.Duration(timeout) * time.Hour),
		}
		if app.CurrentApprovalLevelID != nil {
			workflow.ApprovalLevelID = app.CurrentApprovalLevelID
		}
		if err := s.workflowRepo.Create(txCtx, workflow); err != nil {
			return fmt.Errorf("failed to create initial workflow stage: %w", err)
		}

		userID := input.UserID
		return s.auditRepo.Create(txCtx, &model.AuditLog{
			UserID:     &userID,
			Action:     model.ActionSubmitApplication,
			EntityID:   app.ID.String(),
			EntityName: app.ApplicationNumber,
			Details: fmt.Sprintf(`{"loan_amount":"%s","rate_plan_id":"%s","installment":"%s"}`,
				loanAmount, rate.ID, installment),
		})
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// nextApplicationNumber formats KPR-YYYY-NNNNNN from the serialized
// per-year sequence. Must run inside the submission transaction.
func (s *applicationService) nextApplicationNumber(txCtx context.Context, now time.Time) (string, error) {
	prefix := fmt.Sprintf("KPR-%d-", now.Year())
	seq, err := s.appRepo.NextSequence(txCtx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to allocate application number: %w", err)
	}
	return fmt.Sprintf("%s%06d", prefix, seq), nil
}

func (s *applicationService) Simulate(ctx context.Context, userID uuid.UUID, input SimulateInput) (*SimulationResult, error) {
	property, err := s.propertyRepo.FindByID(ctx, input.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if err := ValidateProperty(property, input.DownPayment, input.LoanTermYears); err != nil {
		return nil, err
	}

	loanAmount := property.Price.Sub(input.DownPayment)
	if loanAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.ErrInvalidParameters
	}
	ltv := loanAmount.DivRound(property.Price, 4)

	now := time.Now()
	criteria := RateCriteria{
		PropertyType: property.PropertyType,
		LoanAmount:   loanAmount,
		TermYears:    input.LoanTermYears,
		LtvRatio:     ltv,
		Segment:      model.SegmentAll,
	}
	if user, err := s.userRepo.FindByIDWithProfile(ctx, userID); err == nil {
		criteria.Segment = DeriveSegment(profileOccupation(user))
		criteria.MonthlyIncome = profileIncome(user)
		criteria.Age = user.Profile.AgeAt(now)
	}

	rate, err := s.rateService.SelectBestRate(ctx, criteria)
	if err != nil {
		return nil, err
	}
	installment, err := MonthlyInstallment(loanAmount, rate.EffectiveRate, input.LoanTermYears)
	if err != nil {
		return nil, err
	}

	return &SimulationResult{
		PropertyValue:      property.Price,
		LoanAmount:         loanAmount,
		DownPayment:        input.DownPayment,
		LoanTermYears:      input.LoanTermYears,
		LtvRatio:           ltv,
		RateName:           rate.RateName,
		EffectiveRate:      rate.EffectiveRate,
		MonthlyInstallment: installment,
		TotalInterest:      TotalInterest(loanAmount, installment, input.LoanTermYears),
		AdminFee:           rate.AdminFee,
		AppraisalFee:       rate.AppraisalFee,
	}, nil
}

func (s *applicationService) GetDetail(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error) {
	return s.appRepo.FindByIDWithRelations(ctx, id)
}

func (s *applicationService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.LoanApplication, error) {
	return s.appRepo.ListByUser(ctx, userID)
}

func (s *applicationService) List(ctx context.Context, status string, page, limit int) ([]model.LoanApplication, int64, error) {
	return s.appRepo.List(ctx, status, page, limit)
}

// Cancel stops a pending application: the application goes CANCELLED, all
// open workflow rows are closed and a reserved property is released.
// Customers may only cancel their own applications.
func (s *applicationService) Cancel(ctx context.Context, id, actorID uuid.UUID, actorRole string) error {
	var cancelled *model.LoanApplication
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		app, err := s.appRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if actorRole == model.RoleCustomer && app.UserID != actorID {
			return apperr.ErrForbidden
		}
		if app.IsTerminal() {
			return apperr.ErrAlreadyCompleted
		}

		now := time.Now()
		if err := s.appRepo.UpdateStatus(txCtx, app.ID, map[string]interface{}{
			"status":              model.AppStatusCancelled,
			"cancelled_at":        now,
			"cancellation_reason": "cancelled by applicant",
		}); err != nil {
			return fmt.Errorf("failed to cancel application: %w", err)
		}

		workflows, err := s.workflowRepo.ListByApplication(txCtx, app.ID)
		if err != nil {
			return err
		}
		for i := range workflows {
			w := &workflows[i]
			if w.IsTerminal() {
				continue
			}
			if err := w.Cancel(now); err != nil {
				continue
			}
			if err := s.workflowRepo.UpdateOpen(txCtx, w); err != nil && !errors.Is(err, apperr.ErrConflict) {
				return err
			}
		}

		if _, err := s.propertyRepo.UpdateStatus(txCtx, app.PropertyID,
			model.PropertyStatusReserved, model.PropertyStatusAvailable); err != nil {
			return err
		}

		cancelled = app
		return s.auditRepo.Create(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionCancelWorkflow,
			EntityID:   app.ID.String(),
			EntityName: app.ApplicationNumber,
			Details:    `{"reason":"cancelled by applicant"}`,
		})
	})
	if err != nil {
		return err
	}

	s.notifService.Notify(ctx, cancelled.UserID, model.NotifApplicationUpdate,
		"Application cancelled",
		fmt.Sprintf("Your KPR application %s has been cancelled.", cancelled.ApplicationNumber))
	return nil
}

// priorityFor maps the loan amount to a workflow priority. Bigger tickets
// get reviewed sooner.
func priorityFor(loanAmount decimal.Decimal) string {
	switch {
	case loanAmount.GreaterThanOrEqual(decimal.NewFromInt(5_000_000_000)):
		return model.PriorityUrgent
	case loanAmount.GreaterThanOrEqual(decimal.NewFromInt(2_000_000_000)):
		return model.PriorityHigh
	default:
		return model.PriorityNormal
	}
}

func profileOccupation(user *model.User) string {
	if user.Profile == nil {
		return ""
	}
	return user.Profile.Occupation
}

func profileIncome(user *model.User) decimal.Decimal {
	if user.Profile == nil {
		return decimal.Zero
	}
	return user.Profile.MonthlyIncome
}
