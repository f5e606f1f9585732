package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kpr-backend/internal/model"
	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type submitEnv struct {
	userRepo  *fakeUserRepo
	propRepo  *fakePropertyRepo
	appRepo   *fakeAppRepo
	wfRepo    *fakeWorkflowRepo
	auditRepo *fakeAuditRepo
	notifRepo *fakeNotifRepo
	rateRepo  *fakeRateRepo
	levelRepo *fakeLevelRepo

	svc      ApplicationService
	user     *model.User
	property *model.Property
}

func newSubmitEnv(t *testing.T) *submitEnv {
	t.Helper()

	env := &submitEnv{
		userRepo:  newFakeUserRepo(),
		propRepo:  newFakePropertyRepo(),
		appRepo:   newFakeAppRepo(),
		wfRepo:    newFakeWorkflowRepo(),
		auditRepo: &fakeAuditRepo{},
		notifRepo: &fakeNotifRepo{},
		rateRepo:  &fakeRateRepo{plans: catalogPlans()},
		levelRepo: &fakeLevelRepo{},
	}
	for _, level := range hierarchyLevels() {
		l := level
		require.NoError(t, env.levelRepo.Create(context.Background(), &l))
	}

	birth := time.Now().AddDate(-35, 0, 0)
	env.user = &model.User{
		ID:     uuid.New(),
		Status: model.UserStatusActive,
		Role:   model.RoleCustomer,
		Profile: &model.UserProfile{
			Occupation:    "Pegawai Swasta",
			MonthlyIncome: decimal.NewFromInt(25_000_000),
			BirthDate:     &birth,
		},
	}
	env.userRepo.users[env.user.ID] = env.user

	env.property = &model.Property{
		ID:                    uuid.New(),
		PropertyType:          model.PropertyTypeRumah,
		Price:                 decimal.NewFromInt(600_000_000),
		Status:                model.PropertyStatusAvailable,
		IsKprEligible:         true,
		MinDownPaymentPercent: decimal.NewFromInt(20),
		MaxLoanTermYears:      20,
	}
	env.propRepo.properties[env.property.ID] = env.property

	notifService := NewNotificationService(env.notifRepo, nil)
	rateService := NewRateService(env.rateRepo, env.auditRepo)
	levelService := NewLevelService(env.levelRepo, env.auditRepo)
	env.svc = NewApplicationService(
		fakeTxManager{}, env.userRepo, env.propRepo, env.appRepo, env.wfRepo,
		env.auditRepo, rateService, levelService, notifService)
	return env
}

func (env *submitEnv) submitInput() SubmitApplicationInput {
	return SubmitApplicationInput{
		UserID:        env.user.ID,
		PropertyID:    env.property.ID,
		DownPayment:   decimal.NewFromInt(150_000_000),
		LoanTermYears: 15,
	}
}

func TestSubmitHappyPath(t *testing.T) {
	env := newSubmitEnv(t)

	app, err := env.svc.Submit(context.Background(), env.submitInput())
	require.NoError(t, err)

	// Number format and serialized per-year sequence
	assert.Equal(t, fmt.Sprintf("KPR-%d-%06d", time.Now().Year(), 1), app.ApplicationNumber)

	// Financial snapshot: 450M at the employee promo rate
	assert.Equal(t, "450000000", app.LoanAmount.String())
	assert.Equal(t, "0.75", app.LtvRatio.String())
	assert.Equal(t, "7.5", app.InterestRate.String())
	assert.Equal(t, "4171555.62", app.MonthlyInstallment.StringFixed(2))
	assert.Equal(t, model.PurposePrimaryResidence, app.Purpose)

	// The application enters the first stage immediately
	assert.Equal(t, model.AppStatusDocumentVerification, app.Status)

	// 450M falls in the Branch Officer bucket
	require.NotNil(t, app.CurrentApprovalLevelID)
	level, err := env.levelRepo.FindByID(context.Background(), *app.CurrentApprovalLevelID)
	require.NoError(t, err)
	assert.Equal(t, "Branch Officer", level.LevelName)

	// Initial workflow row with the level's 48h deadline
	workflows, err := env.wfRepo.ListByApplication(context.Background(), app.ID)
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	w := workflows[0]
	assert.Equal(t, model.StageDocumentVerification, w.Stage)
	assert.Equal(t, model.WorkflowPending, w.Status)
	assert.Equal(t, model.PriorityNormal, w.Priority)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), w.DueDate, time.Minute)

	// Audit row and applicant notification
	assert.Contains(t, env.auditRepo.actions(), model.ActionSubmitApplication)
	require.Len(t, env.notifRepo.notifications, 1)
	assert.Equal(t, env.user.ID, env.notifRepo.notifications[0].UserID)
}

func TestSubmitSequenceAdvancesPerApplication(t *testing.T) {
	env := newSubmitEnv(t)

	first, err := env.svc.Submit(context.Background(), env.submitInput())
	require.NoError(t, err)

	// New property so the duplicate guard stays quiet
	second := &model.Property{
		ID:                    uuid.New(),
		PropertyType:          model.PropertyTypeRumah,
		Price:                 decimal.NewFromInt(600_000_000),
		Status:                model.PropertyStatusAvailable,
		IsKprEligible:         true,
		MinDownPaymentPercent: decimal.NewFromInt(20),
		MaxLoanTermYears:      20,
	}
	env.propRepo.properties[second.ID] = second

	input := env.submitInput()
	input.PropertyID = second.ID
	app, err := env.svc.Submit(context.Background(), input)
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("KPR-%d-000001", year), first.ApplicationNumber)
	assert.Equal(t, fmt.Sprintf("KPR-%d-000002", year), app.ApplicationNumber)
}

func TestSubmitRetriesOnceOnUniqueCollision(t *testing.T) {
	env := newSubmitEnv(t)
	env.appRepo.createErrs = []error{gorm.ErrDuplicatedKey}

	app, err := env.svc.Submit(context.Background(), env.submitInput())
	require.NoError(t, err)

	assert.Equal(t, 2, env.appRepo.seqCalls)
	assert.Equal(t, fmt.Sprintf("KPR-%d-%06d", time.Now().Year(), 2), app.ApplicationNumber)
}

func TestSubmitSecondCollisionIsDuplicate(t *testing.T) {
	env := newSubmitEnv(t)
	env.appRepo.createErrs = []error{gorm.ErrDuplicatedKey, gorm.ErrDuplicatedKey}

	_, err := env.svc.Submit(context.Background(), env.submitInput())
	assert.ErrorIs(t, err, apperr.ErrDuplicateApplication)
}

func TestSubmitRejectsDuplicatePending(t *testing.T) {
	env := newSubmitEnv(t)
	env.appRepo.pending = true

	_, err := env.svc.Submit(context.Background(), env.submitInput())
	assert.ErrorIs(t, err, apperr.ErrDuplicateApplication)
	assert.Zero(t, env.appRepo.createCalls)
}

func TestSubmitRejectsSuspendedUser(t *testing.T) {
	env := newSubmitEnv(t)
	env.user.Status = model.UserStatusSuspended

	_, err := env.svc.Submit(context.Background(), env.submitInput())
	assert.ErrorIs(t, err, apperr.ErrUserSuspended)
}

func TestSubmitRejectsLowDownPayment(t *testing.T) {
	env := newSubmitEnv(t)

	input := env.submitInput()
	input.DownPayment = decimal.NewFromInt(100_000_000) // minimum is 120M

	_, err := env.svc.Submit(context.Background(), input)
	assert.ErrorIs(t, err, apperr.ErrDownPaymentTooLow)
}

func TestSubmitRejectsFullCashPurchase(t *testing.T) {
	env := newSubmitEnv(t)

	input := env.submitInput()
	input.DownPayment = env.property.Price // nothing left to finance

	_, err := env.svc.Submit(context.Background(), input)
	assert.ErrorIs(t, err, apperr.ErrInvalidParameters)
}

func TestSubmitFailsWhenNoRateCovers(t *testing.T) {
	env := newSubmitEnv(t)
	env.rateRepo.plans = nil

	_, err := env.svc.Submit(context.Background(), env.submitInput())
	assert.ErrorIs(t, err, apperr.ErrNoEligibleRate)
	assert.Zero(t, env.appRepo.createCalls)
	assert.Empty(t, env.notifRepo.notifications)
}

func TestSimulateDoesNotPersist(t *testing.T) {
	env := newSubmitEnv(t)

	result, err := env.svc.Simulate(context.Background(), env.user.ID, SimulateInput{
		PropertyID:    env.property.ID,
		DownPayment:   decimal.NewFromInt(150_000_000),
		LoanTermYears: 15,
	})
	require.NoError(t, err)

	assert.Equal(t, "4171555.62", result.MonthlyInstallment.StringFixed(2))
	assert.Equal(t, "450000000", result.LoanAmount.String())
	assert.Zero(t, env.appRepo.createCalls)
	assert.Empty(t, env.wfRepo.rows)
}

func TestCancelClosesApplicationAndWorkflows(t *testing.T) {
	env := newSubmitEnv(t)

	app, err := env.svc.Submit(context.Background(), env.submitInput())
	require.NoError(t, err)

	require.NoError(t, env.svc.Cancel(context.Background(), app.ID, env.user.ID, model.RoleCustomer))

	stored, err := env.appRepo.FindByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppStatusCancelled, stored.Status)
	require.NotNil(t, stored.CancelledAt)
	assert.Equal(t, "cancelled by applicant", stored.CancellationReason)
	assert.Nil(t, stored.RejectedAt)
	assert.Empty(t, stored.RejectionReason)

	workflows, err := env.wfRepo.ListByApplication(context.Background(), app.ID)
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, model.WorkflowCancelled, workflows[0].Status)

	// A second cancel is refused
	assert.ErrorIs(t, env.svc.Cancel(context.Background(), app.ID, env.user.ID, model.RoleCustomer), apperr.ErrAlreadyCompleted)
}

func TestCancelByAnotherCustomerIsForbidden(t *testing.T) {
	env := newSubmitEnv(t)

	app, err := env.svc.Submit(context.Background(), env.submitInput())
	require.NoError(t, err)

	stranger := uuid.New()
	err = env.svc.Cancel(context.Background(), app.ID, stranger, model.RoleCustomer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	stored, err := env.appRepo.FindByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppStatusDocumentVerification, stored.Status)

	// Back office may cancel on the applicant's behalf
	require.NoError(t, env.svc.Cancel(context.Background(), app.ID, stranger, model.RoleAdmin))
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, model.PriorityNormal, priorityFor(decimal.NewFromInt(500_000_000)))
	assert.Equal(t, model.PriorityHigh, priorityFor(decimal.NewFromInt(2_000_000_000)))
	assert.Equal(t, model.PriorityUrgent, priorityFor(decimal.NewFromInt(5_000_000_000)))
}
