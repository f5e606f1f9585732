package service

import (
	"context"
	"time"

	"kpr-backend/internal/model"
	"kpr-backend/internal/repository"
	"kpr-backend/pkg/apperr"

	"github.com/google/uuid"
)

// In-memory repository doubles shared by the orchestrator and workflow
// tests. They model just enough behavior for the service paths under test.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByIDWithProfile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *fakeUserRepo) SaveProfile(_ context.Context, profile *model.UserProfile) error {
	if user, ok := r.users[profile.UserID]; ok {
		user.Profile = profile
	}
	return nil
}

type fakePropertyRepo struct {
	properties map[uuid.UUID]*model.Property
	released   []uuid.UUID
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{properties: make(map[uuid.UUID]*model.Property)}
}

func (r *fakePropertyRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Property, error) {
	property, ok := r.properties[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return property, nil
}

func (r *fakePropertyRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
	property, ok := r.properties[id]
	if !ok || property.Status != from {
		return false, nil
	}
	property.Status = to
	r.released = append(r.released, id)
	return true, nil
}

type fakeRateRepo struct {
	plans []model.RatePlan
}

func (r *fakeRateRepo) Create(_ context.Context, plan *model.RatePlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	r.plans = append(r.plans, *plan)
	return nil
}

func (r *fakeRateRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RatePlan, error) {
	for i := range r.plans {
		if r.plans[i].ID == id {
			return &r.plans[i], nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *fakeRateRepo) FindActive(_ context.Context, _ string, _ time.Time) ([]model.RatePlan, error) {
	return r.plans, nil
}

func (r *fakeRateRepo) ListActive(_ context.Context, _ time.Time) ([]model.RatePlan, error) {
	return r.plans, nil
}

type fakeLevelRepo struct {
	levels []model.ApprovalLevel
}

func (r *fakeLevelRepo) Create(_ context.Context, level *model.ApprovalLevel) error {
	if level.ID == uuid.Nil {
		level.ID = uuid.New()
	}
	r.levels = append(r.levels, *level)
	return nil
}

func (r *fakeLevelRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ApprovalLevel, error) {
	for i := range r.levels {
		if r.levels[i].ID == id {
			return &r.levels[i], nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *fakeLevelRepo) FindActive(_ context.Context) ([]model.ApprovalLevel, error) {
	return r.levels, nil
}

type fakeAppRepo struct {
	apps        map[uuid.UUID]*model.LoanApplication
	pending     bool
	seq         int64
	seqCalls    int
	createErrs  []error // popped per Create call, nil entries succeed
	createCalls int
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: make(map[uuid.UUID]*model.LoanApplication), seq: 1}
}

func (r *fakeAppRepo) Create(_ context.Context, app *model.LoanApplication) error {
	r.createCalls++
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	r.apps[app.ID] = app
	return nil
}

func (r *fakeAppRepo) FindByID(_ context.Context, id uuid.UUID) (*model.LoanApplication, error) {
	app, ok := r.apps[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return app, nil
}

func (r *fakeAppRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.LoanApplication, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeAppRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.LoanApplication, error) {
	var out []model.LoanApplication
	for _, app := range r.apps {
		if app.UserID == userID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (r *fakeAppRepo) List(_ context.Context, _ string, _, _ int) ([]model.LoanApplication, int64, error) {
	var out []model.LoanApplication
	for _, app := range r.apps {
		out = append(out, *app)
	}
	return out, int64(len(out)), nil
}

func (r *fakeAppRepo) ExistsPending(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return r.pending, nil
}

func (r *fakeAppRepo) NextSequence(_ context.Context, _ string) (int64, error) {
	r.seqCalls++
	seq := r.seq
	r.seq++
	return seq, nil
}

func (r *fakeAppRepo) UpdateStatus(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	app, ok := r.apps[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if status, ok := fields["status"].(string); ok {
		app.Status = status
	}
	if reason, ok := fields["rejection_reason"].(string); ok {
		app.RejectionReason = reason
	}
	if at, ok := fields["cancelled_at"].(time.Time); ok {
		app.CancelledAt = &at
	}
	if reason, ok := fields["cancellation_reason"].(string); ok {
		app.CancellationReason = reason
	}
	return nil
}

type fakeWorkflowRepo struct {
	rows        map[uuid.UUID]*model.ApprovalWorkflow
	updateErr   error // returned once by UpdateOpen when set
	createOrder []uuid.UUID
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{rows: make(map[uuid.UUID]*model.ApprovalWorkflow)}
}

func (r *fakeWorkflowRepo) Create(_ context.Context, w *model.ApprovalWorkflow) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	r.rows[w.ID] = w
	r.createOrder = append(r.createOrder, w.ID)
	return nil
}

func (r *fakeWorkflowRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ApprovalWorkflow, error) {
	w, ok := r.rows[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return w, nil
}

func (r *fakeWorkflowRepo) FindByIDWithLevel(ctx context.Context, id uuid.UUID) (*model.ApprovalWorkflow, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeWorkflowRepo) UpdateOpen(_ context.Context, w *model.ApprovalWorkflow) error {
	if r.updateErr != nil {
		err := r.updateErr
		r.updateErr = nil
		return err
	}
	r.rows[w.ID] = w
	return nil
}

func (r *fakeWorkflowRepo) ListByApplication(_ context.Context, applicationID uuid.UUID) ([]model.ApprovalWorkflow, error) {
	var out []model.ApprovalWorkflow
	for _, id := range r.createOrder {
		if w, ok := r.rows[id]; ok && w.ApplicationID == applicationID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *fakeWorkflowRepo) ListByAssignee(_ context.Context, userID uuid.UUID, _ []string) ([]model.ApprovalWorkflow, error) {
	var out []model.ApprovalWorkflow
	for _, w := range r.rows {
		if w.AssignedTo != nil && *w.AssignedTo == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *fakeWorkflowRepo) ListByStatus(_ context.Context, status string, _, _ int) ([]model.ApprovalWorkflow, int64, error) {
	var out []model.ApprovalWorkflow
	for _, w := range r.rows {
		if status == "" || w.Status == status {
			out = append(out, *w)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeWorkflowRepo) ListOverdue(_ context.Context, now time.Time) ([]model.ApprovalWorkflow, error) {
	var out []model.ApprovalWorkflow
	for _, w := range r.rows {
		if w.IsOverdue(now) {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *fakeWorkflowRepo) ListNeedingEscalation(_ context.Context, deadline time.Time) ([]model.ApprovalWorkflow, error) {
	var out []model.ApprovalWorkflow
	for _, w := range r.rows {
		if w.NeedsEscalation(deadline, 0) {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *fakeWorkflowRepo) CountByStatus(_ context.Context) (repository.WorkflowCounts, error) {
	counts := make(repository.WorkflowCounts)
	for _, w := range r.rows {
		counts[w.Status]++
	}
	return counts, nil
}

func (r *fakeWorkflowRepo) CountByAssignee(_ context.Context, userID uuid.UUID) (repository.WorkflowCounts, error) {
	counts := make(repository.WorkflowCounts)
	for _, w := range r.rows {
		if w.AssignedTo != nil && *w.AssignedTo == userID {
			counts[w.Status]++
		}
	}
	return counts, nil
}

func (r *fakeWorkflowRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.rows[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeWorkflowRepo) DeleteByApplication(_ context.Context, applicationID uuid.UUID) (int64, error) {
	var n int64
	for id, w := range r.rows {
		if w.ApplicationID == applicationID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeAuditRepo struct {
	logs []model.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, log *model.AuditLog) error {
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, entityID uuid.UUID) ([]model.AuditLog, error) {
	var out []model.AuditLog
	for _, l := range r.logs {
		if l.EntityID == entityID.String() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) ListByUser(_ context.Context, _ uuid.UUID, _, _ int) ([]model.AuditLog, int64, error) {
	return r.logs, int64(len(r.logs)), nil
}

func (r *fakeAuditRepo) actions() []string {
	out := make([]string, 0, len(r.logs))
	for _, l := range r.logs {
		out = append(out, l.Action)
	}
	return out
}

type fakeNotifRepo struct {
	notifications []model.SystemNotification
}

func (r *fakeNotifRepo) Create(_ context.Context, n *model.SystemNotification) error {
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *fakeNotifRepo) ListByUser(_ context.Context, userID uuid.UUID, _ bool, _, _ int) ([]model.SystemNotification, int64, error) {
	var out []model.SystemNotification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotifRepo) MarkRead(_ context.Context, _, _ uuid.UUID) error { return nil }

func (r *fakeNotifRepo) MarkAllRead(_ context.Context, _ uuid.UUID) (int64, error) { return 0, nil }
