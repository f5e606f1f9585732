package service

import (
	"context"

	"kpr-backend/internal/model"
	"kpr-backend/internal/repository"

	"github.com/google/uuid"
)

type AuditService interface {
	// Trail returns every audit row recorded against the entity, oldest
	// first, for the compliance view.
	Trail(ctx context.Context, entityID uuid.UUID) ([]model.AuditLog, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) Trail(ctx context.Context, entityID uuid.UUID) ([]model.AuditLog, error) {
	return s.auditRepo.ListByEntity(ctx, entityID)
}

func (s *auditService) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error) {
	return s.auditRepo.ListByUser(ctx, userID, page, limit)
}
