package service

import (
	"context"
	"encoding/json"
	"log"

	"kpr-backend/internal/model"
	"kpr-backend/internal/repository"
	"kpr-backend/internal/websocket"

	"github.com/google/uuid"
)

type NotificationService interface {
	// Notify persists an in-app notification and pushes it to connected
	// websocket clients. Failures are logged only — a lost notification
	// never fails the loan mutation that triggered it.
	Notify(ctx context.Context, userID uuid.UUID, notifType, title, message string)
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.SystemNotification, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	hub       *websocket.Hub
}

func NewNotificationService(notifRepo repository.NotificationRepository, hub *websocket.Hub) NotificationService {
	return &notificationService{notifRepo: notifRepo, hub: hub}
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, notifType, title, message string) {
	notification := &model.SystemNotification{
		UserID:           userID,
		NotificationType: notifType,
		Title:            title,
		Message:          message,
		Channel:          model.ChannelInApp,
	}
	if err := s.notifRepo.Create(ctx, notification); err != nil {
		log.Printf("failed to persist notification for user %s: %v", userID, err)
		return
	}

	if s.hub != nil {
		payload, err := json.Marshal(notification)
		if err != nil {
			log.Printf("failed to marshal notification payload: %v", err)
			return
		}
		select {
		case s.hub.Broadcast <- payload:
		default:
			log.Println("websocket broadcast channel full, notification dropped")
		}
	}
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]model.SystemNotification, int64, error) {
	return s.notifRepo.ListByUser(ctx, userID, unreadOnly, page, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.notifRepo.MarkRead(ctx, id, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifRepo.MarkAllRead(ctx, userID)
}
