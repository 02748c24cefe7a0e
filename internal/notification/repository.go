package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

type Repository interface {
	Insert(ctx context.Context, n Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]Notification, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
}
