package domain

import (
	"context"
	"time"

	"libraryapi/pkg/database"
)

type EntityType string
type ActionType string

const (
	EntityTypeBook   EntityType = "book"
	EntityTypeUser   EntityType = "user"
	EntityTypeBorrow EntityType = "borrow"

	ActionTypeCreate  ActionType = "create"
	ActionTypeUpdate  ActionType = "update"
	ActionTypeDelete  ActionType = "delete"
	ActionTypeBorrow  ActionType = "borrow"
	ActionTypeReturn  ActionType = "return"
	ActionTypePayFine ActionType = "pay_fine"
)

type AuditLog struct {
	ID         int64      `json:"id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   int64      `json:"entity_id"`
	Action     ActionType `json:"action"`
	ActorID    *int64     `json:"actor_id"`
	Details    string     `json:"details,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditLogRepository interface {
	Create(ctx context.Context, q database.Querier, log *AuditLog) error
	FindByEntityID(ctx context.Context, q database.Querier, entityType EntityType, entityID int64) ([]*AuditLog, error)
	FindAll(ctx context.Context, q database.Querier, limit, offset int) ([]*AuditLog, error)
}

type AuditLogService interface {
	// LogAction records an entry using q so it commits with the change it
	// describes.
	LogAction(ctx context.Context, q database.Querier, entry AuditLog) error
	GetEntityLogs(ctx context.Context, entityType EntityType, entityID int64) ([]*AuditLog, error)
	GetAllLogs(ctx context.Context, page, pageSize int) ([]*AuditLog, error)
}

type actorKey struct{}

// WithActor tags ctx with the id of the authenticated caller so audit
// entries can record who made a change.
func WithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func ActorFromContext(ctx context.Context) *int64 {
	if id, ok := ctx.Value(actorKey{}).(int64); ok {
		return &id
	}
	return nil
}
