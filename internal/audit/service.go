package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. These records are not exposed over the API.
// - Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogDrinkMutation records a create, update or delete performed by subject.
func (s *Service) LogDrinkMutation(ctx context.Context, typ EventType, subject, ip, drinkID, metadata string) error {
	if drinkID == "" {
		return ErrInvalidEvent
	}
	return s.Append(ctx, Event{
		Type:         typ,
		ActorSubject: subject,
		IPAddress:    ip,
		DrinkID:      drinkID,
		Message:      typ.message(),
		Metadata:     metadata,
	})
}
