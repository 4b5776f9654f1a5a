package out

import (
	"context"

	"meetbot_server/core/domain"
)

// BirthdayRepository defines the outbound port for the birthday record store.
// The reminder scheduler only reads it; the admin API writes it.
type BirthdayRepository interface {
	List(ctx context.Context) ([]*domain.Birthday, error)
	Create(ctx context.Context, b *domain.Birthday) error
	Delete(ctx context.Context, id string) error
}
