package helpers

import "context"

// UserLookup finds a registered user by Telegram id. ok is false when the
// user never registered.
type UserLookup[T any] interface {
	UserByTelegramID(ctx context.Context, telegramID int64) (user T, ok bool, err error)
}

// CurrentUser resolves the sender to a domain user. A nil lookup yields
// the zero value and ok=false.
func CurrentUser[T any](ctx context.Context, lookup UserLookup[T], tgID int64) (T, bool, error) {
	var zero T
	if lookup == nil || tgID == 0 {
		return zero, false, nil
	}
	return lookup.UserByTelegramID(ctx, tgID)
}
