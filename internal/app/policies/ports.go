package policies

import (
	"context"
	"time"

	"stayhub/internal/domain/shared/money"
	"stayhub/internal/domain/user"
)

// PaymentGateway charges a payment source and routes the funds to the
// destination account (the host's wallet). Amounts are positive integers in
// minor currency units. A charge either confirms or errors; there is no
// partial outcome.
type PaymentGateway interface {
	Charge(ctx context.Context, amount money.Money, sourceToken, destinationAccount string) error
}

// CallerResolver maps request credentials to the calling user, or
// auth.ErrSessionNotFound when nothing resolves.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (*user.User, error)
}

// IdentifierGenerator produces unique, unguessable identifiers for new
// records. Identifiers must not leak creation order.
type IdentifierGenerator interface {
	NewID() (string, error)
}

// Clock abstracts time.Now for date-cap validation and timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
