package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/shared/daterange"
)

var (
	ErrIDRequired      = errors.New("booking: id is required")
	ErrListingRequired = errors.New("booking: listing id is required")
	ErrTenantRequired  = errors.New("booking: tenant id is required")
	ErrNotFound        = errors.New("booking: not found")
)

type ID string

// Booking is the record of one committed stay. Bookings are immutable after
// creation; there is no update or cancel path.
type Booking struct {
	ID        ID
	ListingID string
	TenantID  string
	Range     daterange.DateRange
	CreatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	Create(ctx context.Context, booking *Booking) error
	ListByTenant(ctx context.Context, tenantID string) ([]*Booking, error)
}

type CreateParams struct {
	ID        ID
	ListingID string
	TenantID  string
	Range     daterange.DateRange
	CreatedAt time.Time
}

func New(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.ListingID) == "" {
		return nil, ErrListingRequired
	}
	if strings.TrimSpace(params.TenantID) == "" {
		return nil, ErrTenantRequired
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	return &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		TenantID:  params.TenantID,
		Range:     params.Range,
		CreatedAt: now.UTC(),
	}, nil
}

// CheckIn returns the check-in date in storage format.
func (b *Booking) CheckIn() string {
	return b.Range.CheckIn.Format(daterange.Layout)
}

// CheckOut returns the check-out date in storage format.
func (b *Booking) CheckOut() string {
	return b.Range.CheckOut.Format(daterange.Layout)
}
