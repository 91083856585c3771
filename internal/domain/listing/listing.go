package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/availability"
	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/shared/money"
)

var (
	ErrIDRequired         = errors.New("listing: id is required")
	ErrHostRequired       = errors.New("listing: host id is required")
	ErrTitleTooLong       = errors.New("listing: title must be under 100 characters")
	ErrDescriptionTooLong = errors.New("listing: description must be under 5000 characters")
	ErrInvalidType        = errors.New("listing: type must be either an apartment or house")
	ErrNegativePrice      = errors.New("listing: price must not be negative")
	ErrNotFound           = errors.New("listing: not found")
)

type ID string

type Type string

const (
	TypeApartment Type = "APARTMENT"
	TypeHouse     Type = "HOUSE"
)

// Listing is the bookable unit. The bookings list and the availability
// index always change together through CommitBooking so a reader never
// observes one without the other; Version backs the compare-and-set writes
// in the store.
type Listing struct {
	ID           ID
	HostID       string
	Title        string
	Description  string
	Type         Type
	Address      string
	Country      string
	City         string
	NightlyRate  money.Money
	GuestsLimit  int
	Bookings     []booking.ID
	Availability availability.Index
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Listing, error)
	// Save persists the listing conditioned on the stored version matching
	// listing.Version; a mismatch surfaces the store's concurrent-update error.
	Save(ctx context.Context, listing *Listing) error
}

type CreateParams struct {
	ID          ID
	HostID      string
	Title       string
	Description string
	Type        Type
	Address     string
	Country     string
	City        string
	NightlyRate money.Money
	GuestsLimit int
	CreatedAt   time.Time
}

func New(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.HostID) == "" {
		return nil, ErrHostRequired
	}
	if err := ValidateInput(params.Title, params.Description, params.Type, params.NightlyRate); err != nil {
		return nil, err
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Listing{
		ID:           params.ID,
		HostID:       params.HostID,
		Title:        strings.TrimSpace(params.Title),
		Description:  params.Description,
		Type:         params.Type,
		Address:      params.Address,
		Country:      params.Country,
		City:         params.City,
		NightlyRate:  params.NightlyRate,
		GuestsLimit:  params.GuestsLimit,
		Bookings:     []booking.ID{},
		Availability: availability.NewIndex(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateInput applies the host-facing listing constraints.
func ValidateInput(title, description string, t Type, rate money.Money) error {
	if len(title) > 100 {
		return ErrTitleTooLong
	}
	if len(description) > 5000 {
		return ErrDescriptionTooLong
	}
	if t != TypeApartment && t != TypeHouse {
		return ErrInvalidType
	}
	if rate.Amount < 0 {
		return ErrNegativePrice
	}
	return nil
}

// CommitBooking appends the booking id and replaces the availability index
// with the merged value in one step.
func (l *Listing) CommitBooking(id booking.ID, merged availability.Index, now time.Time) {
	l.Bookings = append(l.Bookings, id)
	l.Availability = merged
	l.UpdatedAt = now.UTC()
}
