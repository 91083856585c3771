package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/money"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrEmailRequired       = errors.New("user: email is required")
	ErrNameRequired        = errors.New("user: name is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrNoWallet            = errors.New("user: no payment account connected")
	ErrNotFound            = errors.New("user: not found")
)

type ID string

// User participates both as tenant (Bookings) and as host (Listings,
// Income). WalletID is the payment-account identifier; a host without one
// cannot be paid.
type User struct {
	ID           ID
	Email        string
	Name         string
	Avatar       string
	Contact      string
	PasswordHash string
	WalletID     string
	Income       money.Money
	Bookings     []booking.ID
	Listings     []listing.ID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	Email        string
	Name         string
	Avatar       string
	PasswordHash string
	WalletID     string
	CreatedAt    time.Time
}

func New(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &User{
		ID:           ID(id),
		Email:        email,
		Name:         name,
		Avatar:       params.Avatar,
		Contact:      email,
		PasswordHash: params.PasswordHash,
		WalletID:     strings.TrimSpace(params.WalletID),
		Income:       money.Money{Amount: 0, Currency: "USD"},
		Bookings:     []booking.ID{},
		Listings:     []listing.ID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CanReceivePayments reports whether the user is connected to a payment
// account and may be charged for as a host.
func (u *User) CanReceivePayments() bool {
	return strings.TrimSpace(u.WalletID) != ""
}

// ReceiveIncome adds a payout to the running host income total.
func (u *User) ReceiveIncome(amount money.Money, now time.Time) error {
	if !u.CanReceivePayments() {
		return ErrNoWallet
	}
	total, err := u.Income.Add(amount)
	if err != nil {
		return err
	}
	u.Income = total
	u.touch(now)
	return nil
}

// RecordBooking appends a booking made by the user as tenant.
func (u *User) RecordBooking(id booking.ID, now time.Time) {
	u.Bookings = append(u.Bookings, id)
	u.touch(now)
}

// RecordListing appends a listing hosted by the user.
func (u *User) RecordListing(id listing.ID, now time.Time) {
	u.Listings = append(u.Listings, id)
	u.touch(now)
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
