package dto

import (
	"time"

	"stayhub/internal/domain/availability"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/user"
)

type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	HasWallet bool      `json:"has_wallet"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Income and listing/booking identifiers are only exposed to the user
// themselves, mirroring the host-only listing bookings view.
type UserAccount struct {
	UserProfile
	Income   int64    `json:"income"`
	Currency string   `json:"currency"`
	Bookings []string `json:"bookings"`
	Listings []string `json:"listings"`
}

func NewUserProfile(u *user.User) UserProfile {
	return UserProfile{
		ID:        string(u.ID),
		Email:     u.Email,
		Name:      u.Name,
		Avatar:    u.Avatar,
		HasWallet: u.CanReceivePayments(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func NewUserAccount(u *user.User) UserAccount {
	bookings := make([]string, 0, len(u.Bookings))
	for _, id := range u.Bookings {
		bookings = append(bookings, string(id))
	}
	listings := make([]string, 0, len(u.Listings))
	for _, id := range u.Listings {
		listings = append(listings, string(id))
	}
	return UserAccount{
		UserProfile: NewUserProfile(u),
		Income:      u.Income.Amount,
		Currency:    u.Income.Currency,
		Bookings:    bookings,
		Listings:    listings,
	}
}

type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

func NewAuthResponse(u *user.User, token string) AuthResponse {
	return AuthResponse{User: NewUserProfile(u), Token: token}
}

func dayString(key int64) string {
	return availability.DayKey(key).Date().Format(daterange.Layout)
}
