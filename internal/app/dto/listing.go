package dto

import (
	"stayhub/internal/domain/listing"
)

type Listing struct {
	ID          string   `json:"id"`
	HostID      string   `json:"host_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Address     string   `json:"address"`
	Country     string   `json:"country"`
	City        string   `json:"city"`
	NightlyRate int64    `json:"nightly_rate"`
	Currency    string   `json:"currency"`
	GuestsLimit int      `json:"guests_limit"`
	BookedDays  []string `json:"booked_days"`
	// Bookings is only populated for the listing's host.
	Bookings []string `json:"bookings,omitempty"`
}

func NewListing(l *listing.Listing, includeBookings bool) Listing {
	out := Listing{
		ID:          string(l.ID),
		HostID:      l.HostID,
		Title:       l.Title,
		Description: l.Description,
		Type:        string(l.Type),
		Address:     l.Address,
		Country:     l.Country,
		City:        l.City,
		NightlyRate: l.NightlyRate.Amount,
		Currency:    l.NightlyRate.Currency,
		GuestsLimit: l.GuestsLimit,
		BookedDays:  bookedDays(l),
	}
	if includeBookings {
		out.Bookings = make([]string, 0, len(l.Bookings))
		for _, id := range l.Bookings {
			out.Bookings = append(out.Bookings, string(id))
		}
	}
	return out
}

func bookedDays(l *listing.Listing) []string {
	keys := l.Availability.Keys()
	days := make([]string, 0, len(keys))
	for _, k := range keys {
		days = append(days, dayString(k))
	}
	return days
}
