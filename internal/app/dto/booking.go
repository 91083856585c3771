package dto

import (
	"stayhub/internal/domain/booking"
)

type Booking struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id"`
	TenantID  string `json:"tenant_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
}

func NewBooking(b *booking.Booking) Booking {
	return Booking{
		ID:        string(b.ID),
		ListingID: b.ListingID,
		TenantID:  b.TenantID,
		CheckIn:   b.CheckIn(),
		CheckOut:  b.CheckOut(),
	}
}

type BookingCollection struct {
	Total  int       `json:"total"`
	Result []Booking `json:"result"`
}

func NewBookingCollection(items []*booking.Booking) BookingCollection {
	result := make([]Booking, 0, len(items))
	for _, b := range items {
		result = append(result, NewBooking(b))
	}
	return BookingCollection{Total: len(result), Result: result}
}
