package me

import (
	"context"

	"stayhub/internal/app/dto"
	"stayhub/internal/app/queries"
	domainbooking "stayhub/internal/domain/booking"
)

const listGuestBookingsKey = "me.bookings"

type ListGuestBookingsQuery struct {
	TenantID string
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

type ListGuestBookingsHandler struct {
	Bookings domainbooking.Repository
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingCollection, error) {
	items, err := h.Bookings.ListByTenant(ctx, q.TenantID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return dto.NewBookingCollection(items), nil
}

var _ queries.Handler[ListGuestBookingsQuery, dto.BookingCollection] = (*ListGuestBookingsHandler)(nil)
