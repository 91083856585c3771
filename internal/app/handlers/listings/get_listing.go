package listings

import (
	"context"

	"stayhub/internal/app/dto"
	"stayhub/internal/app/policies"
	"stayhub/internal/app/queries"
	domainlisting "stayhub/internal/domain/listing"
)

const getListingKey = "listing.get"

type GetListingQuery struct {
	ID          string
	CallerToken string
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	Listings domainlisting.Repository
	Resolver policies.CallerResolver
}

// Handle projects the stored listing document. The booking id list is only
// included when the caller is the listing's host.
func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.Listing, error) {
	lst, err := h.Listings.ByID(ctx, domainlisting.ID(q.ID))
	if err != nil {
		return dto.Listing{}, err
	}
	includeBookings := false
	if h.Resolver != nil && q.CallerToken != "" {
		if caller, err := h.Resolver.ResolveCaller(ctx, q.CallerToken); err == nil && caller != nil {
			includeBookings = string(caller.ID) == lst.HostID
		}
	}
	return dto.NewListing(lst, includeBookings), nil
}

var _ queries.Handler[GetListingQuery, dto.Listing] = (*GetListingHandler)(nil)
