package listings

import (
	"context"
	"log/slog"
	"time"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/dto"
	"stayhub/internal/app/policies"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

const hostListingKey = "listing.host"

type HostListingCommand struct {
	CommandID   string
	CallerToken string
	Title       string
	Description string
	Type        string
	Address     string
	Country     string
	City        string
	Price       int64 // nightly rate in minor currency units
	GuestsLimit int
}

func (c HostListingCommand) Key() string { return hostListingKey }

type HostListingHandler struct {
	Listings domainlisting.Repository
	Users    domainuser.Repository
	Resolver policies.CallerResolver
	IDs      policies.IdentifierGenerator
	Clock    policies.Clock
	Logger   *slog.Logger
}

func (h *HostListingHandler) Handle(ctx context.Context, cmd HostListingCommand) (*dto.Listing, error) {
	host, err := h.Resolver.ResolveCaller(ctx, cmd.CallerToken)
	if err != nil || host == nil {
		return nil, domainuser.ErrNotFound
	}

	rate := money.Must(cmd.Price, "USD")
	if err := domainlisting.ValidateInput(cmd.Title, cmd.Description, domainlisting.Type(cmd.Type), rate); err != nil {
		return nil, err
	}

	id, err := h.IDs.NewID()
	if err != nil {
		return nil, err
	}
	now := h.now()
	lst, err := domainlisting.New(domainlisting.CreateParams{
		ID:          domainlisting.ID(id),
		HostID:      string(host.ID),
		Title:       cmd.Title,
		Description: cmd.Description,
		Type:        domainlisting.Type(cmd.Type),
		Address:     cmd.Address,
		Country:     cmd.Country,
		City:        cmd.City,
		NightlyRate: rate,
		GuestsLimit: cmd.GuestsLimit,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	if err := h.Listings.Save(ctx, lst); err != nil {
		return nil, err
	}
	host.RecordListing(lst.ID, now)
	if err := h.Users.Save(ctx, host); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", lst.ID, "host_id", host.ID)
	}
	result := dto.NewListing(lst, true)
	return &result, nil
}

func (h *HostListingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[HostListingCommand, *dto.Listing] = (*HostListingHandler)(nil)
