package reservation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/policies"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

const createReservationKey = "reservation.create"

// maxAdvance caps how far in the future a stay may start or end. Both
// check-in and check-out are validated independently against it.
const maxAdvance = 365 * 24 * time.Hour

// ErrReconciliationRequired marks the one locally irrecoverable outcome: the
// charge succeeded but a persistence step failed. It is recorded for manual
// reconciliation and must never collapse into a plain success or a plain
// payment failure.
var ErrReconciliationRequired = errors.New("reservation: charge succeeded but persistence failed, manual reconciliation required")

type CreateReservationCommand struct {
	CommandID       string
	ListingID       string
	CheckIn         string // date-only, 2006-01-02
	CheckOut        string
	PaymentSource   string
	CallerToken     string
	IdempotencyKeyV string
}

func (c CreateReservationCommand) Key() string { return createReservationKey }

func (c CreateReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateReservationCommand) ResultPrototype() any { return &CreateReservationResult{} }

type CreateReservationResult struct {
	BookingID string `json:"booking_id"`
	ListingID string `json:"listing_id"`
	TenantID  string `json:"tenant_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// ReservationCreated is published after a successful commit.
type ReservationCreated struct {
	BookingID string    `json:"booking_id"`
	ListingID string    `json:"listing_id"`
	TenantID  string    `json:"tenant_id"`
	HostID    string    `json:"host_id"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	At        time.Time `json:"at"`
}

// Publisher announces committed reservations. Publishing is best effort and
// never fails the workflow.
type Publisher interface {
	PublishReservationCreated(ctx context.Context, ev ReservationCreated) error
}

// ChargeReconciliation describes a charge with no fully persisted booking
// behind it.
type ChargeReconciliation struct {
	CommandID   string
	BookingID   string
	ListingID   string
	TenantID    string
	HostID      string
	Amount      money.Money
	FailedStage string
	Cause       string
	At          time.Time
}

// Reconciler durably records charge orphans for an operator.
type Reconciler interface {
	Record(ctx context.Context, rec ChargeReconciliation) error
}

// Deps wires the workflow's collaborators.
type Deps struct {
	Listings   domainlisting.Repository
	Users      domainuser.Repository
	Bookings   domainbooking.Repository
	Resolver   policies.CallerResolver
	Gateway    policies.PaymentGateway
	IDs        policies.IdentifierGenerator
	Clock      policies.Clock
	Publisher  Publisher
	Reconciler Reconciler
	Logger     *slog.Logger
}

// Handler runs the reservation commit workflow: resolve caller, load
// listing, guard against self-booking, validate dates, merge the requested
// range into the availability index, price the stay, verify the host can be
// paid, charge, then persist booking, host income, tenant booking list and
// the listing's booking list plus index. Stages run strictly in order and
// the first failure aborts the rest.
type Handler struct {
	deps  Deps
	locks *listingLocks
}

func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, locks: newListingLocks()}
}

func (h *Handler) Handle(ctx context.Context, cmd CreateReservationCommand) (*CreateReservationResult, error) {
	caller, err := h.deps.Resolver.ResolveCaller(ctx, cmd.CallerToken)
	if err != nil || caller == nil {
		return nil, newFault(KindUnauthenticated, "viewer cannot be found", err)
	}

	// Serializes stages 5-9 per listing: between the conflict check and the
	// index write-back no other reservation for this listing may commit, so
	// the charge is only ever issued against the latest committed calendar.
	unlock := h.locks.Acquire(domainlisting.ID(cmd.ListingID))
	defer unlock()

	lst, err := h.deps.Listings.ByID(ctx, domainlisting.ID(cmd.ListingID))
	if err != nil {
		if errors.Is(err, domainlisting.ErrNotFound) {
			return nil, newFault(KindNotFound, "listing cannot be found", err)
		}
		return nil, err
	}

	if lst.HostID == string(caller.ID) {
		return nil, newFault(KindInvalidRequest, "viewer cannot book own listing", nil)
	}

	dr, err := daterange.Parse(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		if errors.Is(err, daterange.ErrCheckOutBeforeCheckIn) {
			return nil, newFault(KindInvalidRequest, "check out date cannot be before check in date", err)
		}
		return nil, newFault(KindInvalidRequest, "check in and check out must be valid dates", err)
	}
	now := h.now()
	horizon := now.Add(maxAdvance)
	if dr.CheckIn.After(horizon) {
		return nil, newFault(KindInvalidRequest, "check in date cannot be more than one year from today", nil)
	}
	if dr.CheckOut.After(horizon) {
		return nil, newFault(KindInvalidRequest, "check out date cannot be more than one year from today", nil)
	}

	merged, err := lst.Availability.MergeRange(dr)
	if err != nil {
		return nil, newFault(KindConflict, "selected dates overlap an existing booking", err)
	}

	total, err := pricing.TotalPrice(lst.NightlyRate, dr)
	if err != nil {
		return nil, newFault(KindInvalidRequest, "listing has an invalid nightly rate", err)
	}

	host, err := h.deps.Users.ByID(ctx, domainuser.ID(lst.HostID))
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, newFault(KindNotFound, "host cannot be found", err)
		}
		return nil, err
	}
	if !host.CanReceivePayments() {
		return nil, newFault(KindInvalidRequest, "host is not connected with a payment account", nil)
	}

	bookingID, err := h.deps.IDs.NewID()
	if err != nil {
		return nil, err
	}

	// Last stage before irreversible external effect. Every in-process
	// invariant has been validated above.
	if err := h.deps.Gateway.Charge(ctx, total, cmd.PaymentSource, host.WalletID); err != nil {
		return nil, newFault(KindPaymentFailed, "payment charge failed", err)
	}

	bk, err := domainbooking.New(domainbooking.CreateParams{
		ID:        domainbooking.ID(bookingID),
		ListingID: string(lst.ID),
		TenantID:  string(caller.ID),
		Range:     dr,
		CreatedAt: now,
	})
	if err != nil {
		return nil, h.reconcile(ctx, cmd, bookingID, lst, caller, host, total, "build booking", err)
	}

	// Saga commit order: the booking record first (its absence is the
	// safest), then host income, tenant list, and the listing's booking
	// list plus availability index as the final write.
	if err := h.deps.Bookings.Create(ctx, bk); err != nil {
		return nil, h.reconcile(ctx, cmd, bookingID, lst, caller, host, total, "create booking", err)
	}
	if err := host.ReceiveIncome(total, now); err != nil {
		return nil, h.reconcile(ctx, cmd, bookingID, lst, caller, host, total, "host income", err)
	}
	if err := h.deps.Users.Save(ctx, host); err != nil {
		return nil, h.reconcile(ctx, cmd, bookingID, lst, caller, host, total, "save host", err)
	}
	caller.RecordBooking(bk.ID, now)
	if err := h.deps.Users.Save(ctx, caller); err != nil {
		return nil, h.reconcile(ctx, cmd, bookingID, lst, caller, host, total, "save tenant", err)
	}
	lst.CommitBooking(bk.ID, merged, now)
	if err := h.deps.Listings.Save(ctx, lst); err != nil {
		return nil, h.reconcile(ctx, cmd, bookingID, lst, caller, host, total, "save listing", err)
	}

	h.publish(ctx, ReservationCreated{
		BookingID: string(bk.ID),
		ListingID: string(lst.ID),
		TenantID:  string(caller.ID),
		HostID:    lst.HostID,
		CheckIn:   bk.CheckIn(),
		CheckOut:  bk.CheckOut(),
		Amount:    total.Amount,
		Currency:  total.Currency,
		At:        now,
	})

	return &CreateReservationResult{
		BookingID: string(bk.ID),
		ListingID: string(lst.ID),
		TenantID:  string(caller.ID),
		CheckIn:   bk.CheckIn(),
		CheckOut:  bk.CheckOut(),
		Amount:    total.Amount,
		Currency:  total.Currency,
	}, nil
}

// reconcile records a charge-succeeded/persist-failed outcome distinctly
// from ordinary payment failures so an operator can settle it manually.
func (h *Handler) reconcile(ctx context.Context, cmd CreateReservationCommand, bookingID string, lst *domainlisting.Listing, tenant, host *domainuser.User, amount money.Money, stage string, cause error) error {
	rec := ChargeReconciliation{
		CommandID:   cmd.CommandID,
		BookingID:   bookingID,
		ListingID:   string(lst.ID),
		TenantID:    string(tenant.ID),
		HostID:      string(host.ID),
		Amount:      amount,
		FailedStage: stage,
		Cause:       cause.Error(),
		At:          h.now(),
	}
	if h.deps.Logger != nil {
		h.deps.Logger.Error("reservation charge requires manual reconciliation",
			"command_id", rec.CommandID,
			"booking_id", rec.BookingID,
			"listing_id", rec.ListingID,
			"tenant_id", rec.TenantID,
			"amount", rec.Amount.Amount,
			"currency", rec.Amount.Currency,
			"failed_stage", rec.FailedStage,
			"error", cause,
		)
	}
	if h.deps.Reconciler != nil {
		if recErr := h.deps.Reconciler.Record(ctx, rec); recErr != nil && h.deps.Logger != nil {
			h.deps.Logger.Error("reconciliation record write failed", "command_id", rec.CommandID, "error", recErr)
		}
	}
	return errors.Join(ErrReconciliationRequired, cause)
}

func (h *Handler) publish(ctx context.Context, ev ReservationCreated) {
	if h.deps.Publisher == nil {
		return
	}
	if err := h.deps.Publisher.PublishReservationCreated(ctx, ev); err != nil && h.deps.Logger != nil {
		h.deps.Logger.Warn("reservation event publish failed", "booking_id", ev.BookingID, "error", err)
	}
}

func (h *Handler) now() time.Time {
	if h.deps.Clock != nil {
		return h.deps.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateReservationCommand, *CreateReservationResult] = (*Handler)(nil)
var _ middleware.IdempotentCommand = (*CreateReservationCommand)(nil)
