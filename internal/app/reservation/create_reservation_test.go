package reservation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/middleware"
	"stayhub/internal/app/policies"
	"stayhub/internal/app/reservation"
	domainauth "stayhub/internal/domain/auth"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
	"stayhub/internal/infra/security"
	"stayhub/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

// tokenResolver maps fixed tokens to user ids and always loads the current
// stored state, the same contract the session service provides.
type tokenResolver struct {
	users  domainuser.Repository
	tokens map[string]domainuser.ID
}

func (r tokenResolver) ResolveCaller(ctx context.Context, token string) (*domainuser.User, error) {
	id, ok := r.tokens[token]
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	return r.users.ByID(ctx, id)
}

type chargeCall struct {
	amount      money.Money
	source      string
	destination string
}

type gatewayStub struct {
	mu    sync.Mutex
	err   error
	calls []chargeCall
}

func (g *gatewayStub) Charge(ctx context.Context, amount money.Money, source, destination string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.calls = append(g.calls, chargeCall{amount: amount, source: source, destination: destination})
	return nil
}

func (g *gatewayStub) chargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type capturedEvents struct {
	mu     sync.Mutex
	events []reservation.ReservationCreated
}

func (p *capturedEvents) PublishReservationCreated(ctx context.Context, ev reservation.ReservationCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type fixture struct {
	handler    *reservation.Handler
	listings   *memory.ListingRepository
	users      *memory.UserRepository
	bookings   *memory.BookingRepository
	gateway    *gatewayStub
	publisher  *capturedEvents
	reconciler *memory.ReconciliationStore
	listing    *domainlisting.Listing
	host       *domainuser.User
	tenant     *domainuser.User
}

const (
	hostToken   = "host-token"
	tenantToken = "tenant-token"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	listings := memory.NewListingRepository()
	users := memory.NewUserRepository()
	bookings := memory.NewBookingRepository()

	host, err := domainuser.New(domainuser.CreateParams{
		ID:           "host-1",
		Email:        "host@example.com",
		Name:         "Host",
		PasswordHash: "x",
		WalletID:     "acct_host",
		CreatedAt:    testNow,
	})
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, host))

	tenant, err := domainuser.New(domainuser.CreateParams{
		ID:           "tenant-1",
		Email:        "tenant@example.com",
		Name:         "Tenant",
		PasswordHash: "x",
		CreatedAt:    testNow,
	})
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, tenant))

	lst, err := domainlisting.New(domainlisting.CreateParams{
		ID:          "listing-1",
		HostID:      "host-1",
		Title:       "Beach flat",
		Description: "Two rooms by the water",
		Type:        domainlisting.TypeApartment,
		Address:     "1 Shore Rd",
		Country:     "US",
		City:        "San Diego",
		NightlyRate: money.Must(100, "USD"),
		GuestsLimit: 4,
		CreatedAt:   testNow,
	})
	require.NoError(t, err)
	require.NoError(t, listings.Save(ctx, lst))

	gateway := &gatewayStub{}
	publisher := &capturedEvents{}
	reconciler := memory.NewReconciliationStore()

	handler := reservation.NewHandler(reservation.Deps{
		Listings: listings,
		Users:    users,
		Bookings: bookings,
		Resolver: tokenResolver{users: users, tokens: map[string]domainuser.ID{
			hostToken:   "host-1",
			tenantToken: "tenant-1",
		}},
		Gateway:    gateway,
		IDs:        security.HexIDGenerator{},
		Clock:      policies.ClockFunc(func() time.Time { return testNow }),
		Publisher:  publisher,
		Reconciler: reconciler,
	})

	return &fixture{
		handler:    handler,
		listings:   listings,
		users:      users,
		bookings:   bookings,
		gateway:    gateway,
		publisher:  publisher,
		reconciler: reconciler,
		listing:    lst,
		host:       host,
		tenant:     tenant,
	}
}

func (f *fixture) command(checkIn, checkOut string) reservation.CreateReservationCommand {
	return reservation.CreateReservationCommand{
		CommandID:     "cmd-1",
		ListingID:     "listing-1",
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		PaymentSource: "tok_visa",
		CallerToken:   tenantToken,
	}
}

func TestCreateReservationCommitsEverySide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.handler.Handle(ctx, f.command("2026-03-01", "2026-03-03"))
	require.NoError(t, err)
	require.NotEmpty(t, result.BookingID)
	require.Equal(t, int64(300), result.Amount)
	require.Equal(t, "USD", result.Currency)

	require.Equal(t, 1, f.gateway.chargeCount())
	require.Equal(t, int64(300), f.gateway.calls[0].amount.Amount)
	require.Equal(t, "tok_visa", f.gateway.calls[0].source)
	require.Equal(t, "acct_host", f.gateway.calls[0].destination)

	bk, err := f.bookings.ByID(ctx, domainbooking.ID(result.BookingID))
	require.NoError(t, err)
	require.Equal(t, "tenant-1", bk.TenantID)
	require.Equal(t, "2026-03-01", bk.CheckIn())
	require.Equal(t, "2026-03-03", bk.CheckOut())

	host, err := f.users.ByID(ctx, "host-1")
	require.NoError(t, err)
	require.Equal(t, int64(300), host.Income.Amount)

	tenant, err := f.users.ByID(ctx, "tenant-1")
	require.NoError(t, err)
	require.Equal(t, []domainbooking.ID{bk.ID}, tenant.Bookings)

	lst, err := f.listings.ByID(ctx, "listing-1")
	require.NoError(t, err)
	require.Equal(t, []domainbooking.ID{bk.ID}, lst.Bookings)
	require.Equal(t, 3, lst.Availability.Len())

	require.Len(t, f.publisher.events, 1)
	require.Equal(t, string(bk.ID), f.publisher.events[0].BookingID)
}

func TestCreateReservationRejectsUnknownToken(t *testing.T) {
	f := newFixture(t)
	cmd := f.command("2026-03-01", "2026-03-03")
	cmd.CallerToken = "bogus"

	_, err := f.handler.Handle(context.Background(), cmd)
	require.Equal(t, reservation.KindUnauthenticated, reservation.KindOf(err))
	require.Zero(t, f.gateway.chargeCount())
}

func TestCreateReservationRejectsSelfBooking(t *testing.T) {
	f := newFixture(t)
	cmd := f.command("2026-03-01", "2026-03-03")
	cmd.CallerToken = hostToken

	_, err := f.handler.Handle(context.Background(), cmd)
	require.Equal(t, reservation.KindInvalidRequest, reservation.KindOf(err))
	require.Zero(t, f.gateway.chargeCount())
}

func TestCreateReservationRejectsUnknownListing(t *testing.T) {
	f := newFixture(t)
	cmd := f.command("2026-03-01", "2026-03-03")
	cmd.ListingID = "nope"

	_, err := f.handler.Handle(context.Background(), cmd)
	require.Equal(t, reservation.KindNotFound, reservation.KindOf(err))
}

func TestCreateReservationValidatesDates(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		checkIn  string
		checkOut string
	}{
		{name: "check out before check in", checkIn: "2026-03-03", checkOut: "2026-03-01"},
		{name: "malformed check in", checkIn: "garbage", checkOut: "2026-03-01"},
		{name: "check in beyond one year", checkIn: "2027-02-10", checkOut: "2027-02-12"},
		{name: "check out beyond one year", checkIn: "2027-01-30", checkOut: "2027-02-10"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.handler.Handle(context.Background(), f.command(tc.checkIn, tc.checkOut))
			require.Equal(t, reservation.KindInvalidRequest, reservation.KindOf(err))
		})
	}
	require.Zero(t, f.gateway.chargeCount())
}

func TestCreateReservationConflictLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, f.command("2026-03-02", "2026-03-04"))
	require.NoError(t, err)
	require.Equal(t, 1, f.gateway.chargeCount())

	_, err = f.handler.Handle(ctx, f.command("2026-03-01", "2026-03-03"))
	require.Equal(t, reservation.KindConflict, reservation.KindOf(err))

	require.Equal(t, 1, f.gateway.chargeCount(), "conflicting request must not charge")
	lst, err := f.listings.ByID(ctx, "listing-1")
	require.NoError(t, err)
	require.Len(t, lst.Bookings, 1)
	require.Equal(t, 3, lst.Availability.Len())
}

func TestCreateReservationRequiresHostWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	host, err := f.users.ByID(ctx, "host-1")
	require.NoError(t, err)
	host.WalletID = ""
	require.NoError(t, f.users.Save(ctx, host))

	_, err = f.handler.Handle(ctx, f.command("2026-03-01", "2026-03-03"))
	require.Equal(t, reservation.KindInvalidRequest, reservation.KindOf(err))
	require.Zero(t, f.gateway.chargeCount())
}

func TestCreateReservationPaymentFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gateway.err = context.DeadlineExceeded

	_, err := f.handler.Handle(ctx, f.command("2026-03-01", "2026-03-03"))
	require.Equal(t, reservation.KindPaymentFailed, reservation.KindOf(err))

	lst, err := f.listings.ByID(ctx, "listing-1")
	require.NoError(t, err)
	require.Empty(t, lst.Bookings)
	require.Zero(t, lst.Availability.Len())
}

// failingBookings charges succeed but the first persistence write fails,
// which must surface as a reconciliation case rather than a plain error.
type failingBookings struct {
	domainbooking.Repository
}

func (failingBookings) Create(ctx context.Context, bk *domainbooking.Booking) error {
	return context.DeadlineExceeded
}

func TestCreateReservationRecordsReconciliation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	handler := reservation.NewHandler(reservation.Deps{
		Listings: f.listings,
		Users:    f.users,
		Bookings: failingBookings{Repository: f.bookings},
		Resolver: tokenResolver{users: f.users, tokens: map[string]domainuser.ID{
			tenantToken: "tenant-1",
		}},
		Gateway:    f.gateway,
		IDs:        security.HexIDGenerator{},
		Clock:      policies.ClockFunc(func() time.Time { return testNow }),
		Reconciler: f.reconciler,
	})

	_, err := handler.Handle(ctx, f.command("2026-03-01", "2026-03-03"))
	require.ErrorIs(t, err, reservation.ErrReconciliationRequired)
	require.Equal(t, 1, f.gateway.chargeCount(), "the charge had already happened")

	records := f.reconciler.All()
	require.Len(t, records, 1)
	require.Equal(t, "create booking", records[0].FailedStage)
	require.Equal(t, int64(300), records[0].Amount.Amount)
	require.Equal(t, "tenant-1", records[0].TenantID)
}

func TestConflictKindSurvivesIdempotentRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, f.command("2026-03-02", "2026-03-04"))
	require.NoError(t, err)

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, reservation.CreateReservationCommand{}.Key(), f.handler)
	wrapped := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))

	cmd := f.command("2026-03-01", "2026-03-03")
	cmd.IdempotencyKeyV = "retry-1"

	_, err = wrapped.Dispatch(ctx, cmd)
	require.Equal(t, reservation.KindConflict, reservation.KindOf(err))

	_, err = wrapped.Dispatch(ctx, cmd)
	require.Equal(t, reservation.KindConflict, reservation.KindOf(err),
		"a replayed failure must keep the kind the first attempt had")
	require.Equal(t, 1, f.gateway.chargeCount())
}

func TestCreateReservationSerializesOverlappingRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second, err := domainuser.New(domainuser.CreateParams{
		ID:           "tenant-2",
		Email:        "other@example.com",
		Name:         "Other",
		PasswordHash: "x",
		CreatedAt:    testNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Save(ctx, second))

	handler := reservation.NewHandler(reservation.Deps{
		Listings: f.listings,
		Users:    f.users,
		Bookings: f.bookings,
		Resolver: tokenResolver{users: f.users, tokens: map[string]domainuser.ID{
			tenantToken: "tenant-1",
			"other":     "tenant-2",
		}},
		Gateway:    f.gateway,
		IDs:        security.HexIDGenerator{},
		Clock:      policies.ClockFunc(func() time.Time { return testNow }),
		Reconciler: f.reconciler,
	})

	cmdA := f.command("2026-03-01", "2026-03-03")
	cmdB := f.command("2026-03-02", "2026-03-05")
	cmdB.CallerToken = "other"

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, cmd := range []reservation.CreateReservationCommand{cmdA, cmdB} {
		wg.Add(1)
		go func(i int, cmd reservation.CreateReservationCommand) {
			defer wg.Done()
			_, errs[i] = handler.Handle(ctx, cmd)
		}(i, cmd)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case reservation.KindOf(err) == reservation.KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, conflicts)
	require.Equal(t, 1, f.gateway.chargeCount(), "the loser must not be charged")

	lst, err := f.listings.ByID(ctx, "listing-1")
	require.NoError(t, err)
	require.Len(t, lst.Bookings, 1)
}
