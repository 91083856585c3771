package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"stayhub/internal/app/reservation"
	"stayhub/internal/domain/availability"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	domainuser "stayhub/internal/domain/user"
)

// ErrConcurrentUpdate is returned when a Save loses a version race.
var ErrConcurrentUpdate = errors.New("memory: concurrent update detected")

// ErrBookingExists guards the insert-only booking store.
var ErrBookingExists = errors.New("memory: booking already exists")

// ListingRepository keeps listings in memory with optimistic versioning.
// Reads hand out copies so callers can mutate freely before Save.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlisting.ID]*domainlisting.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlisting.ID]*domainlisting.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ID) (*domainlisting.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lst, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("memory: %w", domainlisting.ErrNotFound)
	}
	return copyListing(lst), nil
}

func (r *ListingRepository) Save(ctx context.Context, lst *domainlisting.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[lst.ID]; ok && stored.Version != lst.Version {
		return ErrConcurrentUpdate
	}
	next := copyListing(lst)
	next.Version = lst.Version + 1
	r.items[lst.ID] = next
	lst.Version = next.Version
	return nil
}

func copyListing(lst *domainlisting.Listing) *domainlisting.Listing {
	dup := *lst
	dup.Bookings = append([]domainbooking.ID(nil), lst.Bookings...)
	dup.Availability = availability.FromKeys(lst.Availability.Keys())
	return &dup
}

// UserRepository keeps users in memory with optimistic versioning.
type UserRepository struct {
	mu    sync.RWMutex
	items map[domainuser.ID]*domainuser.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{items: make(map[domainuser.ID]*domainuser.User)}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	usr, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("memory: %w", domainuser.ErrNotFound)
	}
	return copyUser(usr), nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, usr := range r.items {
		if usr.Email == email {
			return copyUser(usr), nil
		}
	}
	return nil, fmt.Errorf("memory: %w", domainuser.ErrNotFound)
}

func (r *UserRepository) Save(ctx context.Context, usr *domainuser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[usr.ID]; ok && stored.Version != usr.Version {
		return ErrConcurrentUpdate
	}
	// Email carries the same uniqueness constraint the document store
	// enforces with its index.
	for _, stored := range r.items {
		if stored.ID != usr.ID && stored.Email == usr.Email {
			return fmt.Errorf("memory: %w", domainuser.ErrEmailAlreadyUsed)
		}
	}
	next := copyUser(usr)
	next.Version = usr.Version + 1
	r.items[usr.ID] = next
	usr.Version = next.Version
	return nil
}

func copyUser(usr *domainuser.User) *domainuser.User {
	dup := *usr
	dup.Bookings = append([]domainbooking.ID(nil), usr.Bookings...)
	dup.Listings = append([]domainlisting.ID(nil), usr.Listings...)
	return &dup
}

// BookingRepository is an insert-only booking store.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.ID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.ID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bk, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("memory: %w", domainbooking.ErrNotFound)
	}
	dup := *bk
	return &dup, nil
}

func (r *BookingRepository) Create(ctx context.Context, bk *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[bk.ID]; ok {
		return ErrBookingExists
	}
	dup := *bk
	r.items[bk.ID] = &dup
	return nil
}

func (r *BookingRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := strings.TrimSpace(tenantID)
	if id == "" {
		return nil, errors.New("memory: tenant id required")
	}
	matches := make([]*domainbooking.Booking, 0)
	for _, bk := range r.items {
		if bk.TenantID == id {
			dup := *bk
			matches = append(matches, &dup)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// ReconciliationStore collects charge orphans for operator review.
type ReconciliationStore struct {
	mu    sync.RWMutex
	items []reservation.ChargeReconciliation
}

func NewReconciliationStore() *ReconciliationStore {
	return &ReconciliationStore{}
}

func (s *ReconciliationStore) Record(ctx context.Context, rec reservation.ChargeReconciliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
	return nil
}

func (s *ReconciliationStore) All() []reservation.ChargeReconciliation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]reservation.ChargeReconciliation(nil), s.items...)
}

var (
	_ domainlisting.Repository = (*ListingRepository)(nil)
	_ domainuser.Repository    = (*UserRepository)(nil)
	_ domainbooking.Repository = (*BookingRepository)(nil)
	_ reservation.Reconciler   = (*ReconciliationStore)(nil)
)
