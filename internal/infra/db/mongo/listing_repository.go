package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayhub/internal/domain/availability"
	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/money"
)

// ErrConcurrentUpdate is returned when a versioned write loses the race
// against another writer.
var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("listings")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ID) (*domainlisting.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mongo: %w", domainlisting.ErrNotFound)
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save writes the listing conditioned on the stored version still matching
// the one the aggregate was loaded with.
func (r *ListingRepository) Save(ctx context.Context, lst *domainlisting.Listing) error {
	doc := newListingDocument(lst)
	filter := bson.M{"_id": doc.ID, "version": lst.Version}
	doc.Version = lst.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	lst.Version = doc.Version
	return nil
}

type listingDocument struct {
	ID          string      `bson:"_id"`
	HostID      string      `bson:"host_id"`
	Title       string      `bson:"title"`
	Description string      `bson:"description"`
	Type        string      `bson:"type"`
	Address     string      `bson:"address"`
	Country     string      `bson:"country"`
	City        string      `bson:"city"`
	NightlyRate money.Money `bson:"nightly_rate"`
	GuestsLimit int         `bson:"guests_limit"`
	Bookings    []string    `bson:"bookings"`
	BookedDays  []int64     `bson:"booked_days"`
	CreatedAt   int64       `bson:"created_at"`
	UpdatedAt   int64       `bson:"updated_at"`
	Version     int64       `bson:"version"`
}

func newListingDocument(lst *domainlisting.Listing) listingDocument {
	bookings := make([]string, 0, len(lst.Bookings))
	for _, id := range lst.Bookings {
		bookings = append(bookings, string(id))
	}
	return listingDocument{
		ID:          string(lst.ID),
		HostID:      lst.HostID,
		Title:       lst.Title,
		Description: lst.Description,
		Type:        string(lst.Type),
		Address:     lst.Address,
		Country:     lst.Country,
		City:        lst.City,
		NightlyRate: lst.NightlyRate,
		GuestsLimit: lst.GuestsLimit,
		Bookings:    bookings,
		BookedDays:  lst.Availability.Keys(),
		CreatedAt:   lst.CreatedAt.UnixMilli(),
		UpdatedAt:   lst.UpdatedAt.UnixMilli(),
		Version:     lst.Version,
	}
}

func (d listingDocument) toAggregate() *domainlisting.Listing {
	bookings := make([]domainbooking.ID, 0, len(d.Bookings))
	for _, id := range d.Bookings {
		bookings = append(bookings, domainbooking.ID(id))
	}
	return &domainlisting.Listing{
		ID:           domainlisting.ID(d.ID),
		HostID:       d.HostID,
		Title:        d.Title,
		Description:  d.Description,
		Type:         domainlisting.Type(d.Type),
		Address:      d.Address,
		Country:      d.Country,
		City:         d.City,
		NightlyRate:  d.NightlyRate,
		GuestsLimit:  d.GuestsLimit,
		Bookings:     bookings,
		Availability: availability.FromKeys(d.BookedDays),
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainlisting.Repository = (*ListingRepository)(nil)
