package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayhub/internal/domain/booking"
	"stayhub/internal/domain/shared/daterange"
)

// ErrBookingExists guards the insert-only booking collection.
var ErrBookingExists = errors.New("mongo: booking already exists")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("bookings")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mongo: %w", domainbooking.ErrNotFound)
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BookingRepository) Create(ctx context.Context, bk *domainbooking.Booking) error {
	_, err := r.col.InsertOne(ctx, newBookingDocument(bk))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrBookingExists
		}
		return err
	}
	return nil
}

func (r *BookingRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		bk, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, bk)
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID        string `bson:"_id"`
	ListingID string `bson:"listing_id"`
	TenantID  string `bson:"tenant_id"`
	CheckIn   string `bson:"check_in"`
	CheckOut  string `bson:"check_out"`
	CreatedAt int64  `bson:"created_at"`
}

func newBookingDocument(bk *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(bk.ID),
		ListingID: bk.ListingID,
		TenantID:  bk.TenantID,
		CheckIn:   bk.CheckIn(),
		CheckOut:  bk.CheckOut(),
		CreatedAt: bk.CreatedAt.UnixMilli(),
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	dr, err := daterange.Parse(d.CheckIn, d.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("mongo: booking %s has corrupt dates: %w", d.ID, err)
	}
	return &domainbooking.Booking{
		ID:        domainbooking.ID(d.ID),
		ListingID: d.ListingID,
		TenantID:  d.TenantID,
		Range:     dr,
		CreatedAt: timestampToTime(d.CreatedAt),
	}, nil
}
