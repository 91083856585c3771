package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayhub/internal/domain/booking"
	domainlisting "stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

// EnsureIndexes creates the unique email index registration depends on.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mongo: %w", domainuser.ErrNotFound)
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mongo: %w", domainuser.ErrNotFound)
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) Save(ctx context.Context, usr *domainuser.User) error {
	doc := newUserDocument(usr)
	filter := bson.M{"_id": doc.ID, "version": usr.Version}
	doc.Version = usr.Version + 1
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Two unique indexes can fire here: email, and _id when a
			// version-mismatched upsert races an existing document.
			if strings.Contains(err.Error(), "email") {
				return fmt.Errorf("mongo: %w", domainuser.ErrEmailAlreadyUsed)
			}
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	usr.Version = doc.Version
	return nil
}

type userDocument struct {
	ID           string      `bson:"_id"`
	Email        string      `bson:"email"`
	Name         string      `bson:"name"`
	Avatar       string      `bson:"avatar"`
	Contact      string      `bson:"contact"`
	PasswordHash string      `bson:"password_hash"`
	WalletID     string      `bson:"wallet_id"`
	Income       money.Money `bson:"income"`
	Bookings     []string    `bson:"bookings"`
	Listings     []string    `bson:"listings"`
	CreatedAt    int64       `bson:"created_at"`
	UpdatedAt    int64       `bson:"updated_at"`
	Version      int64       `bson:"version"`
}

func newUserDocument(usr *domainuser.User) userDocument {
	bookings := make([]string, 0, len(usr.Bookings))
	for _, id := range usr.Bookings {
		bookings = append(bookings, string(id))
	}
	listings := make([]string, 0, len(usr.Listings))
	for _, id := range usr.Listings {
		listings = append(listings, string(id))
	}
	return userDocument{
		ID:           string(usr.ID),
		Email:        usr.Email,
		Name:         usr.Name,
		Avatar:       usr.Avatar,
		Contact:      usr.Contact,
		PasswordHash: usr.PasswordHash,
		WalletID:     usr.WalletID,
		Income:       usr.Income,
		Bookings:     bookings,
		Listings:     listings,
		CreatedAt:    usr.CreatedAt.UnixMilli(),
		UpdatedAt:    usr.UpdatedAt.UnixMilli(),
		Version:      usr.Version,
	}
}

func (d userDocument) toAggregate() *domainuser.User {
	bookings := make([]domainbooking.ID, 0, len(d.Bookings))
	for _, id := range d.Bookings {
		bookings = append(bookings, domainbooking.ID(id))
	}
	listings := make([]domainlisting.ID, 0, len(d.Listings))
	for _, id := range d.Listings {
		listings = append(listings, domainlisting.ID(id))
	}
	return &domainuser.User{
		ID:           domainuser.ID(d.ID),
		Email:        d.Email,
		Name:         d.Name,
		Avatar:       d.Avatar,
		Contact:      d.Contact,
		PasswordHash: d.PasswordHash,
		WalletID:     d.WalletID,
		Income:       d.Income,
		Bookings:     bookings,
		Listings:     listings,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}
