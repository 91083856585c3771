package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"stayhub/internal/app/reservation"
)

// ReconciliationStore persists charge orphans so operators can settle them
// even across restarts.
type ReconciliationStore struct {
	col *mongo.Collection
}

func NewReconciliationStore(db *mongo.Database) *ReconciliationStore {
	return &ReconciliationStore{col: db.Collection("charge_reconciliations")}
}

func (s *ReconciliationStore) Record(ctx context.Context, rec reservation.ChargeReconciliation) error {
	doc := reconciliationDocument{
		CommandID:   rec.CommandID,
		BookingID:   rec.BookingID,
		ListingID:   rec.ListingID,
		TenantID:    rec.TenantID,
		HostID:      rec.HostID,
		Amount:      rec.Amount.Amount,
		Currency:    rec.Amount.Currency,
		FailedStage: rec.FailedStage,
		Cause:       rec.Cause,
		At:          rec.At.UnixMilli(),
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

type reconciliationDocument struct {
	CommandID   string `bson:"command_id"`
	BookingID   string `bson:"booking_id"`
	ListingID   string `bson:"listing_id"`
	TenantID    string `bson:"tenant_id"`
	HostID      string `bson:"host_id"`
	Amount      int64  `bson:"amount"`
	Currency    string `bson:"currency"`
	FailedStage string `bson:"failed_stage"`
	Cause       string `bson:"cause"`
	At          int64  `bson:"at"`
}

var _ reservation.Reconciler = (*ReconciliationStore)(nil)
