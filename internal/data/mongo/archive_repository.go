package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tienda-register-ledger/internal/domain/ledger"
)

const (
	// ArchiveCollectionName is the name of the ledger archive collection in MongoDB
	ArchiveCollectionName = "ledger_archive"
)

// entryDocument is the stored shape of a ledger entry; amounts keep full precision as Decimal128
type entryDocument struct {
	ID              int64                `bson:"_id"`
	Timestamp       time.Time            `bson:"timestamp"`
	Kind            string               `bson:"kind"`
	Description     string               `bson:"description"`
	Amount          primitive.Decimal128 `bson:"amount"`
	SaleID          *int64               `bson:"sale_id,omitempty"`
	PurchaseID      *int64               `bson:"purchase_id,omitempty"`
	WorkerID        *int64               `bson:"worker_id,omitempty"`
	InvestmentAfter primitive.Decimal128 `bson:"investment_after"`
	PayoutAfter     primitive.Decimal128 `bson:"payout_after"`
	Verified        bool                 `bson:"verified"`
	ArchivedAt      time.Time            `bson:"archived_at"`
}

func toDocument(entry *ledger.Entry, verified bool, archivedAt time.Time) (entryDocument, error) {
	doc := entryDocument{
		ID:          entry.ID,
		Timestamp:   entry.Timestamp.UTC(),
		Kind:        string(entry.Kind),
		Description: entry.Description,
		SaleID:      entry.SaleID,
		PurchaseID:  entry.PurchaseID,
		WorkerID:    entry.WorkerID,
		Verified:    verified,
		ArchivedAt:  archivedAt.UTC(),
	}
	var err error
	if doc.Amount, err = toDecimal128(entry.Amount); err != nil {
		return doc, err
	}
	if doc.InvestmentAfter, err = toDecimal128(entry.InvestmentAfter); err != nil {
		return doc, err
	}
	if doc.PayoutAfter, err = toDecimal128(entry.PayoutAfter); err != nil {
		return doc, err
	}
	return doc, nil
}

func (d entryDocument) entry() (*ledger.Entry, error) {
	entry := &ledger.Entry{
		ID:          d.ID,
		Timestamp:   d.Timestamp,
		Kind:        ledger.Kind(d.Kind),
		Description: d.Description,
		SaleID:      d.SaleID,
		PurchaseID:  d.PurchaseID,
		WorkerID:    d.WorkerID,
	}
	var err error
	if entry.Amount, err = fromDecimal128(d.Amount); err != nil {
		return nil, err
	}
	if entry.InvestmentAfter, err = fromDecimal128(d.InvestmentAfter); err != nil {
		return nil, err
	}
	if entry.PayoutAfter, err = fromDecimal128(d.PayoutAfter); err != nil {
		return nil, err
	}
	return entry, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to encode amount %s: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to decode amount %s: %w", v.String(), err)
	}
	return d, nil
}

// ArchiveRepository implements the ledger.ArchiveRepository interface for MongoDB
type ArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
	now    func() time.Time
}

// NewArchiveRepository creates a new MongoDB ledger archive repository
func NewArchiveRepository(logger *slog.Logger, db *mongo.Database) ledger.ArchiveRepository {
	return &ArchiveRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Upsert inserts the entry keyed by its ledger id. An entry already archived is left untouched.
func (r *ArchiveRepository) Upsert(ctx context.Context, entry *ledger.Entry, verified bool) error {
	collection := r.db.Collection(ArchiveCollectionName)

	doc, err := toDocument(entry, verified, r.now())
	if err != nil {
		return err
	}

	filter := bson.M{"_id": entry.ID}
	update := bson.M{"$setOnInsert": doc}
	opts := options.Update().SetUpsert(true)

	result, err := collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		r.logger.Error("Failed to archive ledger entry",
			"entry_id", entry.ID,
			"error", err)
		return fmt.Errorf("failed to archive ledger entry: %w", err)
	}

	if result.UpsertedCount == 0 {
		r.logger.Debug("Ledger entry already archived", "entry_id", entry.ID)
	}

	return nil
}

// GetByID retrieves an archived entry by its ledger id.
// Returns ErrEntryNotFound if the entry has not been archived.
func (r *ArchiveRepository) GetByID(ctx context.Context, id int64) (*ledger.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	var doc entryDocument
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEntryNotFound{ID: id}
		}
		r.logger.Error("Failed to get archived ledger entry",
			"entry_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to get archived ledger entry: %w", err)
	}

	return doc.entry()
}

// Latest returns the archived entry with the highest id, or nil for an empty archive
func (r *ArchiveRepository) Latest(ctx context.Context) (*ledger.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})

	var doc entryDocument
	err := collection.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest archived ledger entry", "error", err)
		return nil, fmt.Errorf("failed to get latest archived ledger entry: %w", err)
	}

	return doc.entry()
}

// GetByTimeRange retrieves paginated archived entries within the specified time window.
// Results are sorted newest first, matching the ledger view.
func (r *ArchiveRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*ledger.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, timeRangeFilter(startTime, endTime), opts)
	if err != nil {
		r.logger.Error("Failed to get archived entries by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get archived entries by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode archived entries",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to decode archived entries: %w", err)
	}

	entries := make([]*ledger.Entry, 0, len(docs))
	for _, doc := range docs {
		entry, err := doc.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// CountByTimeRange counts archived entries within the specified time window
func (r *ArchiveRepository) CountByTimeRange(ctx context.Context, startTime, endTime time.Time) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	count, err := collection.CountDocuments(ctx, timeRangeFilter(startTime, endTime))
	if err != nil {
		r.logger.Error("Failed to count archived entries",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return 0, fmt.Errorf("failed to count archived entries: %w", err)
	}

	return count, nil
}

// CountUnverified counts entries archived without a passing chain check
func (r *ArchiveRepository) CountUnverified(ctx context.Context) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"verified": false})
	if err != nil {
		r.logger.Error("Failed to count unverified archived entries", "error", err)
		return 0, fmt.Errorf("failed to count unverified archived entries: %w", err)
	}

	return count, nil
}

func timeRangeFilter(startTime, endTime time.Time) bson.M {
	return bson.M{
		"timestamp": bson.M{
			"$gte": startTime.UTC(),
			"$lte": endTime.UTC(),
		},
	}
}

// ArchiveIndexes lists the secondary indexes the time range queries rely on
func ArchiveIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}},
	}
}
