package market_sync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chainbazaar/syncer/src/utils/logger"
	"github.com/chainbazaar/syncer/src/utils/model"

	"github.com/jackc/pgtype"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Idempotent upserts and point lookups for the cache rows.
// Updates overwrite only the listed columns, everything else
// (e.g. views bumped by the read API) is preserved.
type CacheStore struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewCacheStore(db *gorm.DB) *CacheStore {
	return &CacheStore{
		db:  db,
		log: logger.NewSublogger("cache-store"),
	}
}

func (self *CacheStore) UpsertListing(ctx context.Context, listing *model.Listing) error {
	listing.LastSynced = time.Now()
	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "listing_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"owner_wallet", "category", "price_amount", "deposit_amount",
				"content_hash", "is_for_rent", "is_active",
				"title", "description", "location", "tags", "images",
				"updated_at", "last_synced",
			}),
		}).
		Create(listing).Error
}

func (self *CacheStore) GetListing(ctx context.Context, listingId uint64) (listing *model.Listing, found bool, err error) {
	listing = new(model.Listing)
	err = self.db.WithContext(ctx).
		Where("listing_id = ?", listingId).
		First(listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return listing, true, nil
}

func (self *CacheStore) HasListing(ctx context.Context, listingId uint64) (found bool, err error) {
	var count int64
	err = self.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("listing_id = ?", listingId).
		Count(&count).Error
	return count > 0, err
}

func (self *CacheStore) SetListingActive(ctx context.Context, listingId uint64, isActive bool) error {
	return self.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("listing_id = ?", listingId).
		Updates(map[string]interface{}{
			"is_active":   isActive,
			"updated_at":  time.Now(),
			"last_synced": time.Now(),
		}).Error
}

func (self *CacheStore) UpsertTransaction(ctx context.Context, transaction *model.MarketTransaction) error {
	transaction.LastSynced = time.Now()
	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "transaction_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"listing_id", "buyer_wallet", "seller_wallet", "amount",
				"status", "tx_hash", "kind", "last_synced",
			}),
		}).
		Create(transaction).Error
}

func (self *CacheStore) GetTransaction(ctx context.Context, transactionId uint64) (transaction *model.MarketTransaction, found bool, err error) {
	transaction = new(model.MarketTransaction)
	err = self.db.WithContext(ctx).
		Where("transaction_id = ?", transactionId).
		First(transaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return transaction, true, nil
}

// Atomic single-row update of explicitly supplied columns
func (self *CacheStore) UpdateTransaction(ctx context.Context, transactionId uint64, updates map[string]interface{}) error {
	updates["last_synced"] = time.Now()
	return self.db.WithContext(ctx).
		Model(&model.MarketTransaction{}).
		Where("transaction_id = ?", transactionId).
		Updates(updates).Error
}

func (self *CacheStore) UpsertDispute(ctx context.Context, dispute *model.Dispute) error {
	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "dispute_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"transaction_id", "initiator_wallet", "defendant_wallet",
				"reason", "status",
			}),
		}).
		Create(dispute).Error
}

func (self *CacheStore) GetDispute(ctx context.Context, disputeId uint64) (dispute *model.Dispute, found bool, err error) {
	dispute = new(model.Dispute)
	err = self.db.WithContext(ctx).
		Where("dispute_id = ?", disputeId).
		First(dispute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return dispute, true, nil
}

func (self *CacheStore) UpdateDispute(ctx context.Context, disputeId uint64, updates map[string]interface{}) error {
	return self.db.WithContext(ctx).
		Model(&model.Dispute{}).
		Where("dispute_id = ?", disputeId).
		Updates(updates).Error
}

func (self *CacheStore) UpsertReview(ctx context.Context, review *model.Review) error {
	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "review_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"transaction_id", "reviewer_wallet", "reviewee_wallet",
				"rating", "content_hash", "timestamp",
			}),
		}).
		Create(review).Error
}

func (self *CacheStore) SaveDeadLetter(ctx context.Context, event *Event, handlerErr error) error {
	var payload pgtype.JSONB
	raw, err := json.Marshal(event.Payload)
	if err != nil {
		raw = []byte("{}")
	}
	err = payload.Set(json.RawMessage(raw))
	if err != nil {
		return err
	}

	return self.db.WithContext(ctx).
		Create(&model.DeadLetter{
			EventName:   event.Name,
			BlockNumber: event.BlockNumber,
			TxHash:      event.TxHash,
			LogIndex:    event.LogIndex,
			Payload:     payload,
			Error:       handlerErr.Error(),
			CreatedAt:   time.Now(),
		}).Error
}
