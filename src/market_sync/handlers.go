package market_sync

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/chainbazaar/syncer/src/utils/model"

	"github.com/lib/pq"
)

func (self *Dispatcher) onListingCreated(event *Event, payload *ListingCreated) error {
	listingId := payload.ListingId.Uint64()
	release := self.locks.Acquire(listingKey(listingId))
	defer release()

	// A listing is created on chain exactly once, a replayed event
	// carries nothing new. Skipping early avoids the metadata fetch.
	cached, err := self.store.HasListing(self.Ctx, listingId)
	if err != nil {
		return err
	}
	if cached {
		self.Log.WithField("listingId", listingId).Debug("Listing already cached, skipped")
		return nil
	}

	doc := self.resolver.Resolve(self.Ctx, payload.ContentHash, payload.Category)

	createdAt, err := self.blockTime(event.BlockNumber)
	if err != nil {
		return err
	}

	listing := &model.Listing{
		ListingId:     listingId,
		OwnerWallet:   payload.Owner.Hex(),
		Category:      doc.Category,
		PriceAmount:   payload.Price.String(),
		DepositAmount: payload.Deposit.String(),
		ContentHash:   payload.ContentHash,
		IsForRent:     payload.IsForRent,
		IsActive:      true,
		Title:         doc.Title,
		Description:   doc.Description,
		Location:      doc.Location,
		Tags:          pq.StringArray(doc.Tags),
		Images:        pq.StringArray(doc.Images),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}

	err = self.store.UpsertListing(self.Ctx, listing)
	if err != nil {
		return fmt.Errorf("failed to upsert listing %d: %w", listingId, err)
	}
	self.monitor.GetReport().MarketSyncer.State.ListingsSaved.Inc()

	// Broadcast what was actually persisted, not the local draft
	saved, found, err := self.store.GetListing(self.Ctx, listingId)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("listing %d vanished after upsert", listingId)
	}

	self.fanout.Broadcast(&RealtimeMessage{
		ChannelName: MarketplaceChannel,
		Type:        "listing_created",
		Data: map[string]interface{}{
			"listing_id":  saved.ListingId,
			"category":    saved.Category,
			"title":       saved.Title,
			"is_for_rent": saved.IsForRent,
		},
	})

	self.activity.Record(payload.Owner.Hex(), "listing_created", "listing",
		strconv.FormatUint(listingId, 10), map[string]interface{}{
			"category": doc.Category,
			"price":    payload.Price.String(),
		})

	return nil
}

func (self *Dispatcher) onTransactionStarted(event *Event, payload *TransactionStarted) error {
	transactionId := payload.TransactionId.Uint64()
	listingId := payload.ListingId.Uint64()

	release := self.locks.Acquire(transactionKey(transactionId))
	defer release()

	kind := model.TransactionKindSale
	if payload.Kind == TransactionKindRent {
		kind = model.TransactionKindRent
	}

	createdAt, err := self.blockTime(event.BlockNumber)
	if err != nil {
		return err
	}

	transaction := &model.MarketTransaction{
		TransactionId: transactionId,
		ListingId:     listingId,
		BuyerWallet:   payload.Buyer.Hex(),
		SellerWallet:  payload.Seller.Hex(),
		Amount:        payload.Amount.String(),
		Status:        model.TransactionStatusActive,
		TxHash:        event.TxHash,
		Kind:          kind,
		CreatedAt:     createdAt,
	}

	err = self.store.UpsertTransaction(self.Ctx, transaction)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction %d: %w", transactionId, err)
	}
	self.monitor.GetReport().MarketSyncer.State.TransactionsSaved.Inc()

	// A sale takes the listing off the market, a rental leaves it visible
	if kind == model.TransactionKindSale {
		releaseListing := self.locks.Acquire(listingKey(listingId))
		err = self.store.SetListingActive(self.Ctx, listingId, false)
		releaseListing()
		if err != nil {
			return fmt.Errorf("failed to deactivate listing %d: %w", listingId, err)
		}
	}

	data := map[string]interface{}{
		"transaction_id": transactionId,
		"listing_id":     listingId,
		"amount":         payload.Amount.String(),
		"kind":           string(kind),
	}
	err = self.fanout.Notify(self.Ctx, event, payload.Buyer.Hex(),
		model.NotificationTypeTransactionStarted,
		"Transaction started",
		fmt.Sprintf("Your %s transaction #%d has started", kind, transactionId),
		data)
	if err != nil {
		return err
	}
	err = self.fanout.Notify(self.Ctx, event, payload.Seller.Hex(),
		model.NotificationTypeTransactionStarted,
		"Transaction started",
		fmt.Sprintf("Transaction #%d has started for your listing", transactionId),
		data)
	if err != nil {
		return err
	}

	self.activity.Record(payload.Buyer.Hex(), "transaction_started", "transaction",
		strconv.FormatUint(transactionId, 10), data)

	return nil
}

func (self *Dispatcher) onTransactionConfirmed(event *Event, payload *TransactionConfirmed) error {
	transactionId := payload.TransactionId.Uint64()
	release := self.locks.Acquire(transactionKey(transactionId))
	defer release()

	transaction, found, err := self.store.GetTransaction(self.Ctx, transactionId)
	if err != nil {
		return err
	}
	if !found {
		// The start event may still be in flight, retrying gives it time to land
		return fmt.Errorf("transaction %d not in cache yet", transactionId)
	}

	confirmedBy := payload.ConfirmedBy.Hex()
	updates := map[string]interface{}{}
	switch {
	case sameWallet(confirmedBy, transaction.BuyerWallet):
		updates["buyer_confirmed"] = true
	case sameWallet(confirmedBy, transaction.SellerWallet):
		updates["seller_confirmed"] = true
	default:
		self.Log.WithField("transactionId", transactionId).
			WithField("confirmedBy", confirmedBy).
			Warn("Confirmation from a wallet that is not a transaction party, ignored")
		return nil
	}

	// Don't resurrect a terminal or disputed transaction
	if transaction.Status.CanTransitionTo(model.TransactionStatusActive) {
		updates["status"] = model.TransactionStatusActive
	}

	err = self.store.UpdateTransaction(self.Ctx, transactionId, updates)
	if err != nil {
		return err
	}
	self.monitor.GetReport().MarketSyncer.State.TransactionsSaved.Inc()

	// Only the other party cares that a confirmation arrived
	recipient := transaction.SellerWallet
	if sameWallet(confirmedBy, transaction.SellerWallet) {
		recipient = transaction.BuyerWallet
	}
	return self.fanout.Notify(self.Ctx, event, recipient,
		model.NotificationTypeTransactionConfirmed,
		"Transaction confirmed",
		fmt.Sprintf("Transaction #%d has been confirmed by the other party", transactionId),
		map[string]interface{}{
			"transaction_id": transactionId,
			"confirmed_by":   confirmedBy,
		})
}

func (self *Dispatcher) onTransactionCompleted(event *Event, payload *TransactionCompleted) error {
	transactionId := payload.TransactionId.Uint64()
	release := self.locks.Acquire(transactionKey(transactionId))
	defer release()

	transaction, found, err := self.store.GetTransaction(self.Ctx, transactionId)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("transaction %d not in cache yet", transactionId)
	}

	if !transaction.Status.CanTransitionTo(model.TransactionStatusCompleted) {
		self.Log.WithField("transactionId", transactionId).
			WithField("status", transaction.Status).
			Warn("Completion event for a transaction that cannot complete, skipped")
		return nil
	}

	completedAt := time.Unix(payload.Timestamp.Int64(), 0).UTC()
	err = self.store.UpdateTransaction(self.Ctx, transactionId, map[string]interface{}{
		"status":       model.TransactionStatusCompleted,
		"completed_at": sql.NullTime{Time: completedAt, Valid: true},
	})
	if err != nil {
		return err
	}
	self.monitor.GetReport().MarketSyncer.State.TransactionsSaved.Inc()

	data := map[string]interface{}{
		"transaction_id": transactionId,
		"completed_at":   completedAt.Format(time.RFC3339),
	}
	err = self.fanout.Notify(self.Ctx, event, transaction.BuyerWallet,
		model.NotificationTypeTransactionCompleted,
		"Transaction completed",
		fmt.Sprintf("Transaction #%d has completed", transactionId),
		data)
	if err != nil {
		return err
	}
	err = self.fanout.Notify(self.Ctx, event, transaction.SellerWallet,
		model.NotificationTypeTransactionCompleted,
		"Transaction completed",
		fmt.Sprintf("Transaction #%d has completed", transactionId),
		data)
	if err != nil {
		return err
	}

	self.activity.Record(transaction.BuyerWallet, "transaction_completed", "transaction",
		strconv.FormatUint(transactionId, 10), data)

	return nil
}

func (self *Dispatcher) onDisputeCreated(event *Event, payload *DisputeCreated) error {
	disputeId := payload.DisputeId.Uint64()
	transactionId := payload.TransactionId.Uint64()

	release := self.locks.Acquire(disputeKey(disputeId))
	defer release()
	releaseTransaction := self.locks.Acquire(transactionKey(transactionId))
	defer releaseTransaction()

	transaction, found, err := self.store.GetTransaction(self.Ctx, transactionId)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("transaction %d not in cache yet", transactionId)
	}

	// The defendant is the transaction party that didn't open the dispute
	initiator := payload.Initiator.Hex()
	defendant := transaction.SellerWallet
	if sameWallet(initiator, transaction.SellerWallet) {
		defendant = transaction.BuyerWallet
	}

	createdAt, err := self.blockTime(event.BlockNumber)
	if err != nil {
		return err
	}

	err = self.store.UpsertDispute(self.Ctx, &model.Dispute{
		DisputeId:       disputeId,
		TransactionId:   transactionId,
		InitiatorWallet: initiator,
		DefendantWallet: defendant,
		Reason:          payload.Reason,
		Status:          model.DisputeStatusOpen,
		CreatedAt:       createdAt,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert dispute %d: %w", disputeId, err)
	}
	self.monitor.GetReport().MarketSyncer.State.DisputesSaved.Inc()

	if transaction.Status.CanTransitionTo(model.TransactionStatusDisputed) {
		err = self.store.UpdateTransaction(self.Ctx, transactionId, map[string]interface{}{
			"status": model.TransactionStatusDisputed,
		})
		if err != nil {
			return err
		}
	} else {
		self.Log.WithField("transactionId", transactionId).
			WithField("status", transaction.Status).
			Warn("Dispute created for a transaction that cannot be disputed")
	}

	return self.fanout.Notify(self.Ctx, event, defendant,
		model.NotificationTypeDisputeCreated,
		"Dispute opened",
		fmt.Sprintf("A dispute has been opened against you for transaction #%d", transactionId),
		map[string]interface{}{
			"dispute_id":     disputeId,
			"transaction_id": transactionId,
			"reason":         payload.Reason,
		})
}

func (self *Dispatcher) onDisputeResolved(event *Event, payload *DisputeResolved) error {
	disputeId := payload.DisputeId.Uint64()
	release := self.locks.Acquire(disputeKey(disputeId))
	defer release()

	dispute, found, err := self.store.GetDispute(self.Ctx, disputeId)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("dispute %d not in cache yet", disputeId)
	}

	winner := payload.Winner.Hex()
	resolvedAt := time.Unix(payload.Timestamp.Int64(), 0).UTC()
	err = self.store.UpdateDispute(self.Ctx, disputeId, map[string]interface{}{
		"status":        model.DisputeStatusResolved,
		"winner_wallet": winner,
		"resolved_at":   sql.NullTime{Time: resolvedAt, Valid: true},
	})
	if err != nil {
		return err
	}
	self.monitor.GetReport().MarketSyncer.State.DisputesSaved.Inc()

	loser := dispute.DefendantWallet
	if sameWallet(winner, dispute.DefendantWallet) {
		loser = dispute.InitiatorWallet
	}

	data := map[string]interface{}{
		"dispute_id":     disputeId,
		"transaction_id": dispute.TransactionId,
		"winner":         winner,
	}
	err = self.fanout.Notify(self.Ctx, event, winner,
		model.NotificationTypeDisputeResolved,
		"Dispute resolved",
		fmt.Sprintf("Dispute #%d has been resolved in your favor", disputeId),
		data)
	if err != nil {
		return err
	}
	return self.fanout.Notify(self.Ctx, event, loser,
		model.NotificationTypeDisputeResolved,
		"Dispute resolved",
		fmt.Sprintf("Dispute #%d has been resolved against you", disputeId),
		data)
}

func (self *Dispatcher) onReviewSubmitted(event *Event, payload *ReviewSubmitted) error {
	reviewId := payload.ReviewId.Uint64()

	timestamp, err := self.blockTime(event.BlockNumber)
	if err != nil {
		return err
	}

	err = self.store.UpsertReview(self.Ctx, &model.Review{
		ReviewId:       reviewId,
		TransactionId:  payload.TransactionId.Uint64(),
		ReviewerWallet: payload.Reviewer.Hex(),
		RevieweeWallet: payload.Reviewee.Hex(),
		Rating:         int16(payload.Rating),
		ContentHash:    payload.ContentHash,
		Timestamp:      timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert review %d: %w", reviewId, err)
	}
	self.monitor.GetReport().MarketSyncer.State.ReviewsSaved.Inc()

	return self.fanout.Notify(self.Ctx, event, payload.Reviewee.Hex(),
		model.NotificationTypeReviewReceived,
		"New review",
		fmt.Sprintf("You received a %d-star review", payload.Rating),
		map[string]interface{}{
			"review_id":      reviewId,
			"transaction_id": payload.TransactionId.Uint64(),
			"rating":         payload.Rating,
		})
}
