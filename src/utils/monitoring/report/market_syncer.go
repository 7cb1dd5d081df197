package report

import "go.uber.org/atomic"

type MarketSyncerErrors struct {
	ListenerFailures          atomic.Uint64 `json:"listener_failures"`
	BackfillFailures          atomic.Uint64 `json:"backfill_failures"`
	ParserFailures            atomic.Uint64 `json:"parser_failures"`
	HandlerFailures           atomic.Uint64 `json:"handler_failures"`
	DeadLetteredEvents        atomic.Uint64 `json:"dead_lettered_events"`
	MetadataFetchFailures     atomic.Uint64 `json:"metadata_fetch_failures"`
	CheckpointSaveFailures    atomic.Uint64 `json:"checkpoint_save_failures"`
	NotificationSaveFailures  atomic.Uint64 `json:"notification_save_failures"`
	RealtimePublishFailures   atomic.Uint64 `json:"realtime_publish_failures"`
	ActivityEntrySaveFailures atomic.Uint64 `json:"activity_entry_save_failures"`
}

type MarketSyncerState struct {
	ListenerCurrentHeight  atomic.Int64  `json:"listener_current_height"`
	CheckpointHeight       atomic.Int64  `json:"checkpoint_height"`
	EventsBackfilled       atomic.Uint64 `json:"events_backfilled"`
	EventsLive             atomic.Uint64 `json:"events_live"`
	ListingsSaved          atomic.Uint64 `json:"listings_saved"`
	TransactionsSaved      atomic.Uint64 `json:"transactions_saved"`
	DisputesSaved          atomic.Uint64 `json:"disputes_saved"`
	ReviewsSaved           atomic.Uint64 `json:"reviews_saved"`
	NotificationsSaved     atomic.Uint64 `json:"notifications_saved"`
	MetadataCacheHits      atomic.Uint64 `json:"metadata_cache_hits"`
	MetadataDefaultedDocs  atomic.Uint64 `json:"metadata_defaulted_docs"`
	ActivityEntriesSaved   atomic.Uint64 `json:"activity_entries_saved"`
	RealtimeMessagesQueued atomic.Uint64 `json:"realtime_messages_queued"`
}

type MarketSyncerReport struct {
	State  MarketSyncerState  `json:"state"`
	Errors MarketSyncerErrors `json:"errors"`
}
