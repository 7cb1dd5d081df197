package config

import (
	"time"

	"github.com/spf13/viper"
)

type MarketSyncer struct {
	// JSON-RPC endpoint of the chain the marketplace contract lives on
	RpcUrl string

	// Marketplace contract address. Empty address disables synchronization.
	ContractAddress string

	// How many blocks of history are replayed when there's no checkpoint
	BackfillWindow uint64

	// Max number of blocks fetched in a single backfill log query
	BackfillBatchSize uint64

	// Number of workers that process events
	NumWorkers int

	// Max number of events waiting in the worker queue
	WorkerQueueSize int

	// Max length of the channel between the listener and the dispatcher
	EventChannelSize int

	// Max number of retries for a failing event handler before it is dead-lettered
	HandlerMaxRetries uint64

	// Max time between failed handler retries
	HandlerBackoffInterval time.Duration

	// Max time between failed attempts to (re)establish the live subscription
	SubscribeBackoffInterval time.Duration

	// How often the checkpoint writer flushes the last fully-processed height
	CheckpointInterval time.Duration

	// Batch size that forces an early checkpoint flush
	CheckpointBatchSize int

	// Max time between failed checkpoint writes
	CheckpointMaxBackoffInterval time.Duration

	// Batch size for activity entry inserts
	ActivityBatchSize int

	// How often buffered activity entries are flushed
	ActivityFlushInterval time.Duration
}

func setMarketSyncerDefaults() {
	viper.SetDefault("MarketSyncer.RpcUrl", "wss://polygon-rpc.com")
	viper.SetDefault("MarketSyncer.ContractAddress", "")
	viper.SetDefault("MarketSyncer.BackfillWindow", "10000")
	viper.SetDefault("MarketSyncer.BackfillBatchSize", "2000")
	viper.SetDefault("MarketSyncer.NumWorkers", "8")
	viper.SetDefault("MarketSyncer.WorkerQueueSize", "1000")
	viper.SetDefault("MarketSyncer.EventChannelSize", "100")
	viper.SetDefault("MarketSyncer.HandlerMaxRetries", "3")
	viper.SetDefault("MarketSyncer.HandlerBackoffInterval", "2s")
	viper.SetDefault("MarketSyncer.SubscribeBackoffInterval", "30s")
	viper.SetDefault("MarketSyncer.CheckpointInterval", "5s")
	viper.SetDefault("MarketSyncer.CheckpointBatchSize", "50")
	viper.SetDefault("MarketSyncer.CheckpointMaxBackoffInterval", "30s")
	viper.SetDefault("MarketSyncer.ActivityBatchSize", "50")
	viper.SetDefault("MarketSyncer.ActivityFlushInterval", "5s")
}
