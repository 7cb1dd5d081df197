package market_sync

import (
	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/eth"
	"github.com/chainbazaar/syncer/src/utils/model"
	"github.com/chainbazaar/syncer/src/utils/monitoring"
	monitor_market_syncer "github.com/chainbazaar/syncer/src/utils/monitoring/market_syncer"
	"github.com/chainbazaar/syncer/src/utils/publisher"
	"github.com/chainbazaar/syncer/src/utils/task"
)

type Controller struct {
	*task.Task
}

// Main class that orchestrates the market synchronization.
// Sets up the cache database, the ledger listener, event handlers and
// the notification fanout. Without a configured contract address only
// the monitoring server runs.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	self.Task = task.NewTask(config, "controller")

	monitor := monitor_market_syncer.NewMonitor()

	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	db, err := model.NewConnection(self.Ctx, config, "market-syncer")
	if err != nil {
		return
	}

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(server.Task)

	if config.MarketSyncer.ContractAddress == "" {
		self.Log.Warn("No marketplace contract address configured, synchronization is disabled")
		return
	}

	client, err := eth.GetEthClient(self.Log, config.MarketSyncer.RpcUrl)
	if err != nil {
		// Monitoring stays up and reports the unhealthy state
		self.Log.WithError(err).Error("Could not reach the ledger feed, synchronization is disabled")
		return self, nil
	}
	eth.LogNetworkIdentity(self.Ctx, self.Log, client)

	parser, err := NewParser()
	if err != nil {
		return
	}

	checkpointStore := NewCheckpointStore(db, model.SyncedComponentMarketSyncer)

	resolver := NewResolver(config).
		WithMonitor(monitor)

	fanout := NewFanout(config, db).
		WithMonitor(monitor)

	activity := NewActivityWriter(config).
		WithDb(db).
		WithMonitor(monitor)

	dispatcher := NewDispatcher(config).
		WithCacheStore(NewCacheStore(db)).
		WithResolver(resolver).
		WithFanout(fanout).
		WithActivityWriter(activity).
		WithChainSource(client).
		WithMonitor(monitor)

	listener := NewListener(config).
		WithChainSource(client).
		WithParser(parser).
		WithCheckpointStore(checkpointStore).
		WithDispatcher(dispatcher).
		WithMonitor(monitor)

	dispatcher = dispatcher.
		WithInputChannel(listener.Output)

	checkpointWriter := NewCheckpointWriter(config).
		WithInputChannel(dispatcher.CheckpointHeights).
		WithStore(checkpointStore).
		WithMonitor(monitor)

	realtimePublisher := publisher.NewRedisPublisher[*RealtimeMessage](config, "realtime-publisher").
		WithInputChannel(fanout.Output)

	self.Task = self.Task.
		WithSubtask(listener.Task).
		WithSubtask(dispatcher.Task).
		WithSubtask(checkpointWriter.Task).
		WithSubtask(activity.Task).
		WithSubtask(realtimePublisher.Task)

	return
}
