package monitor_market_syncer

import (
	"net/http"
	"time"

	"github.com/chainbazaar/syncer/src/utils/monitoring/report"
	"github.com/chainbazaar/syncer/src/utils/task"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	collector *Collector
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:          &report.RunReport{},
		MarketSyncer: &report.MarketSyncerReport{},
	}

	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.updateUptime)
	return
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() prometheus.Collector {
	return self.collector
}

func (self *Monitor) updateUptime() error {
	self.Report.Run.State.UpForSeconds.Store(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load())
	return nil
}

func (self *Monitor) IsOK() bool {
	// Dead letters accumulating mean events are being lost
	return self.Report.MarketSyncer.Errors.DeadLetteredEvents.Load() == 0 ||
		self.Report.MarketSyncer.State.EventsLive.Load()+self.Report.MarketSyncer.State.EventsBackfilled.Load() > 0
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.updateUptime()
	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
