package monitor_market_syncer

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	UpForSeconds *prometheus.Desc

	ListenerCurrentHeight *prometheus.Desc
	CheckpointHeight      *prometheus.Desc
	EventsBackfilled      *prometheus.Desc
	EventsLive            *prometheus.Desc
	ListingsSaved         *prometheus.Desc
	TransactionsSaved     *prometheus.Desc
	DisputesSaved         *prometheus.Desc
	ReviewsSaved          *prometheus.Desc
	NotificationsSaved    *prometheus.Desc
	MetadataCacheHits     *prometheus.Desc
	MetadataDefaultedDocs *prometheus.Desc
	ActivityEntriesSaved  *prometheus.Desc

	ListenerFailures         *prometheus.Desc
	BackfillFailures         *prometheus.Desc
	ParserFailures           *prometheus.Desc
	HandlerFailures          *prometheus.Desc
	DeadLetteredEvents       *prometheus.Desc
	MetadataFetchFailures    *prometheus.Desc
	CheckpointSaveFailures   *prometheus.Desc
	NotificationSaveFailures *prometheus.Desc
	RealtimePublishFailures  *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		ListenerCurrentHeight: prometheus.NewDesc("listener_current_height", "", nil, nil),
		CheckpointHeight:      prometheus.NewDesc("checkpoint_height", "", nil, nil),
		EventsBackfilled:      prometheus.NewDesc("events_backfilled", "", nil, nil),
		EventsLive:            prometheus.NewDesc("events_live", "", nil, nil),
		ListingsSaved:         prometheus.NewDesc("listings_saved", "", nil, nil),
		TransactionsSaved:     prometheus.NewDesc("transactions_saved", "", nil, nil),
		DisputesSaved:         prometheus.NewDesc("disputes_saved", "", nil, nil),
		ReviewsSaved:          prometheus.NewDesc("reviews_saved", "", nil, nil),
		NotificationsSaved:    prometheus.NewDesc("notifications_saved", "", nil, nil),
		MetadataCacheHits:     prometheus.NewDesc("metadata_cache_hits", "", nil, nil),
		MetadataDefaultedDocs: prometheus.NewDesc("metadata_defaulted_docs", "", nil, nil),
		ActivityEntriesSaved:  prometheus.NewDesc("activity_entries_saved", "", nil, nil),

		ListenerFailures:         prometheus.NewDesc("listener_failures", "", nil, nil),
		BackfillFailures:         prometheus.NewDesc("backfill_failures", "", nil, nil),
		ParserFailures:           prometheus.NewDesc("parser_failures", "", nil, nil),
		HandlerFailures:          prometheus.NewDesc("handler_failures", "", nil, nil),
		DeadLetteredEvents:       prometheus.NewDesc("dead_lettered_events", "", nil, nil),
		MetadataFetchFailures:    prometheus.NewDesc("metadata_fetch_failures", "", nil, nil),
		CheckpointSaveFailures:   prometheus.NewDesc("checkpoint_save_failures", "", nil, nil),
		NotificationSaveFailures: prometheus.NewDesc("notification_save_failures", "", nil, nil),
		RealtimePublishFailures:  prometheus.NewDesc("realtime_publish_failures", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(self, ch)
}

func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	state := &self.monitor.Report.MarketSyncer.State
	errs := &self.monitor.Report.MarketSyncer.Errors

	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))

	ch <- prometheus.MustNewConstMetric(self.ListenerCurrentHeight, prometheus.GaugeValue, float64(state.ListenerCurrentHeight.Load()))
	ch <- prometheus.MustNewConstMetric(self.CheckpointHeight, prometheus.GaugeValue, float64(state.CheckpointHeight.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsBackfilled, prometheus.CounterValue, float64(state.EventsBackfilled.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsLive, prometheus.CounterValue, float64(state.EventsLive.Load()))
	ch <- prometheus.MustNewConstMetric(self.ListingsSaved, prometheus.CounterValue, float64(state.ListingsSaved.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransactionsSaved, prometheus.CounterValue, float64(state.TransactionsSaved.Load()))
	ch <- prometheus.MustNewConstMetric(self.DisputesSaved, prometheus.CounterValue, float64(state.DisputesSaved.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReviewsSaved, prometheus.CounterValue, float64(state.ReviewsSaved.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotificationsSaved, prometheus.CounterValue, float64(state.NotificationsSaved.Load()))
	ch <- prometheus.MustNewConstMetric(self.MetadataCacheHits, prometheus.CounterValue, float64(state.MetadataCacheHits.Load()))
	ch <- prometheus.MustNewConstMetric(self.MetadataDefaultedDocs, prometheus.CounterValue, float64(state.MetadataDefaultedDocs.Load()))
	ch <- prometheus.MustNewConstMetric(self.ActivityEntriesSaved, prometheus.CounterValue, float64(state.ActivityEntriesSaved.Load()))

	ch <- prometheus.MustNewConstMetric(self.ListenerFailures, prometheus.CounterValue, float64(errs.ListenerFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.BackfillFailures, prometheus.CounterValue, float64(errs.BackfillFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ParserFailures, prometheus.CounterValue, float64(errs.ParserFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.HandlerFailures, prometheus.CounterValue, float64(errs.HandlerFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.DeadLetteredEvents, prometheus.CounterValue, float64(errs.DeadLetteredEvents.Load()))
	ch <- prometheus.MustNewConstMetric(self.MetadataFetchFailures, prometheus.CounterValue, float64(errs.MetadataFetchFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.CheckpointSaveFailures, prometheus.CounterValue, float64(errs.CheckpointSaveFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotificationSaveFailures, prometheus.CounterValue, float64(errs.NotificationSaveFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.RealtimePublishFailures, prometheus.CounterValue, float64(errs.RealtimePublishFailures.Load()))
}
