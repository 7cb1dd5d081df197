package report

type Report struct {
	Run          *RunReport          `json:"run,omitempty"`
	MarketSyncer *MarketSyncerReport `json:"market_syncer,omitempty"`
}
