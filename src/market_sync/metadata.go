package market_sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chainbazaar/syncer/src/utils/config"
	"github.com/chainbazaar/syncer/src/utils/logger"
	"github.com/chainbazaar/syncer/src/utils/monitoring"

	"github.com/go-resty/resty/v2"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Off-chain listing metadata, stored under its content hash
type Document struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

// Metadata is supplementary, not authoritative. Anything that goes wrong
// during the fetch resolves to this document instead of an error.
func DefaultDocument(onChainCategory string) Document {
	return Document{
		Title:    "Untitled",
		Category: onChainCategory,
		Location: "Global",
		Tags:     []string{},
		Images:   []string{},
	}
}

// Fetches documents from the content-addressed gateway with a bounded
// timeout, bounded response size and a request rate cap. Resolved
// documents are cached in process for the configured TTL.
type Resolver struct {
	httpClient *resty.Client
	cache      *cache.Cache
	limiter    ratelimit.Limiter
	maxSize    int64
	monitor    monitoring.Monitor
	log        *logrus.Entry
}

func NewResolver(config *config.Config) (self *Resolver) {
	self = new(Resolver)
	self.log = logger.NewSublogger("metadata-resolver")
	self.httpClient = resty.New().
		SetBaseURL(config.Metadata.GatewayUrl).
		SetTimeout(config.Metadata.RequestTimeout)
	self.cache = cache.New(config.Metadata.CacheTTL, config.Metadata.CacheCleanupInterval)
	self.limiter = ratelimit.New(config.Metadata.RateLimit)
	self.maxSize = config.Metadata.MaxResponseSize
	return
}

func (self *Resolver) WithMonitor(v monitoring.Monitor) *Resolver {
	self.monitor = v
	return self
}

func (self *Resolver) Resolve(ctx context.Context, contentHash string, onChainCategory string) Document {
	if contentHash == "" {
		return DefaultDocument(onChainCategory)
	}

	if cached, ok := self.cache.Get(contentHash); ok {
		self.monitor.GetReport().MarketSyncer.State.MetadataCacheHits.Inc()
		return cached.(Document)
	}

	doc, err := self.fetch(ctx, contentHash)
	if err != nil {
		self.monitor.GetReport().MarketSyncer.Errors.MetadataFetchFailures.Inc()
		self.monitor.GetReport().MarketSyncer.State.MetadataDefaultedDocs.Inc()
		self.log.WithError(err).WithField("contentHash", contentHash).
			Warn("Could not resolve metadata, using defaults")
		return DefaultDocument(onChainCategory)
	}

	self.applyDefaults(&doc, onChainCategory)
	self.cache.Set(contentHash, doc, cache.DefaultExpiration)
	return doc
}

func (self *Resolver) fetch(ctx context.Context, contentHash string) (doc Document, err error) {
	self.limiter.Take()

	resp, err := self.httpClient.R().
		SetContext(ctx).
		Get("/" + contentHash)
	if err != nil {
		return
	}
	if !resp.IsSuccess() {
		err = fmt.Errorf("gateway returned status %d", resp.StatusCode())
		return
	}

	body := resp.Body()
	if int64(len(body)) > self.maxSize {
		err = fmt.Errorf("document too large: %d bytes", len(body))
		return
	}

	err = json.Unmarshal(body, &doc)
	return
}

func (self *Resolver) applyDefaults(doc *Document, onChainCategory string) {
	if doc.Title == "" {
		doc.Title = "Untitled"
	}
	if doc.Category == "" {
		doc.Category = onChainCategory
	}
	if doc.Location == "" {
		doc.Location = "Global"
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.Images == nil {
		doc.Images = []string{}
	}
}
