package config

import (
	"github.com/spf13/viper"

	"time"
)

type Metadata struct {
	// Base URL of the content-addressed gateway documents are fetched from
	GatewayUrl string

	// Max time a single document fetch may take
	RequestTimeout time.Duration

	// Max accepted document size
	MaxResponseSize int64

	// Max document fetches per second
	RateLimit int

	// How long resolved documents are kept in the in-process cache
	CacheTTL time.Duration

	// How often expired cache entries are removed
	CacheCleanupInterval time.Duration
}

func setMetadataDefaults() {
	viper.SetDefault("Metadata.GatewayUrl", "https://ipfs.io/ipfs")
	viper.SetDefault("Metadata.RequestTimeout", "10s")
	viper.SetDefault("Metadata.MaxResponseSize", "262144")
	viper.SetDefault("Metadata.RateLimit", "20")
	viper.SetDefault("Metadata.CacheTTL", "30m")
	viper.SetDefault("Metadata.CacheCleanupInterval", "10m")
}
