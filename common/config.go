package common

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	DataFolder = "data"
	ListenAddr = ":8000"

	CacheTTL         = 7 * 24 * time.Hour
	CacheMaxEntries  = 150
	CachePruneBuffer = 10

	FetchTimeout     = 10 * time.Second
	MaxContentLength = int64(1024 * 256) // 256KB, emoji vectors are tiny

	PreloadEnabled   = true
	PreloadItemDelay = 20 * time.Millisecond
	PreloadTierDelay = 3 * time.Second
	PreloadBandwidth = 128 * 1024 // bytes per second

	// Overrides the built-in source registry. Entries are
	// "name|urlTemplate" or "name|urlTemplate|strip".
	EmojiSources []string

	DevFakeOrigin  = false
	FakeOriginAddr = ":8001"
)

var configLog = NewLogger("CONFIG")

func LoadConfig() {
	godotenv.Load()

	viper.SetEnvPrefix("vemoji")
	viper.AutomaticEnv()

	viper.SetConfigName("vemoji")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err == nil {
		configLog.Printf("Using config file %s", viper.ConfigFileUsed())
	}

	if v := viper.GetString("data_folder"); v != "" {
		DataFolder = v
	}
	if v := viper.GetString("listen_addr"); v != "" {
		ListenAddr = v
	}
	if v := viper.GetDuration("cache_ttl"); v > 0 {
		CacheTTL = v
	}
	if v := viper.GetInt("cache_max_entries"); v > 0 {
		CacheMaxEntries = v
	}
	if v := viper.GetInt("cache_prune_buffer"); v > 0 {
		CachePruneBuffer = v
	}
	if v := viper.GetDuration("fetch_timeout"); v > 0 {
		FetchTimeout = v
	}
	if v := viper.GetInt64("max_content_length"); v > 0 {
		MaxContentLength = v
	}
	if viper.IsSet("preload_enabled") {
		PreloadEnabled = viper.GetBool("preload_enabled")
	}
	if v := viper.GetDuration("preload_item_delay"); v > 0 {
		PreloadItemDelay = v
	}
	if v := viper.GetDuration("preload_tier_delay"); v > 0 {
		PreloadTierDelay = v
	}
	if v := viper.GetInt("preload_bandwidth"); v > 0 {
		PreloadBandwidth = v
	}
	if v := viper.GetStringSlice("emoji_sources"); len(v) > 0 {
		EmojiSources = v
	}
	if viper.IsSet("dev_fake_origin") {
		DevFakeOrigin = viper.GetBool("dev_fake_origin")
	}
	if v := viper.GetString("fake_origin_addr"); v != "" {
		FakeOriginAddr = v
	}
}
