package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bookshelf/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the Open Library search backend.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the search.json URL.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// MaxResults limits the number of documents requested. Zero leaves the
	// API default in place.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// RatePerSecond caps outbound search requests. Zero disables limiting.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`

	// MaxRetries is passed to the 429/503 backoff loop (0 = default).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// FavoritesConfig holds settings for the remote favorites store client.
type FavoritesConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the store prefix; endpoint paths are appended to it
	// (e.g. "http://192.168.0.246:3000/test/").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// ListMethod is the HTTP method for get/all: POST or GET.
	ListMethod string `json:"list_method" yaml:"list_method" mapstructure:"list_method"`

	// DeleteMethod is the HTTP method for delete: POST or DELETE.
	DeleteMethod string `json:"delete_method" yaml:"delete_method" mapstructure:"delete_method"`

	// MaxRetries is passed to the 429/503 backoff loop (0 = default).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// ReconcileSchedule is a cron schedule for re-reading the store in
	// long-lived shells (e.g. "@every 5m"). Empty disables reconciliation.
	ReconcileSchedule string `json:"reconcile_schedule" yaml:"reconcile_schedule" mapstructure:"reconcile_schedule"`
}

// ServerConfig holds settings for the bundled favorites store server.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":3000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// DBPath is the SQLite database file.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// Prefix is the route prefix the endpoints are mounted under.
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

// Config groups every component's settings, as loaded by viper.
type Config struct {
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Favorites FavoritesConfig `json:"favorites" yaml:"favorites" mapstructure:"favorites"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
}
