package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "refchaser/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ParseConfig holds settings for bibliographic file parsing.
type ParseConfig struct {
	// Workers bounds how many files are parsed concurrently (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// QueryConfig holds the default targets and mode for query synthesis.
type QueryConfig struct {
	// ForwardDatabase is the database the forward query is written for
	// (alias accepted: "1", "WOS", "pubmed", ...).
	ForwardDatabase string `json:"forward_database" yaml:"forward_database" mapstructure:"forward_database"`

	// BackwardDatabase is the database the backward query is written for.
	BackwardDatabase string `json:"backward_database" yaml:"backward_database" mapstructure:"backward_database"`

	// Mode selects the forward query field: titles, dois, or first_author.
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`
}

// CermineConfig holds settings for the structure extraction stage.
type CermineConfig struct {
	// Image is the container image that runs the CERMINE content extractor.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Timeout is the per-document extraction timeout passed to CERMINE.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// FetchConfig holds settings for full-text retrieval.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Mailto is the contact address sent to OpenAlex (polite pool).
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// MaxRetries is the number of retries after a failed first attempt
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RequestsPerSecond paces outgoing downloads (default 1).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Concurrency bounds parallel downloads (default 2).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// CatalogConfig holds settings for the SQLite citation catalog.
type CatalogConfig struct {
	// Path is the SQLite database file (default "refchaser.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups all stage configurations.
type Config struct {
	Parse   ParseConfig   `json:"parse" yaml:"parse" mapstructure:"parse"`
	Query   QueryConfig   `json:"query" yaml:"query" mapstructure:"query"`
	Cermine CermineConfig `json:"cermine" yaml:"cermine" mapstructure:"cermine"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() Config {
	return Config{
		Parse: ParseConfig{Workers: 4},
		Query: QueryConfig{
			ForwardDatabase:  "WOS",
			BackwardDatabase: "WOS",
			Mode:             "titles",
		},
		Cermine: CermineConfig{
			Image:   "cermine:latest",
			Timeout: 300 * time.Second,
		},
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   300 * time.Second,
				UserAgent: "refchaser/0.1",
			},
			MaxRetries:        3,
			RequestsPerSecond: 1,
			Concurrency:       2,
		},
		Catalog: CatalogConfig{Path: "refchaser.db"},
	}
}
