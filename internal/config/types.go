// Package config provides configuration management for the songplays job.
//
// Values are layered with koanf: built-in defaults, then songplays.yaml,
// then SONGPLAYS_ environment variables, then command-line flags.
package config

// Config holds all job configuration options.
type Config struct {
	InputRoot  string        `koanf:"input_root"`
	OutputRoot string        `koanf:"output_root"`
	SongGlob   string        `koanf:"song_glob"`
	LogGlob    string        `koanf:"log_glob"`
	StatePath  string        `koanf:"state_path"`
	Database   string        `koanf:"database"`
	Verbose    bool          `koanf:"verbose"`
	Storage    StorageConfig `koanf:"storage"`
	Engine     EngineConfig  `koanf:"engine"`
	Publish    PublishConfig `koanf:"publish"`
}

// StorageConfig holds object storage credentials and endpoint settings.
// It is handed to the engine session and to the publisher; nothing is
// exported to the process environment.
type StorageConfig struct {
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	SessionToken    string `koanf:"session_token"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	URLStyle        string `koanf:"url_style"`
	UseSSL          *bool  `koanf:"use_ssl"`
}

// HasStaticCredentials reports whether explicit keys were configured.
func (s StorageConfig) HasStaticCredentials() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// EngineConfig holds tabular engine settings.
type EngineConfig struct {
	Type        string `koanf:"type"`
	Threads     int    `koanf:"threads"`
	MemoryLimit string `koanf:"memory_limit"`
}

// PublishConfig holds output publication settings.
type PublishConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// Default configuration values.
const (
	DefaultSongGlob           = "song_data/*/*/*/*.json"
	DefaultLogGlob            = "log_data/*/*/*.json"
	DefaultStateFile          = ".songplays/state.db"
	DefaultDatabase           = ":memory:"
	DefaultEngineType         = "duckdb"
	DefaultPublishConcurrency = 8
)
