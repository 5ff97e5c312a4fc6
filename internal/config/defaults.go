package config

import (
	"strconv"

	"github.com/leapstack-labs/songplays/pkg/core"
)

// defaults returns the lowest-precedence configuration layer.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"song_glob":           DefaultSongGlob,
		"log_glob":            DefaultLogGlob,
		"state_path":          DefaultStateFile,
		"database":            DefaultDatabase,
		"verbose":             false,
		"engine.type":         DefaultEngineType,
		"publish.concurrency": DefaultPublishConcurrency,
	}
}

// ApplyDefaults fills unset fields of a Config built without the loader.
func ApplyDefaults(c *Config) {
	if c == nil {
		return
	}
	if c.SongGlob == "" {
		c.SongGlob = DefaultSongGlob
	}
	if c.LogGlob == "" {
		c.LogGlob = DefaultLogGlob
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Engine.Type == "" {
		c.Engine.Type = DefaultEngineType
	}
	if c.Publish.Concurrency <= 0 {
		c.Publish.Concurrency = DefaultPublishConcurrency
	}
}

// IsRemote reports whether either root lives in object storage.
func (c *Config) IsRemote() bool {
	return core.IsRemotePath(c.InputRoot) || core.IsRemotePath(c.OutputRoot)
}

// AdapterConfig builds the engine session configuration. Remote roots add the
// httpfs extension and an S3 secret built from Storage; without explicit keys
// the secret falls back to the credential chain.
func (c *Config) AdapterConfig() core.AdapterConfig {
	settings := map[string]any{}
	if c.Engine.Threads > 0 {
		settings["threads"] = strconv.Itoa(c.Engine.Threads)
	}
	if c.Engine.MemoryLimit != "" {
		settings["memory_limit"] = c.Engine.MemoryLimit
	}

	params := map[string]any{}
	if len(settings) > 0 {
		params["settings"] = settings
	}

	if c.IsRemote() {
		params["extensions"] = []any{"httpfs"}
		params["secrets"] = []any{c.s3Secret()}
	}

	return core.AdapterConfig{
		Type:   c.Engine.Type,
		Path:   c.Database,
		Params: params,
	}
}

func (c *Config) s3Secret() map[string]any {
	s := c.Storage
	secret := map[string]any{"type": "s3"}

	if s.HasStaticCredentials() {
		secret["key_id"] = s.AccessKeyID
		secret["secret"] = s.SecretAccessKey
		if s.SessionToken != "" {
			secret["session_token"] = s.SessionToken
		}
	} else {
		secret["provider"] = "credential_chain"
	}

	if s.Region != "" {
		secret["region"] = s.Region
	}
	if s.Endpoint != "" {
		secret["endpoint"] = s.Endpoint
	}
	if s.URLStyle != "" {
		secret["url_style"] = s.URLStyle
	}
	if s.UseSSL != nil {
		secret["use_ssl"] = *s.UseSSL
	}

	return secret
}
