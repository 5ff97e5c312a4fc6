package config

import (
	"fmt"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InputRoot == "" {
		return fmt.Errorf("input_root is required\nHint: set it in %s or pass --input", ConfigFileName)
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("output_root is required\nHint: set it in %s or pass --output", ConfigFileName)
	}
	if c.SongGlob == "" || c.LogGlob == "" {
		return fmt.Errorf("song_glob and log_glob must not be empty")
	}
	if c.Engine.Threads < 0 {
		return fmt.Errorf("engine.threads must not be negative, got %d", c.Engine.Threads)
	}
	if c.Publish.Concurrency < 1 {
		return fmt.Errorf("publish.concurrency must be at least 1, got %d", c.Publish.Concurrency)
	}

	for _, root := range []string{c.InputRoot, c.OutputRoot} {
		if i := strings.Index(root, "://"); i >= 0 {
			scheme := root[:i]
			switch scheme {
			case "s3", "s3a", "s3n":
			default:
				return fmt.Errorf("unsupported storage scheme %q in %s", scheme, root)
			}
		}
	}
	if strings.Contains(c.OutputRoot, "://") && !strings.HasPrefix(c.OutputRoot, "s3://") {
		return fmt.Errorf("output_root must use s3:// for remote output, got %s", c.OutputRoot)
	}

	switch c.Storage.URLStyle {
	case "", "vhost", "path":
	default:
		return fmt.Errorf("storage.url_style must be vhost or path, got %q", c.Storage.URLStyle)
	}

	if (c.Storage.AccessKeyID == "") != (c.Storage.SecretAccessKey == "") {
		return fmt.Errorf("storage.access_key_id and storage.secret_access_key must be set together")
	}

	return nil
}
