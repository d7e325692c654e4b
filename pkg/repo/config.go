package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/davinirjr/pygit2/pkg/object"
)

// Config stores repository-local settings.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
}

// UserConfig identifies the default author and committer.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// CoreConfig holds storage tuning knobs.
type CoreConfig struct {
	// Compression is the zlib level applied to loose objects and pack
	// entries, from -2 (fastest) to 9 (smallest). -1 selects the library
	// default.
	Compression int `toml:"compression"`
}

func defaultConfig() *Config {
	return &Config{
		Core: CoreConfig{Compression: object.DefaultCompression},
	}
}

func (r *Repository) configPath() string {
	return filepath.Join(r.dir, "config.toml")
}

// readConfig loads config.toml from path. A missing file yields defaults;
// present keys override them, so a partial file keeps the rest at default.
func readConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	return cfg, nil
}

// Config returns the loaded repository configuration.
func (r *Repository) Config() *Config {
	return r.config
}

// WriteConfig atomically replaces config.toml and applies the settings to
// the open repository.
func (r *Repository) WriteConfig(cfg *Config) error {
	if r.closed {
		return object.ErrClosed
	}
	if cfg == nil {
		cfg = defaultConfig()
	}
	if err := r.odb.SetCompression(cfg.Core.Compression); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	r.config = cfg
	return nil
}
