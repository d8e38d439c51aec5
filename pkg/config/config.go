// Package config holds dictkit settings. Values are layered: built-in
// defaults, then dictkit.yaml, then DICTKIT_* environment variables, then
// command-line flags (applied by the CLI). Credentials are never read from
// the file; they come from the environment only.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/japaniel/dictkit/pkg/freq"
	"github.com/japaniel/dictkit/pkg/upload"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "dictkit.yaml"

// Config is the complete dictkit configuration.
type Config struct {
	DictionaryDir string `yaml:"dictionary_dir"`
	Language      string `yaml:"language"`
	Database      string `yaml:"database"`

	Rank   RankConfig   `yaml:"rank"`
	Upload UploadConfig `yaml:"upload"`
	KV     KVConfig     `yaml:"kv"`
	Corpus CorpusConfig `yaml:"corpus"`
	Trie   TrieConfig   `yaml:"trie"`
	Server ServerConfig `yaml:"server"`
}

// RankConfig configures the word ranker.
type RankConfig struct {
	Output string `yaml:"output"`
}

// UploadConfig configures the content API uploader.
type UploadConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Domain    string `yaml:"domain"`
	Username  string `yaml:"username"`
	Origin    string `yaml:"origin"`
	Referer   string `yaml:"referer"`
	UserAgent string `yaml:"user_agent"`
	Delay     string `yaml:"delay"`
}

// KVConfig configures the Cloudflare KV bulk uploader. Account, namespace and
// token are environment-only.
type KVConfig struct {
	BaseURL   string `yaml:"base_url"`
	ChunkSize int    `yaml:"chunk_size"`
}

// CorpusConfig configures frequency building from documents.
type CorpusConfig struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
}

// TrieConfig configures the autocomplete trie build.
type TrieConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// ServerConfig configures the lookup API.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	Upstream string `yaml:"upstream"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DictionaryDir: "dictionary",
		Language:      freq.DefaultLanguage,
		Database:      "dictkit.db",
		Rank:          RankConfig{Output: "words.txt"},
		Upload: UploadConfig{
			Endpoint:  upload.DefaultEndpoint,
			Domain:    upload.DefaultDomain,
			Username:  upload.DefaultUsername,
			Origin:    upload.DefaultOrigin,
			Referer:   upload.DefaultReferer,
			UserAgent: upload.DefaultUserAgent,
			Delay:     upload.DefaultDelay.String(),
		},
		KV: KVConfig{
			BaseURL:   upload.DefaultKVBaseURL,
			ChunkSize: upload.DefaultKVChunkSize,
		},
		Corpus: CorpusConfig{Workers: 4, BatchSize: 20},
		Trie:   TrieConfig{Input: "words.txt", Output: filepath.Join("public", "trie.bin")},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads configuration from a YAML file. A missing file yields defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Config) applyEnvOverrides() {
	c.DictionaryDir = getenv("DICTKIT_DICTIONARY_DIR", c.DictionaryDir)
	c.Language = getenv("DICTKIT_LANGUAGE", c.Language)
	c.Database = getenv("DICTKIT_DB", c.Database)
	c.Rank.Output = getenv("DICTKIT_OUTPUT", c.Rank.Output)

	c.Upload.Endpoint = getenv("DICTKIT_UPLOAD_ENDPOINT", c.Upload.Endpoint)
	c.Upload.Domain = getenv("DICTKIT_UPLOAD_DOMAIN", c.Upload.Domain)
	c.Upload.Username = getenv("DICTKIT_UPLOAD_USERNAME", c.Upload.Username)
	c.Upload.Delay = getenv("DICTKIT_UPLOAD_DELAY", c.Upload.Delay)

	c.KV.BaseURL = getenv("DICTKIT_KV_BASE_URL", c.KV.BaseURL)
	c.KV.ChunkSize = getenvInt("DICTKIT_KV_CHUNK_SIZE", c.KV.ChunkSize)

	c.Corpus.Workers = getenvInt("DICTKIT_WORKERS", c.Corpus.Workers)

	c.Server.Addr = getenv("DICTKIT_ADDR", c.Server.Addr)
	c.Server.Upstream = getenv("DICTKIT_UPSTREAM", c.Server.Upstream)
}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	if c.Language == "" {
		return fmt.Errorf("config: language must be set")
	}
	if _, err := c.UploadDelay(); err != nil {
		return err
	}
	if c.KV.ChunkSize < 0 {
		return fmt.Errorf("config: kv.chunk_size must not be negative")
	}
	return nil
}

// UploadDelay parses Upload.Delay. An empty value means no pause.
func (c *Config) UploadDelay() (time.Duration, error) {
	if c.Upload.Delay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Upload.Delay)
	if err != nil {
		return 0, fmt.Errorf("config: upload.delay: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: upload.delay must not be negative")
	}
	return d, nil
}

// UploaderConfig builds the content API target with creds attached.
func (c *Config) UploaderConfig(creds upload.Credentials) (upload.Config, error) {
	delay, err := c.UploadDelay()
	if err != nil {
		return upload.Config{}, err
	}
	return upload.Config{
		Endpoint:    c.Upload.Endpoint,
		Domain:      c.Upload.Domain,
		Username:    c.Upload.Username,
		Origin:      c.Upload.Origin,
		Referer:     c.Upload.Referer,
		UserAgent:   c.Upload.UserAgent,
		Delay:       delay,
		Credentials: creds,
	}, nil
}

// KVUploaderConfig merges the file settings into the environment-sourced KV config.
func (c *Config) KVUploaderConfig() upload.KVConfig {
	kv := upload.KVConfigFromEnv()
	if c.KV.BaseURL != "" {
		kv.BaseURL = c.KV.BaseURL
	}
	if c.KV.ChunkSize > 0 {
		kv.ChunkSize = c.KV.ChunkSize
	}
	return kv
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
