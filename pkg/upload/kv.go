package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	EnvCFAccountID   = "CLOUDFLARE_ACCOUNT_ID"
	EnvCFNamespaceID = "CLOUDFLARE_KV_NAMESPACE_ID"
	EnvCFAPIToken    = "CLOUDFLARE_API_TOKEN"

	DefaultKVBaseURL   = "https://api.cloudflare.com/client/v4"
	DefaultKVChunkSize = 10000
)

// ErrMissingKVConfig is returned when a Cloudflare setting is empty.
var ErrMissingKVConfig = errors.New("missing Cloudflare KV configuration: CLOUDFLARE_ACCOUNT_ID, CLOUDFLARE_KV_NAMESPACE_ID and CLOUDFLARE_API_TOKEN must be set")

// KVConfig targets one Workers KV namespace.
type KVConfig struct {
	BaseURL     string
	AccountID   string
	NamespaceID string
	APIToken    string
	ChunkSize   int
}

// KVConfigFromEnv reads the namespace and token from the environment.
func KVConfigFromEnv() KVConfig {
	return KVConfig{
		BaseURL:     DefaultKVBaseURL,
		AccountID:   os.Getenv(EnvCFAccountID),
		NamespaceID: os.Getenv(EnvCFNamespaceID),
		APIToken:    os.Getenv(EnvCFAPIToken),
		ChunkSize:   DefaultKVChunkSize,
	}
}

func (c KVConfig) validate() error {
	if c.AccountID == "" || c.NamespaceID == "" || c.APIToken == "" {
		return ErrMissingKVConfig
	}
	return nil
}

func (c KVConfig) bulkURL() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultKVBaseURL
	}
	return fmt.Sprintf("%s/accounts/%s/storage/kv/namespaces/%s/bulk", base, c.AccountID, c.NamespaceID)
}

// KVPair is one key/value write of the bulk API.
type KVPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// KVResult reports a bulk upload.
type KVResult struct {
	Uploaded int
	Chunks   int
	Skipped  []SkippedFile
}

// KVUploader writes the whole dictionary into a KV namespace, keyed by word.
type KVUploader struct {
	Config KVConfig
	Client *http.Client
	Logger *zap.Logger
}

// NewKVUploader creates a KVUploader. A nil logger discards logs.
func NewKVUploader(cfg KVConfig, logger *zap.Logger) *KVUploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KVUploader{Config: cfg, Client: &http.Client{}, Logger: logger}
}

// CollectKVPairs reads every entry of sourceDir whose extension is .json in
// any case. Entries that are unreadable or not valid JSON are skipped.
//
// The key is the lowercased file name without a lowercase ".json" suffix, so
// "Apple.JSON" is stored under "apple.json".
func CollectKVPairs(sourceDir string) ([]KVPair, []SkippedFile, error) {
	des, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, nil, err
	}
	var pairs []KVPair
	var skipped []SkippedFile
	for _, de := range des {
		name := de.Name()
		ext := filepath.Ext(name)
		if de.IsDir() || !strings.EqualFold(ext, ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(sourceDir, name))
		if err != nil {
			skipped = append(skipped, SkippedFile{Name: name, Err: err})
			continue
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			skipped = append(skipped, SkippedFile{Name: name, Err: fmt.Errorf("parse %s: %w", name, err)})
			continue
		}
		pairs = append(pairs, KVPair{
			Key:   strings.ToLower(strings.TrimSuffix(name, ".json")),
			Value: compact.String(),
		})
	}
	return pairs, skipped, nil
}

// Upload sends all entries of sourceDir in chunks, stopping at the first
// rejected chunk.
func (u *KVUploader) Upload(ctx context.Context, sourceDir string) (KVResult, error) {
	var res KVResult
	if err := u.Config.validate(); err != nil {
		return res, err
	}

	pairs, skipped, err := CollectKVPairs(sourceDir)
	if err != nil {
		return res, fmt.Errorf("read dictionary dir: %w", err)
	}
	res.Skipped = skipped
	logger, client := u.Logger, u.Client
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = http.DefaultClient
	}
	for _, s := range skipped {
		logger.Warn("skipping entry", zap.String("file", s.Name), zap.Error(s.Err))
	}
	if len(pairs) == 0 {
		logger.Warn("no entries to upload", zap.String("dir", sourceDir))
		return res, nil
	}

	size := u.Config.ChunkSize
	if size <= 0 {
		size = DefaultKVChunkSize
	}
	logger.Info("uploading to KV", zap.Int("entries", len(pairs)), zap.Int("chunk_size", size))

	for start := 0; start < len(pairs); start += size {
		end := min(start+size, len(pairs))
		if err := u.putChunk(ctx, client, pairs[start:end]); err != nil {
			return res, fmt.Errorf("upload entries %d-%d: %w", start+1, end, err)
		}
		res.Uploaded += end - start
		res.Chunks++
		logger.Info("chunk uploaded", zap.Int("from", start+1), zap.Int("to", end))
	}
	return res, nil
}

func (u *KVUploader) putChunk(ctx context.Context, client *http.Client, chunk []KVPair) error {
	body, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.Config.bulkURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+u.Config.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var result struct {
		Success bool              `json:"success"`
		Errors  []json.RawMessage `json:"errors"`
	}
	decodeErr := json.Unmarshal(raw, &result)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || decodeErr != nil || !result.Success {
		return fmt.Errorf("kv bulk write rejected: status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
