// Package upload pushes dictionary entries to remote storage: one request
// per entry to the site content API, or chunked bulk writes to Cloudflare KV.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/japaniel/dictkit/pkg/dictionary"
)

// Defaults of the production site.
const (
	DefaultEndpoint  = "https://api-overseas.retiehe.com/backend/host-v3/site/content"
	DefaultDomain    = "e2adict"
	DefaultUsername  = "newbiexvwusxijhfn2"
	DefaultOrigin    = "https://host.retiehe.com"
	DefaultReferer   = "https://host.retiehe.com/"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultDelay     = 200 * time.Millisecond
)

// maxResponseBody caps how much of a response is kept for diagnostics.
const maxResponseBody = 1 << 20

// Config describes the content API target.
type Config struct {
	Endpoint    string
	Domain      string
	Username    string
	Origin      string
	Referer     string
	UserAgent   string
	Delay       time.Duration // pause after each successful upload
	Credentials Credentials
}

// DefaultConfig returns the production target without credentials.
func DefaultConfig() Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		Domain:    DefaultDomain,
		Username:  DefaultUsername,
		Origin:    DefaultOrigin,
		Referer:   DefaultReferer,
		UserAgent: DefaultUserAgent,
		Delay:     DefaultDelay,
	}
}

// Uploader sends entries one at a time and stops at the first failed delivery.
type Uploader struct {
	Config Config
	// Client has no timeout by default; cancel the context to abandon a hung request.
	Client *http.Client
	Logger *zap.Logger
	// Sleep waits between uploads. Tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnProgress, if set, is called after every delivery attempt with the
	// entry key and the delivery error, nil on success.
	OnProgress func(key string, err error)
}

// NewUploader creates an Uploader for cfg. A nil logger discards logs.
func NewUploader(cfg Config, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		Config: cfg,
		Client: &http.Client{},
		Logger: logger,
		Sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// UploadAll uploads every entry of sourceDir in directory-listing order.
//
// Credentials are checked before touching the filesystem. Unreadable entries
// are skipped and recorded. The first failed delivery ends the batch: it is
// returned both as Result.Failure and as the error.
func (u *Uploader) UploadAll(ctx context.Context, sourceDir string) (Result, error) {
	var res Result
	if err := u.Config.Credentials.Validate(); err != nil {
		return res, err
	}
	entries, err := dictionary.ListEntries(sourceDir)
	if err != nil {
		return res, err
	}

	logger, client, sleep := u.Logger, u.Client, u.Sleep
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = http.DefaultClient
	}
	if sleep == nil {
		sleep = sleepCtx
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	logger.Info("starting upload", zap.String("dir", sourceDir), zap.Int("entries", len(entries)))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		content, err := dictionary.ReadEntry(e)
		if err != nil {
			logger.Warn("skipping unreadable entry", zap.String("file", e.Name), zap.Error(err))
			res.Skipped = append(res.Skipped, SkippedFile{Name: e.Name, Err: err})
			continue
		}

		payload := NewPayload(e, content, u.Config.Domain, u.Config.Username)
		logger.Info("uploading", zap.String("key", payload.Key))
		if derr := u.deliver(ctx, client, e.Name, payload); derr != nil {
			u.progress(payload.Key, derr)
			logger.Error("upload failed",
				zap.String("key", payload.Key),
				zap.Int("status", derr.StatusCode),
				zap.String("body", derr.Body),
				zap.Error(derr.Err))
			res.Failure = derr
			return res, derr
		}
		logger.Info("uploaded", zap.String("key", payload.Key))
		res.Uploaded = append(res.Uploaded, payload.Key)
		u.progress(payload.Key, nil)

		if err := sleep(ctx, u.Config.Delay); err != nil {
			return res, err
		}
	}

	logger.Info("upload finished",
		zap.Int("uploaded", len(res.Uploaded)),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (u *Uploader) progress(key string, derr *DeliveryError) {
	if u.OnProgress == nil {
		return
	}
	if derr == nil {
		u.OnProgress(key, nil)
		return
	}
	u.OnProgress(key, derr)
}

func (u *Uploader) deliver(ctx context.Context, client *http.Client, file string, p Payload) *DeliveryError {
	fail := &DeliveryError{File: file, Key: p.Key}

	body, err := json.Marshal(p)
	if err != nil {
		fail.Err = fmt.Errorf("encode payload: %w", err)
		return fail
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Config.Endpoint, bytes.NewReader(body))
	if err != nil {
		fail.Err = fmt.Errorf("create request: %w", err)
		return fail
	}
	req.Header.Set("Authorization", u.Config.Credentials.AuthToken)
	req.Header.Set("Cookie", u.Config.Credentials.Cookie)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", u.Config.Origin)
	req.Header.Set("Referer", u.Config.Referer)
	req.Header.Set("User-Agent", u.Config.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		fail.Err = err
		return fail
	}
	defer resp.Body.Close()

	fail.StatusCode = resp.StatusCode
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	fail.Body = string(raw)
	if err != nil {
		fail.Err = fmt.Errorf("read response: %w", err)
		return fail
	}
	if resp.StatusCode != http.StatusOK {
		return fail
	}

	var ack struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(raw, &ack); err != nil {
		fail.Err = fmt.Errorf("decode response: %w", err)
		return fail
	}
	if !ack.Success {
		return fail
	}
	return nil
}
