// Package ytdlp runs the yt-dlp command line tool as the extraction backend.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/hszk-dev/clashstream/internal/domain/model"
	"github.com/hszk-dev/clashstream/internal/domain/repository"
	"github.com/hszk-dev/clashstream/internal/infrastructure/metrics"
)

// maxStderrInError bounds how much tool stderr is carried in error messages.
const maxStderrInError = 200

// Config holds configuration for the yt-dlp runner.
type Config struct {
	// BinaryPath is the path to the yt-dlp binary.
	// If empty, "yt-dlp" will be used (assumes it's in PATH).
	BinaryPath string

	// CookiesFile is an optional Netscape cookie file passed with --cookies.
	CookiesFile string

	// Timeout bounds a single tool invocation.
	// Default: 45s
	Timeout time.Duration

	// RateLimit is the sustained number of invocations per second.
	// Zero or negative disables rate limiting.
	// Default: 2
	RateLimit float64

	// RateBurst is the number of invocations allowed above the sustained rate.
	// Default: 4
	RateBurst int

	// MaxConcurrent bounds the number of tool processes running at once.
	// Default: 4
	MaxConcurrent int

	// DirectFormat is the format selector used for direct URL extraction.
	// Default: bestaudio/best
	DirectFormat string
}

// DefaultConfig returns a Config with production-ready defaults.
func DefaultConfig() Config {
	return Config{
		BinaryPath:    "yt-dlp",
		Timeout:       45 * time.Second,
		RateLimit:     2,
		RateBurst:     4,
		MaxConcurrent: 4,
		DirectFormat:  "bestaudio/best",
	}
}

// CLI implements repository.MediaSource by running yt-dlp as a subprocess.
type CLI struct {
	config  Config
	limiter *rate.Limiter
	slots   *semaphore.Weighted
}

// Compile-time verification that CLI implements MediaSource.
var _ repository.MediaSource = (*CLI)(nil)

// NewCLI creates a new yt-dlp runner.
func NewCLI(cfg Config) *CLI {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "yt-dlp"
	}
	if cfg.DirectFormat == "" {
		cfg.DirectFormat = "bestaudio/best"
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &CLI{
		config:  cfg,
		limiter: rate.NewLimiter(limit, burst),
		slots:   semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

// Probe dumps the full metadata document for videoID using the given player client.
func (c *CLI) Probe(ctx context.Context, videoID, playerClient string) (*repository.MediaInfo, error) {
	out, err := c.run(ctx, metrics.ToolCommandProbe, c.buildProbeArgs(videoID, playerClient))
	if err != nil {
		return nil, err
	}

	var info repository.MediaInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrMalformedOutput, err)
	}
	return &info, nil
}

// DirectURL asks yt-dlp to print a single media URL for videoID.
func (c *CLI) DirectURL(ctx context.Context, videoID string) (string, error) {
	out, err := c.run(ctx, metrics.ToolCommandDirectURL, c.buildDirectURLArgs(videoID))
	if err != nil {
		return "", err
	}

	// --get-url prints one line per selected format; the first is the audio one.
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "http") {
		return "", fmt.Errorf("%w: no URL in output", repository.ErrMalformedOutput)
	}
	return line, nil
}

// searchResult is the flat playlist document produced by a ytsearch query.
type searchResult struct {
	Entries []*repository.SearchEntry `json:"entries"`
}

// Search runs a ytsearch query and returns its flat entries in order.
func (c *CLI) Search(ctx context.Context, query string, count int) ([]repository.SearchEntry, error) {
	out, err := c.run(ctx, metrics.ToolCommandSearch, c.buildSearchArgs(query, count))
	if err != nil {
		return nil, err
	}

	var result searchResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrMalformedOutput, err)
	}

	entries := make([]repository.SearchEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

// run executes yt-dlp with args and returns its stdout.
// Invocations are bounded in concurrency and rate before the process starts.
func (c *CLI) run(ctx context.Context, command string, args []string) ([]byte, error) {
	if err := c.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%s: waiting for tool slot: %w", command, err)
	}
	defer c.slots.Release(1)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: waiting for rate limiter: %w", command, err)
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.config.BinaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	metrics.ToolInvocationsTotal.WithLabelValues(command, metrics.Result(err)).Inc()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s cancelled: %w", command, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %v: %s", repository.ErrToolFailed, command, err, truncate(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// buildProbeArgs constructs the arguments for a full metadata dump.
func (c *CLI) buildProbeArgs(videoID, playerClient string) []string {
	args := []string{
		"--dump-single-json",
		"--no-playlist",
		"--no-check-certificates",
		"--no-warnings",
		"--prefer-free-formats",
		"--extractor-args", "youtube:player_client=" + playerClient,
		"--geo-bypass",
	}
	args = c.appendCookies(args)
	return append(args, "--", model.WatchURL(videoID))
}

// buildDirectURLArgs constructs the arguments for printing a single media URL.
func (c *CLI) buildDirectURLArgs(videoID string) []string {
	args := []string{
		"--get-url",
		"--format", c.config.DirectFormat,
		"--no-playlist",
		"--no-check-certificates",
		"--geo-bypass",
	}
	args = c.appendCookies(args)
	return append(args, "--", model.WatchURL(videoID))
}

// buildSearchArgs constructs the arguments for a flat search query.
func (c *CLI) buildSearchArgs(query string, count int) []string {
	args := []string{
		"--dump-single-json",
		"--flat-playlist",
		"--no-warnings",
		"--quiet",
	}
	args = c.appendCookies(args)
	return append(args, "--", fmt.Sprintf("ytsearch%d:%s", count, query))
}

func (c *CLI) appendCookies(args []string) []string {
	if c.config.CookiesFile == "" {
		return args
	}
	return append(args, "--cookies", c.config.CookiesFile)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrInError {
		return s[:maxStderrInError]
	}
	return s
}
