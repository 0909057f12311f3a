package idealista

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"idealista-watcher/config"
	"idealista-watcher/models"
	"idealista-watcher/utils"
)

// BrowserFetcher loads the search page in headless Chrome. It is slower than
// HTTPFetcher but gets past checks that reject plain HTTP clients.
type BrowserFetcher struct {
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
	retry     *utils.RetryConfig
}

// NewBrowserFetcher creates a BrowserFetcher using CHROME_BIN or the first
// Chrome/Chromium binary found on the system.
func NewBrowserFetcher(cfg *config.Config, logger *utils.Logger) *BrowserFetcher {
	bin := cfg.ChromeBin
	if bin == "" {
		bin = findChromeBinary()
	}
	return &BrowserFetcher{
		chromeBin: bin,
		timeout:   time.Duration(cfg.FetchTimeoutSec) * time.Second,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*models.FetchResult, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if b.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(b.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	var result *models.FetchResult
	err := b.retry.Do(ctx, "browser-fetch-search-page", func() error {
		// Suppress chromedp log noise
		tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancelTab()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
		defer cancelTimeout()

		resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(url))
		if err != nil {
			return fmt.Errorf("navigate: %w", err)
		}

		var html string
		if err := chromedp.Run(tabCtx,
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		); err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		status := 0
		if resp != nil {
			status = int(resp.Status)
		}
		result = &models.FetchResult{StatusCode: status, Body: []byte(html)}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("idealista browser: %w", err)
	}

	b.logger.Debug("[idealista] browser GET %s → %d (%d bytes)", shorten(url), result.StatusCode, len(result.Body))
	return result, nil
}

func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
