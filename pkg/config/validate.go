package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for hard errors and collects warnings
// for values that are legal but suspicious
func (c *AppConfig) Validate() (warnings []string, err error) {
	if c.Scrape.BaseURL == "" {
		return warnings, fmt.Errorf("scrape.base_url is required")
	}
	u, parseErr := url.Parse(c.Scrape.BaseURL)
	if parseErr != nil || u.Scheme == "" || u.Host == "" {
		return warnings, fmt.Errorf("scrape.base_url %q is not an absolute URL", c.Scrape.BaseURL)
	}

	if c.NumWorkers < 1 {
		return warnings, fmt.Errorf("num_workers must be >= 1, got %d", c.NumWorkers)
	}
	if c.NumWorkers > 8 {
		warnings = append(warnings, fmt.Sprintf("num_workers=%d means %d concurrent browser sessions; memory use will be substantial", c.NumWorkers, c.NumWorkers))
	}

	if c.SessionRestartEvery < 1 {
		return warnings, fmt.Errorf("session_restart_every must be >= 1, got %d", c.SessionRestartEvery)
	}

	if c.Scrape.MaxRetries < 1 {
		return warnings, fmt.Errorf("scrape.max_retries must be >= 1, got %d", c.Scrape.MaxRetries)
	}
	if c.Scrape.MaxRetries > 10 {
		warnings = append(warnings, fmt.Sprintf("scrape.max_retries=%d is unusually high; slow failures will stall workers", c.Scrape.MaxRetries))
	}

	if c.Store.CommitBatchSize < 1 {
		return warnings, fmt.Errorf("store.commit_batch_size must be >= 1, got %d", c.Store.CommitBatchSize)
	}
	if c.Store.ResumeFreshDays < 0 {
		return warnings, fmt.Errorf("store.resume_fresh_days must be >= 0, got %d", c.Store.ResumeFreshDays)
	}

	if c.NotifyWebhookURL != "" && !strings.HasPrefix(c.NotifyWebhookURL, "http") {
		warnings = append(warnings, fmt.Sprintf("notify_webhook_url %q does not look like an HTTP URL; notifications will fail silently", c.NotifyWebhookURL))
	}

	return warnings, nil
}
