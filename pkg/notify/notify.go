// Package notify posts run completion summaries to a webhook.
package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Payload is the JSON body posted on run completion
type Payload struct {
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`

	Processed  int `json:"processed"`
	Succeeded  int `json:"succeeded"`
	Partial    int `json:"partial"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`

	DurationSeconds  float64  `json:"duration_seconds"`
	StructureChanges []string `json:"structure_changes,omitempty"`
}

// Notifier posts summaries to a single webhook URL. A nil or URL-less
// notifier is valid and does nothing.
type Notifier struct {
	client *resty.Client
	url    string
	log    *logrus.Entry
}

// New creates a notifier. An empty url disables sending.
func New(url string, log *logrus.Entry) *Notifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2)
	return &Notifier{client: client, url: url, log: log}
}

// Send posts the payload and reports whether the webhook accepted it.
// Delivery failures are logged and swallowed; a run never fails because
// its notification did.
func (n *Notifier) Send(ctx context.Context, p Payload) bool {
	if n == nil || n.url == "" {
		return false
	}

	res, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(p).
		Post(n.url)
	if err != nil {
		n.log.WithError(err).Warn("webhook notification failed")
		return false
	}
	if res.IsError() {
		n.log.WithField("status", res.StatusCode()).Warn("webhook rejected notification")
		return false
	}

	n.log.WithField("run_id", p.RunID).Debug("notification delivered")
	return true
}
