package trafficlight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	DefaultWaitInterval = 1 * time.Second
)

// Waiter blocks until a remote responder reports a phase.
type Waiter struct {
	URL      string
	Phase    Phase
	Interval time.Duration
	Client   *http.Client
}

func NewWaiter(rawURL string, p Phase, interval time.Duration) (*Waiter, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid url %s: scheme must be http or https", rawURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/wait"
	q := u.Query()
	q.Set("phase", p.String())
	u.RawQuery = q.Encode()
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	return &Waiter{
		URL:      u.String(),
		Phase:    p,
		Interval: interval,
		Client:   &http.Client{},
	}, nil
}

// Wait long-polls the responder, retrying every Interval until it answers
// 2xx or ctx is done.
func (w *Waiter) Wait(ctx context.Context) error {
	logger := slog.With("module", "waiter", "url", w.URL, "target", w.Phase.String())
	for {
		err := w.once(ctx)
		if err == nil {
			logger.Info("phase reached")
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("wait for %s canceled: %w", w.Phase, errors.Join(ctxErr, err))
		}
		logger.Debug("wait failed, retrying", "error", err.Error(), "interval", w.Interval.String())
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s canceled: %w", w.Phase, ctx.Err())
		case <-time.After(w.Interval):
		}
	}
}

func (w *Waiter) once(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "trafficlight")
	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}
