package launch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"launchdeck/internal/logger"
	"launchdeck/internal/models"
	"launchdeck/internal/utils"
)

var ErrNotHealthy = errors.New("server did not answer")

// Prober polls a freshly launched web target until it answers.
type Prober struct {
	Client   *http.Client
	Retries  int
	Interval time.Duration
}

func NewProber(retries int, interval time.Duration) *Prober {
	return &Prober{
		Client:   &http.Client{Timeout: 2 * time.Second},
		Retries:  retries,
		Interval: interval,
	}
}

/**
 * Poll url until it returns 200
 * @param {context.Context} ctx - Cancels the wait
 * @param {string} url - Address to GET
 * @returns {error} nil on the first 200, ErrNotHealthy after the last retry
 */
func (p *Prober) WaitHealthy(ctx context.Context, url string) error {
	for i := 0; i < p.Retries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if resp, err := p.Client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Interval):
		}
	}
	return fmt.Errorf("%w at %s after %d attempts", ErrNotHealthy, url, p.Retries)
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	name, args := utils.BrowserCommand(url)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	go cmd.Wait()
	return nil
}

// ReadOutput returns the captured console output, empty when there is none.
func ReadOutput(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// FailureFromOutput maps failure markers written by the generated script to errors.
func FailureFromOutput(output string) error {
	switch {
	case strings.Contains(output, MarkerActivationFailed):
		return models.ErrEnvironmentActivationFailed
	case strings.Contains(output, MarkerInstallFailed):
		return models.ErrDependencyInstallFailed
	}
	return nil
}

// WatchAndOpen waits for url in the background and opens a browser on success.
func (p *Prober) WatchAndOpen(ctx context.Context, url string, open func(string) error) {
	go func() {
		if err := p.WaitHealthy(ctx, url); err != nil {
			logger.Warnf("Health probe for %s failed: %v", url, err)
			return
		}
		logger.Infof("%s is up", url)
		if open != nil {
			if err := open(url); err != nil {
				logger.Warnf("%v", err)
			}
		}
	}()
}
