package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// Notifier receives failure reports. Satisfied by notify.Notifier.
type Notifier interface {
	Failure(cause string)
}

// Checker probes the server's own HTTP endpoint and optionally restarts
// the process via an external command when the probe fails.
type Checker struct {
	url            string
	restartCommand string
	notifier       Notifier
	client         *http.Client
}

func NewChecker(url, restartCommand string, notifier Notifier) *Checker {
	return &Checker{
		url:            url,
		restartCommand: restartCommand,
		notifier:       notifier,
		client:         &http.Client{Timeout: 5 * time.Second},
	}
}

// Check performs one probe. A non-2xx status or transport error counts
// as failure; failures are notified and trigger the restart command when
// one is configured.
func (c *Checker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		err = fmt.Errorf("health probe returned %d", resp.StatusCode)
	}

	slog.Error("health check failed", "url", c.url, "error", err)
	if c.notifier != nil {
		c.notifier.Failure(fmt.Sprintf("Health check failed: %v", err))
	}
	if c.restartCommand != "" {
		c.restart()
	}
	return err
}

// Restart runs the configured restart command. Used both by the failed
// health probe and by the admin restart endpoint.
func (c *Checker) Restart() error {
	if c.restartCommand == "" {
		return fmt.Errorf("no restart command configured")
	}
	return c.restart()
}

func (c *Checker) restart() error {
	parts := strings.Fields(c.restartCommand)
	cmd := exec.Command(parts[0], parts[1:]...)
	if err := cmd.Start(); err != nil {
		slog.Error("restart command failed to start", "command", c.restartCommand, "error", err)
		return err
	}
	slog.Info("restart command started", "command", c.restartCommand)
	return nil
}
