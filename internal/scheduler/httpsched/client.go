package httpsched

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/learnloop/engage-api/internal/scheduler"
	"github.com/learnloop/engage-api/pkg/circuitbreaker"
	"github.com/learnloop/engage-api/pkg/metrics"
)

// Client talks to a QStash-compatible message scheduler over REST. The
// scheduler delivers an HTTP POST of the body to the destination URL,
// retrying transient failures up to the requested retry count.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cb      *circuitbreaker.CircuitBreaker
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type publishResponse struct {
	MessageID string `json:"messageId"`
}

func New(config Config, logger *zerolog.Logger, m *metrics.Metrics) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		token:   config.Token,
		http:    &http.Client{Timeout: config.Timeout},
		cb: circuitbreaker.New(circuitbreaker.Settings{
			Name:        "scheduler",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		logger:  logger,
		metrics: m,
	}
}

func (c *Client) Publish(ctx context.Context, url string, body []byte, opts scheduler.PublishOptions) (string, error) {
	endpoint := fmt.Sprintf("%s/v2/publish/%s", c.baseURL, url)

	var messageID string
	err := c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		if opts.DelaySeconds > 0 {
			req.Header.Set("Upstash-Delay", strconv.Itoa(opts.DelaySeconds)+"s")
		}
		if opts.Cron != "" {
			req.Header.Set("Upstash-Cron", opts.Cron)
		}
		if opts.RetryCount > 0 {
			req.Header.Set("Upstash-Retries", strconv.Itoa(opts.RetryCount))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("publish returned %d: %s", resp.StatusCode, string(b))
		}

		var pr publishResponse
		if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
			return fmt.Errorf("failed to decode publish response: %w", err)
		}
		messageID = pr.MessageID
		return nil
	})
	if err != nil {
		c.observePublish("error")
		c.logger.Error().Err(err).Str("destination", url).Msg("scheduler publish failed")
		return "", fmt.Errorf("%w: %v", scheduler.ErrUnavailable, err)
	}

	c.observePublish("ok")
	return messageID, nil
}

func (c *Client) Cancel(ctx context.Context, messageID string) error {
	endpoint := fmt.Sprintf("%s/v2/messages/%s", c.baseURL, messageID)

	err := c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		// A message already delivered or expired is gone; cancelling it
		// again is not a failure.
		if resp.StatusCode == http.StatusNotFound {
			return nil
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("cancel returned %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		c.observeCancel("error")
		c.logger.Error().Err(err).Str("message_id", messageID).Msg("scheduler cancel failed")
		return fmt.Errorf("%w: %v", scheduler.ErrUnavailable, err)
	}

	c.observeCancel("ok")
	return nil
}

func (c *Client) observePublish(status string) {
	if c.metrics != nil {
		c.metrics.SchedulerPublishes.WithLabelValues(status).Inc()
	}
}

func (c *Client) observeCancel(status string) {
	if c.metrics != nil {
		c.metrics.SchedulerCancels.WithLabelValues(status).Inc()
	}
}
