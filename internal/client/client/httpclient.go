package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/protocol"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/logging"
	"github.com/sony/gobreaker"
)

const (
	headerCommand     = "command"
	headerDestination = "destination"
	headerTopic       = "topic"

	// DefaultTimeout bounds a single command; nodes can be slow to answer
	// network-wide queries.
	DefaultTimeout = 30 * time.Second

	maxErrBody = 256
)

type Options struct {
	Timeout           time.Duration
	BasicAuthUser     string
	BasicAuthPassword string
	// Breaker enables fail-fast after repeated transport failures.
	Breaker bool
	// HTTPClient overrides the underlying client; Timeout is ignored then.
	HTTPClient *http.Client
	Logger     logging.Logger
}

type HTTPClient struct {
	baseURL  string
	http     *http.Client
	user     string
	password string
	cb       *gobreaker.CircuitBreaker
	log      logging.Logger
}

// NewHTTPClient returns a client for the node REST port at addr, given as
// "host:port" or a full http(s) URL.
func NewHTTPClient(addr string, opts Options) (*HTTPClient, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("%w: empty node address", common.ErrInvalidArgument)
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	c := &HTTPClient{
		baseURL:  addr,
		http:     hc,
		user:     opts.BasicAuthUser,
		password: opts.BasicAuthPassword,
		log:      log.With("node", addr),
	}
	if opts.Breaker {
		c.cb = newBreaker(addr, c.log)
	}
	return c, nil
}

func newBreaker(name string, log logging.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "node breaker state changed", "from", from.String(), "to", to.String())
		},
	})
}

func (c *HTTPClient) Do(ctx context.Context, cmd protocol.Command) (string, error) {
	if c.cb == nil {
		return c.send(ctx, cmd)
	}

	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.send(ctx, cmd)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &TransportError{Command: cmd.String(), Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
		}
		return "", err
	}
	return out.(string), nil
}

// Ping checks that the node answers at all.
func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, protocol.Get("get status"))
	return err
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) send(ctx context.Context, cmd protocol.Command) (string, error) {
	method := http.MethodGet
	if cmd.Method == models.MethodPost {
		method = http.MethodPost
	}

	var body io.Reader
	if len(cmd.Payload) > 0 {
		body = bytes.NewReader(cmd.Payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL, body)
	if err != nil {
		return "", &TransportError{Command: cmd.String(), Err: err}
	}
	req.Header.Set("User-Agent", common.UserAgent)
	req.Header.Set(headerCommand, cmd.Text)
	if cmd.Destination != "" {
		req.Header.Set(headerDestination, cmd.Destination)
	}
	if cmd.Topic != "" {
		req.Header.Set(headerTopic, cmd.Topic)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	c.log.Debug(ctx, "node command", "method", method, "command", cmd.Text, "destination", cmd.Destination)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error(ctx, "node request failed", "command", cmd.Text, "error", err)
		return "", &TransportError{Command: cmd.String(), Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error(ctx, "node reply unreadable", "command", cmd.Text, "error", err)
		return "", &TransportError{Command: cmd.String(), Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &TransportError{Command: cmd.String(), Err: fmt.Errorf("%w: status %d", common.ErrUnauthorized, resp.StatusCode)}
	case resp.StatusCode >= http.StatusInternalServerError:
		c.log.Error(ctx, "node returned server error", "command", cmd.Text, "status", resp.StatusCode)
		return "", &TransportError{
			Command: cmd.String(),
			Err:     fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(string(b), maxErrBody)),
		}
	}

	return string(b), nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
