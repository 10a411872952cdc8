package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/modide/internal/fileserver"
	"github.com/GriffinCanCode/modide/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/modide/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/modide/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Config configures the file server client
type Config struct {
	// BaseURL includes the /api prefix, e.g. http://localhost:3000/api
	BaseURL string
	Timeout time.Duration
	// Retries is the number of extra attempts on connection errors, 429 and 5xx
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RPS caps outgoing requests per second; zero is unlimited
	RPS      int
	ReadOnly bool
	Metrics  *monitoring.Metrics
	Logger   *zap.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryWaitMin <= 0 {
		c.RetryWaitMin = 100 * time.Millisecond
	}
	if c.RetryWaitMax <= 0 {
		c.RetryWaitMax = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// client wraps resty with rate limiting and a circuit breaker
type client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
}

func newClient(cfg Config) *client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	httpClient := retryClient.StandardClient()
	httpClient.Timeout = cfg.Timeout

	restyClient := resty.NewWithClient(httpClient).
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "modide-remote/1.0").
		SetHeader("Accept", "application/json")
	restyClient.SetJSONMarshaler(sonic.Marshal)
	restyClient.SetJSONUnmarshaler(sonic.Unmarshal)
	restyClient.OnBeforeRequest(tracing.RestyMiddleware)

	logger := cfg.Logger
	breaker := resilience.New("fileserver", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsFailure: func(err error) bool {
			return err != nil && vfs.Classify(err) == vfs.CodeIOFailure
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS)
	}

	return &client{
		resty:   restyClient,
		limiter: limiter,
		breaker: breaker,
		metrics: cfg.Metrics,
	}
}

// do sends one request through the limiter and breaker and maps non-2xx answers onto vfs errors
func (c *client) do(ctx context.Context, method, path string, build func(*resty.Request)) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var resp *resty.Response
	timer := monitoring.NewTimer(c.metrics, method+" "+path)
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		req := c.resty.R().SetContext(ctx)
		if build != nil {
			build(req)
		}
		r, err := req.Execute(method, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return vfs.IOError(method, path, err)
		}
		resp = r
		return statusError(method, path, r)
	})

	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode())
	}
	timer.Stop(status)

	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, vfs.IOError(method, path, err)
	}
	return resp, err
}

// statusError decodes the file server's error body into the matching sentinel
func statusError(method, path string, resp *resty.Response) error {
	code := resp.StatusCode()
	if code < http.StatusBadRequest {
		return nil
	}

	var body fileserver.MessageResponse
	_ = sonic.Unmarshal(resp.Body(), &body)
	msg := body.Message
	if msg == "" {
		msg = resp.Status()
	}

	var sentinel error
	switch code {
	case http.StatusNotFound:
		sentinel = vfs.ErrNotFound
	case http.StatusForbidden:
		sentinel = vfs.ErrPermissionDenied
	case http.StatusConflict:
		sentinel = vfs.ErrNameConflict
		if body.Code == string(vfs.CodeNotEmpty) {
			sentinel = vfs.ErrNotEmpty
		}
	case http.StatusBadRequest:
		sentinel = vfs.ErrInvalidName
		if body.Code == string(vfs.CodePathTraversal) {
			sentinel = vfs.ErrPathTraversal
		}
	case http.StatusNotImplemented:
		sentinel = vfs.ErrUnsupported
	default:
		return vfs.IOError(method, path, fmt.Errorf("status %d: %s", code, msg))
	}
	return fmt.Errorf("%s %s: %s: %w", method, path, msg, sentinel)
}
