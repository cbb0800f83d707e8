// Package backend reads offers and saved preferences from the hosted
// backend's REST interface.
package backend

import (
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	restPath         = "/rest/v1"
	userAgent        = "spigell/crewmatch"
	defaultPageSize  = 500
	defaultRetryWait = 500 * time.Millisecond
	requestTimeout   = 15 * time.Second
)

// ErrPreferencesNotFound is returned when the user has no saved preferences row.
var ErrPreferencesNotFound = errors.New("preferences not found")

type Config struct {
	URL        string
	APIKey     string
	UserAgent  string
	PageSize   int
	MaxRetries int
	// RetryWait is the minimal wait between retries. The maximum is ten times larger.
	RetryWait time.Duration
}

type Client struct {
	baseURL   string
	apiKey    string
	pageSize  int
	logger    *zap.Logger
	http      *retryablehttp.Client
	UserAgent string
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("backend url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("backend api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	wait := cfg.RetryWait
	if wait <= 0 {
		wait = defaultRetryWait
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = max(cfg.MaxRetries, 0)
	rc.RetryWaitMin = wait
	rc.RetryWaitMax = 10 * wait
	rc.HTTPClient.Timeout = requestTimeout
	rc.Logger = &retryLogger{logger: logger.Named("http").Sugar()}
	// The last response is handed back so API errors keep their message.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = userAgent
	}

	return &Client{
		baseURL:   base,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		pageSize:  pageSize,
		logger:    logger,
		http:      rc,
		UserAgent: ua,
	}, nil
}

// retryLogger routes retryablehttp messages to zap.
type retryLogger struct {
	logger *zap.SugaredLogger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warnw(msg, keysAndValues...)
}
