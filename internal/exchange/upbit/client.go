package upbit

import (
	"time"

	"kimchibot/internal/logger"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL   string
	AccessKey string
	SecretKey string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

type Client struct {
	accessKey string
	secretKey string

	http    *resty.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

func New(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}
}
