package container

import (
	"landing-v2/internal/config"
	"landing-v2/internal/ratelimit"
	"landing-v2/internal/service"
	"landing-v2/pkg/logger"
	"landing-v2/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	RateLimiter ratelimit.Store
	CRM         service.CRMService
}

// New creates a new dependency injection container. The rate limiter is
// Redis-backed only when REDIS_URL is set and reachable; otherwise it keeps
// its state in process memory and loses it on restart.
func New(cfg *config.Config, logger *logger.Logger) (*Container, error) {
	var redisClient *redis.Client
	var limiter ratelimit.Store

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, falling back to in-memory rate limiting")
		} else {
			redisClient = client
			logger.Info("Redis client initialized successfully")
		}
	}

	if redisClient != nil {
		limiter = ratelimit.NewRedisStore(redisClient, int64(cfg.RateLimitRequests), cfg.RateLimitWindow)
	} else {
		limiter = ratelimit.NewMemoryStore(int64(cfg.RateLimitRequests), cfg.RateLimitWindow)
	}

	crm := service.NewHubSpotClient(cfg, logger)
	if cfg.CRMAccessToken == "" {
		logger.Warn("CRM access token not configured, leads will be logged but not forwarded")
	}

	return &Container{
		Config:      cfg,
		Logger:      logger,
		RedisClient: redisClient,
		RateLimiter: limiter,
		CRM:         crm,
	}, nil
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetRateLimiter returns the rate-limit store
func (c *Container) GetRateLimiter() ratelimit.Store {
	return c.RateLimiter
}

// GetCRM returns the CRM service
func (c *Container) GetCRM() service.CRMService {
	return c.CRM
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}
