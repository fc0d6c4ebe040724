package luasched

// config holds resolved construction-time settings for a Runtime.
type config struct {
	logger            Logger
	errorCallback     ErrorCallback
	metricsEnabled    bool
	queueCapacityHint int
	recentErrorCap    int
}

// Option configures a Runtime instance.
type Option interface {
	apply(*config) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyFunc func(*config) error
}

func (o *optionImpl) apply(cfg *config) error {
	return o.applyFunc(cfg)
}

// WithLogger overrides the Runtime's Logger. The default logs through the
// package-level structured logger (see SetStructuredLogger); pass
// NewNoOpLogger() for embedders that manage their own diagnostics.
func WithLogger(l Logger) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.logger = l
		return nil
	}}
}

// WithErrorCallback installs the initial error callback, equivalent to
// calling Runtime.SetErrorCallback immediately after New.
func WithErrorCallback(cb ErrorCallback) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.errorCallback = cb
		return nil
	}}
}

// WithMetrics enables the Prometheus collectors returned by
// Runtime.Collectors. Disabled by default to avoid the bookkeeping cost for
// embedders that don't scrape it.
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(cfg *config) error {
		cfg.metricsEnabled = enabled
		return nil
	}}
}

// WithQueueCapacityHint pre-sizes the Spawn/Defer/Futures queues' backing
// slices. It is a sizing hint only — the queues remain unbounded and grow
// past the hint as needed.
func WithQueueCapacityHint(n int) Option {
	return &optionImpl{func(cfg *config) error {
		if n > 0 {
			cfg.queueCapacityHint = n
		}
		return nil
	}}
}

// WithRecentErrorCapacity bounds how many recent coroutine errors
// Runtime.RecentErrors retains. Zero disables retention.
func WithRecentErrorCapacity(n int) Option {
	return &optionImpl{func(cfg *config) error {
		if n >= 0 {
			cfg.recentErrorCap = n
		}
		return nil
	}}
}

// resolveOptions applies Option instances to a fresh config.
func resolveOptions(opts []Option) (*config, error) {
	cfg := &config{
		queueCapacityHint: 16,
		recentErrorCap:    32,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.logger == nil {
		cfg.logger = defaultLogger()
	}
	return cfg, nil
}
