package flasher

import "time"

// Config holds the session configuration.
type Config struct {
	// ProgressCallback is called after each raw flash write (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ReadyTimeout bounds how long a write will wait for the device to
	// become ready for the erases it needs. Zero waits forever.
	ReadyTimeout time.Duration

	// PollInterval is the pause between device readiness polls.
	// Zero busy-polls.
	PollInterval time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ReadyTimeout: 5 * time.Second,
		PollInterval: 0,
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithProgressCallback sets a callback function to track write progress.
//
// Example:
//
//	sess := flasher.New(dev,
//	    flasher.WithProgressCallback(func(p flasher.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for session operations.
//
// Example:
//
//	sess := flasher.New(dev, flasher.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithReadyTimeout bounds the wait for device readiness during erase
// catch-up. A write that cannot get erase coverage within the timeout
// records StatusDeviceTimeout and is skipped. Zero disables the bound.
//
// Example:
//
//	sess := flasher.New(dev, flasher.WithReadyTimeout(10*time.Second))
func WithReadyTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout >= 0 {
			c.ReadyTimeout = timeout
		}
	}
}

// WithPollInterval sets the pause between readiness polls while waiting for
// the device. Zero busy-polls, which is appropriate for memory-mapped
// devices; wire-attached devices usually want a small interval.
//
// Example:
//
//	sess := flasher.New(dev, flasher.WithPollInterval(100*time.Microsecond))
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval >= 0 {
			c.PollInterval = interval
		}
	}
}
