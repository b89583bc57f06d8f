package gliderbatch

import (
	"github.com/bft-labs/gliderbatch/internal/ports"
	"github.com/bft-labs/gliderbatch/pkg/log"
)

// Option configures optional behavior of a Runner.
type Option func(*options)

// options holds the optional configuration for a Runner.
type options struct {
	logger       ports.Logger
	step         ports.ProcessingStep
	post         ports.MissionPostProcessor
	reports      []ports.ReportRepository
	eventHandler EventHandler
	plugins      []Plugin
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProcessingStep replaces the step built from Config.StepCommand.
func WithProcessingStep(step ProcessingStep) Option {
	return func(o *options) {
		o.step = step
	}
}

// WithPostProcessor replaces the post-processor built from the configured
// commands and database.
func WithPostProcessor(post MissionPostProcessor) Option {
	return func(o *options) {
		o.post = post
	}
}

// WithReportRepository adds a repository that receives every run report.
func WithReportRepository(repo ReportRepository) Option {
	return func(o *options) {
		o.reports = append(o.reports, repo)
	}
}

// WithEventHandler sets a handler for runner events.
// Events are called synchronously from the processing goroutine.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the Runner starts
// watching. Plugins are initialized in registration order and shut down in
// reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
