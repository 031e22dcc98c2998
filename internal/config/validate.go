package config

import (
	"fmt"
	"strings"

	"placeetl/internal/placement"
	"placeetl/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that is surfaced but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "runtime.tile_threshold"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline. Storage limits are checked against the dialects
// registered with the storage package, so callers that want those checks must
// link the backends (placeetl/internal/storage/all).
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	if len(p.Inputs) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "inputs",
			Message:  "no inputs configured; stdin will be read",
		})
	}
	for i, in := range p.Inputs {
		if strings.TrimSpace(in) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("inputs[%d]", i),
				Message:  "input path must not be empty",
			})
		}
	}
	if c := p.Parser.Options.String("comma", ","); len([]rune(c)) != 1 || c == "\n" || c == "\r" || c == "\"" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma %q must be a single character other than quote or newline", c),
		})
	}

	d, storageIssues := validateStorage(p.Storage)
	issues = append(issues, storageIssues...)
	issues = append(issues, validateRuntime(p.Runtime, d)...)
	issues = append(issues, validateLogging(p.Logging)...)
	issues = append(issues, validateMetrics(p.Metrics)...)

	return issues
}

// validateStorage validates storage configuration and returns the backend's
// dialect when it is known.
func validateStorage(s Storage) (storage.Dialect, []Issue) {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return nil, issues
	}

	d, ok := storage.DialectFor(s.Kind)
	if !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q (known: %v)", s.Kind, storage.ListKinds()),
		})
	}
	if strings.TrimSpace(s.DSN) == "" && s.Kind != "sqlite" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}
	if !s.Bootstrap {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.bootstrap",
			Message:  "bootstrap disabled; placements and placements_moderation must already exist",
		})
	}
	return d, issues
}

// validateRuntime validates RuntimeConfig, including that a full batch of
// either shape fits into one statement of the selected backend.
func validateRuntime(r RuntimeConfig, d storage.Dialect) []Issue {
	var issues []Issue

	if r.TileThreshold < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.tile_threshold",
			Message:  "tile_threshold must not be negative",
		})
	}
	if r.RectangleThreshold < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.rectangle_threshold",
			Message:  "rectangle_threshold must not be negative",
		})
	}
	if d != nil {
		th := storage.Thresholds{Tile: r.TileThreshold, Rectangle: r.RectangleThreshold}.WithDefaults(d)
		check := []struct {
			path string
			n    int
			w    int
		}{
			{"runtime.tile_threshold", th.Tile, storage.RowWidth(placement.KindTile)},
			{"runtime.rectangle_threshold", th.Rectangle, storage.RowWidth(placement.KindRectangle)},
		}
		for _, c := range check {
			if c.n > 0 && c.n*c.w > d.MaxParams() {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     c.path,
					Message: fmt.Sprintf("%d rows x %d params exceeds the %s limit of %d; use at most %d",
						c.n, c.w, d.Name(), d.MaxParams(), d.MaxParams()/c.w),
				})
			}
		}
	}
	if r.NormalizeWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.normalize_workers",
			Message:  "normalize_workers must not be negative",
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}
	if r.MaxErrorSamples < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.max_error_samples",
			Message:  "max_error_samples must not be negative",
		})
	}
	return issues
}

func validateLogging(l Logging) []Issue {
	var issues []Issue
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "logging.level",
			Message:  fmt.Sprintf("unknown level %q", l.Level),
		})
	}
	switch strings.ToLower(l.Format) {
	case "", "json", "console":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "logging.format",
			Message:  fmt.Sprintf("unknown format %q (json or console)", l.Format),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch strings.ToLower(m.Backend) {
	case "", "none":
	case "pushgateway", "prom", "prometheus":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires a URL",
			})
		}
	case "datadog", "dogstatsd":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q", m.Backend),
		})
	}
	return issues
}
