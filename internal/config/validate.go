// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a loaded Config and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Config.
//
// Path is a dotted path into the config (e.g. "store.kind"); Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Config. It does not mutate the
// config; callers decide whether warnings are fatal.
func Validate(cfg Config) []Issue {
	var issues []Issue

	switch cfg.Store.Kind {
	case "fs":
		if strings.TrimSpace(cfg.Store.Root) == "" {
			issues = append(issues, Issue{SeverityError, "store.root", "root directory required for the fs backend"})
		}
	case "gcs":
		// bucket checks below cover gcs
	case "":
		issues = append(issues, Issue{SeverityError, "store.kind", "store kind must not be empty"})
	default:
		issues = append(issues, Issue{SeverityError, "store.kind",
			fmt.Sprintf("unknown store kind %q (want fs or gcs)", cfg.Store.Kind)})
	}

	for path, bucket := range map[string]string{
		"store.bronze_bucket": cfg.Store.BronzeBucket,
		"store.silver_bucket": cfg.Store.SilverBucket,
		"store.gold_bucket":   cfg.Store.GoldBucket,
	} {
		if strings.TrimSpace(bucket) == "" {
			issues = append(issues, Issue{SeverityError, path, "bucket name must not be empty"})
		}
	}

	switch cfg.Metrics.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(cfg.Metrics.PushgatewayURL) == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "pushgateway URL required"})
		}
	default:
		issues = append(issues, Issue{SeverityWarning, "metrics.backend",
			fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", cfg.Metrics.Backend)})
	}

	if cfg.Environment == "" {
		issues = append(issues, Issue{SeverityWarning, "environment", "environment tag is empty"})
	}

	return issues
}
