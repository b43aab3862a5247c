package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "dev" {
		t.Errorf("environment = %q", cfg.Environment)
	}
	if cfg.Store.Kind != "fs" {
		t.Errorf("store.kind = %q", cfg.Store.Kind)
	}
	if cfg.Intake.Addr != ":8080" {
		t.Errorf("intake.addr = %q", cfg.Intake.Addr)
	}
	if cfg.Metrics.Backend != "none" {
		t.Errorf("metrics.backend = %q", cfg.Metrics.Backend)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STORE_KIND", "gcs")
	t.Setenv("BRONZE_BUCKET", "my-bronze")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Kind != "gcs" {
		t.Errorf("store.kind = %q", cfg.Store.Kind)
	}
	if cfg.Store.BronzeBucket != "my-bronze" {
		t.Errorf("bronze bucket = %q", cfg.Store.BronzeBucket)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "environment: prod\nstore:\n  kind: fs\n  root: /var/lib/pipeline\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "prod" {
		t.Errorf("environment = %q", cfg.Environment)
	}
	if cfg.Store.Root != "/var/lib/pipeline" {
		t.Errorf("store.root = %q", cfg.Store.Root)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, _ := Load("")
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		if issues := Validate(base()); len(issues) != 0 {
			t.Fatalf("issues = %v", issues)
		}
	})

	t.Run("unknown store kind", func(t *testing.T) {
		cfg := base()
		cfg.Store.Kind = "s3"
		issues := Validate(cfg)
		if !hasIssue(issues, SeverityError, "store.kind") {
			t.Errorf("issues = %v", issues)
		}
	})

	t.Run("fs kind requires root", func(t *testing.T) {
		cfg := base()
		cfg.Store.Root = " "
		issues := Validate(cfg)
		if !hasIssue(issues, SeverityError, "store.root") {
			t.Errorf("issues = %v", issues)
		}
	})

	t.Run("empty bucket", func(t *testing.T) {
		cfg := base()
		cfg.Store.GoldBucket = ""
		issues := Validate(cfg)
		if !hasIssue(issues, SeverityError, "store.gold_bucket") {
			t.Errorf("issues = %v", issues)
		}
	})

	t.Run("pushgateway requires URL", func(t *testing.T) {
		cfg := base()
		cfg.Metrics.Backend = "pushgateway"
		cfg.Metrics.PushgatewayURL = ""
		issues := Validate(cfg)
		if !hasIssue(issues, SeverityError, "metrics.pushgateway_url") {
			t.Errorf("issues = %v", issues)
		}
	})

	t.Run("unknown metrics backend warns", func(t *testing.T) {
		cfg := base()
		cfg.Metrics.Backend = "statsd"
		issues := Validate(cfg)
		if !hasIssue(issues, SeverityWarning, "metrics.backend") {
			t.Errorf("issues = %v", issues)
		}
	})
}

func hasIssue(issues []Issue, sev IssueSeverity, path string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path {
			return true
		}
	}
	return false
}
