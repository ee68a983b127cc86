package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPushTokensMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_push_tokens.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no push_tokens migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS push_tokens",
		"CHECK (platform IN ('ios', 'android'))",
		"CONSTRAINT push_tokens_identity UNIQUE (user_id, platform, token)",
		"is_active BOOLEAN NOT NULL DEFAULT TRUE",
		"DROP TABLE IF EXISTS push_tokens",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestDeliveryRecordsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_delivery_records.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no delivery_records migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS delivery_records",
		"CHECK (status IN ('sent', 'failed'))",
		"metadata JSONB",
		"DROP TABLE IF EXISTS delivery_records",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
