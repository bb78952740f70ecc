package config

import (
	"strings"
	"testing"
)

func TestSchemaVersionString(t *testing.T) {
	tests := []struct {
		version  SchemaVersion
		expected string
	}{
		{SchemaVersion{1, 0, 0}, "1.0.0"},
		{SchemaVersion{2, 1, 3}, "2.1.3"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.version.String(); result != tt.expected {
				t.Errorf("SchemaVersion.String() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestParseSchemaVersion(t *testing.T) {
	tests := []struct {
		input       string
		expected    SchemaVersion
		expectError bool
	}{
		{"1.0.0", SchemaVersion{1, 0, 0}, false},
		{"v2.1.3", SchemaVersion{2, 1, 3}, false},
		{"invalid", SchemaVersion{}, true},
		{"1.0", SchemaVersion{}, true},
		{"a.b.c", SchemaVersion{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseSchemaVersion(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("ParseSchemaVersion(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSchemaVersion(%q) unexpected error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ParseSchemaVersion(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidateProjectConfig(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"empty", "", ""},
		{"valid yaml", "output_dir: out\nignore_modules: [lodash, \"@s/p\"]\n", ""},
		{"valid json", `{"scan":{"concurrency_percent":75}}`, ""},
		{"explicit schema", `{"$schema":"https://schemas.fulmenhq.dev/bundlecheck/config/v1.0.0"}`, ""},
		{"unknown key", "outputdir: out\n", "validation failed"},
		{"bad percent", "scan:\n  concurrency_percent: 150\n", "validation failed"},
		{"bad module id", "ignore_modules: [\"a/b/c\"]\n", "validation failed"},
		{"unsupported schema", `{"$schema":"https://schemas.fulmenhq.dev/bundlecheck/config/v9.0.0"}`, "unsupported schema version"},
		{"not yaml", "output_dir: [\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectConfig([]byte(tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDetectSchemaVersion(t *testing.T) {
	v, err := DetectSchemaVersion(map[string]interface{}{})
	if err != nil || v != CurrentSchemaVersion {
		t.Fatalf("default detection = %q, %v", v, err)
	}
	if _, err := DetectSchemaVersion(map[string]interface{}{"$schema": 1}); err == nil {
		t.Error("expected error for non-string $schema")
	}
}
