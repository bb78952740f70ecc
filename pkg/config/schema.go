package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/bundlecheck-config-v1.0.0.json
var schemaV1 []byte

// CurrentSchemaVersion is the project config schema in use.
const CurrentSchemaVersion = "1.0.0"

// SchemaVersion represents a configuration schema version
type SchemaVersion struct {
	Major int
	Minor int
	Patch int
}

// String returns the string representation of the version
func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseSchemaVersion parses a version string into SchemaVersion
func ParseSchemaVersion(version string) (SchemaVersion, error) {
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(parts) != 3 {
		return SchemaVersion{}, fmt.Errorf("invalid version format: %s", version)
	}

	var v SchemaVersion
	_, err := fmt.Sscanf(strings.Join(parts, "."), "%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("failed to parse version: %v", err)
	}

	return v, nil
}

// ValidateProjectConfig validates YAML or JSON config data against the
// schema named by its $schema field (or the current one).
func ValidateProjectConfig(data []byte) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		// empty file: defaults apply
		return nil
	}
	version, err := DetectSchemaVersion(doc)
	if err != nil {
		return err
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert config to JSON: %w", err)
	}
	return ValidateConfig(asJSON, version)
}

// ValidateConfig validates JSON configuration against the appropriate schema
func ValidateConfig(configData []byte, schemaVersion string) error {
	schemaLoader, err := getSchemaLoader(schemaVersion)
	if err != nil {
		return fmt.Errorf("failed to load schema for version %s: %v", schemaVersion, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(configData))
	if err != nil {
		return fmt.Errorf("schema validation error: %v", err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

// getSchemaLoader returns the appropriate schema loader for the given version
func getSchemaLoader(version string) (gojsonschema.JSONLoader, error) {
	switch version {
	case "1.0.0", "v1.0.0":
		return gojsonschema.NewBytesLoader(schemaV1), nil
	default:
		return nil, fmt.Errorf("unsupported schema version: %s", version)
	}
}

// DetectSchemaVersion detects the schema version from a decoded config document
func DetectSchemaVersion(doc map[string]interface{}) (string, error) {
	schema, ok := doc["$schema"]
	if !ok {
		return CurrentSchemaVersion, nil
	}
	schemaStr, ok := schema.(string)
	if !ok {
		return "", fmt.Errorf("$schema must be a string")
	}
	if idx := strings.LastIndex(schemaStr, "/v"); idx >= 0 {
		if v, err := ParseSchemaVersion(schemaStr[idx+1:]); err == nil {
			return v.String(), nil
		}
	}
	return "", fmt.Errorf("unrecognized $schema %q", schemaStr)
}
