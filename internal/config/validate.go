// CUE schema validation code
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

// ValidateWithCue validates a YAML configuration file using a CUE schema file.
func ValidateWithCue(configFile, cueFile string) error {
	yamlBytes, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	schemaBytes, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	return ValidateBytes(configFile, yamlBytes, schemaBytes)
}

// ValidateBytes validates YAML bytes against CUE schema source. name is used
// in error positions only.
func ValidateBytes(name string, yamlBytes, schemaBytes []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileBytes(schemaBytes)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", err)
	}

	file, err := yaml.Extract(name, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(file)
	if err := configVal.Err(); err != nil {
		return fmt.Errorf("cannot build YAML config: %w", err)
	}

	final := schemaVal.Unify(configVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
