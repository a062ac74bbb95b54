package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	enginev1 "github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-screener/internal/strategy"
	"gopkg.in/yaml.v3"
)

// schemaGenerator is implemented by every config that ships a JSON schema.
type schemaGenerator interface {
	GenerateSchemaJSON() (string, error)
}

// target is one generated schema with its sample config.
type target struct {
	name   string
	schema schemaGenerator
	sample any
}

func main() {
	engineConfig := enginev1.EmptyConfig()
	strategyConfig := strategy.ExampleConfig(strategy.KindRSI)

	targets := []target{
		{name: "backtest-engine-v1-config", schema: &engineConfig, sample: engineConfig},
		{name: "strategy-config", schema: &strategyConfig, sample: strategyConfig},
	}

	for _, t := range targets {
		schemaName := t.name + ".json"
		if err := validateSchemaName(schemaName); err != nil {
			log.Fatalf("Invalid schema name: %v", err)
		}

		schemaPath := filepath.Join("./config", schemaName)
		sampleConfigPath := filepath.Join("./config", t.name+".yaml")

		if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
			log.Fatalf("Invalid paths: %v", err)
		}

		if err := generateSchemaFile(t.schema, schemaPath); err != nil {
			log.Fatalf("Failed to generate schema: %v", err)
		}

		if err := generateSampleConfig(t.sample, sampleConfigPath, schemaName); err != nil {
			log.Fatalf("Failed to generate sample config: %v", err)
		}

		log.Printf("Schema successfully generated at %s", schemaPath)
	}
}

// generateSchemaFile writes the schema of config to schemaPath, creating directories.
func generateSchemaFile(config schemaGenerator, schemaPath string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes sample as YAML to path unless the file exists.
func generateSampleConfig(sample any, path string, schemaName string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat sample config: %w", err)
	}

	yamlBytes, err := yaml.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	content := append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	log.Printf("Sample config successfully generated at %s", path)

	return nil
}

func validatePaths(schemaPath, sampleConfigPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(schemaName string) error {
	if schemaName == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(schemaName, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", schemaName)
	}

	return nil
}

// getSchemaReference is the yaml-language-server header pointing at schemaName.
func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}
