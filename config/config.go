// Package config loads run configuration of anonymization load test.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Configuration errors.
var (
	ErrConfig         = errors.New("configuration error")
	ErrNoEnvironment  = errors.New("vars file has empty environment list")
	ErrNoAnonymizeURI = errors.New("vars environment has no anonymizeUri")
)

// RunConfiguration is loaded once per process and never mutated.
type RunConfiguration struct {
	AnonymizeURI    string
	SubscriptionKey string
	TestType        string
	Options         TestOptions
}

// Sources point to external configuration.
type Sources struct {
	// VarsPath is a path to vars JSON relative to working directory, or s3://bucket/key.
	VarsPath string

	// TestTypePath is an optional path to run options JSON.
	TestTypePath string

	SubscriptionKey string

	S3 S3Options
}

// Vars is a document with environment variables.
type Vars struct {
	Environment []Environment `json:"environment"`
}

// Environment describes target environment.
type Environment struct {
	AnonymizeURI string `json:"anonymizeUri"`
}

// Load reads configuration sources.
func Load(ctx context.Context, src Sources) (RunConfiguration, error) {
	cfg := RunConfiguration{
		SubscriptionKey: src.SubscriptionKey,
		TestType:        src.TestTypePath,
	}

	if src.VarsPath == "" {
		return cfg, fmt.Errorf("%w: vars path is not set", ErrConfig)
	}

	data, err := read(ctx, src.VarsPath, src.S3)
	if err != nil {
		return cfg, fmt.Errorf("%w: failed to read vars %s: %w", ErrConfig, src.VarsPath, err)
	}

	env, err := ParseVars(data)
	if err != nil {
		return cfg, fmt.Errorf("%w: vars %s: %w", ErrConfig, src.VarsPath, err)
	}

	cfg.AnonymizeURI = env.AnonymizeURI

	if src.TestTypePath != "" {
		data, err := read(ctx, src.TestTypePath, src.S3)
		if err != nil {
			return cfg, fmt.Errorf("%w: failed to read test type %s: %w", ErrConfig, src.TestTypePath, err)
		}

		if cfg.Options, err = ParseOptions(data); err != nil {
			return cfg, fmt.Errorf("%w: test type %s: %w", ErrConfig, src.TestTypePath, err)
		}
	}

	return cfg, nil
}

// ParseVars decodes vars document and returns its first environment.
func ParseVars(data []byte) (Environment, error) {
	var v Vars

	if err := json.Unmarshal(data, &v); err != nil {
		return Environment{}, fmt.Errorf("failed to decode: %w", err)
	}

	if len(v.Environment) == 0 {
		return Environment{}, ErrNoEnvironment
	}

	env := v.Environment[0]
	if env.AnonymizeURI == "" {
		return Environment{}, ErrNoAnonymizeURI
	}

	return env, nil
}

func read(ctx context.Context, path string, s3o S3Options) ([]byte, error) {
	if strings.HasPrefix(path, s3Scheme) {
		return readS3(ctx, path, s3o)
	}

	return os.ReadFile(filepath.Clean(path))
}
