// Package config loads the policygraph configuration file and applies
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-policygraph/pkg/constraints"
	"github.com/dd0wney/cluso-policygraph/pkg/dependency"
	"github.com/dd0wney/cluso-policygraph/pkg/engine"
	"github.com/dd0wney/cluso-policygraph/pkg/export"
	"github.com/dd0wney/cluso-policygraph/pkg/graphql"
	"github.com/dd0wney/cluso-policygraph/pkg/interaction"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	tlsconf "github.com/dd0wney/cluso-policygraph/pkg/tls"
	"github.com/dd0wney/cluso-policygraph/pkg/topology"
	"github.com/dd0wney/cluso-policygraph/pkg/validation"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel = "POLICYGRAPH_LOG_LEVEL"
	EnvTheme    = "POLICYGRAPH_THEME"
	EnvFormat   = "POLICYGRAPH_FORMAT"
)

// Graph kinds the CLI can export.
const (
	GraphDependency  = "dependency"
	GraphTopology    = "topology"
	GraphInteraction = "interaction"
)

var graphKinds = []string{GraphDependency, GraphTopology, GraphInteraction}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Logging configures the process logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Output says what to export and where to write it.
type Output struct {
	Graph  string `yaml:"graph"`
	Format string `yaml:"format"`
	// Destination is "-" or empty for stdout, a file path, or
	// s3://bucket/key.
	Destination string `yaml:"destination"`
	Compress    bool   `yaml:"compress"`
}

// Server configures the -serve endpoint. The token signing secret is only
// read from the environment.
type Server struct {
	TLS           tlsconf.Config `yaml:"tls"`
	TokenTTL      time.Duration  `yaml:"tokenTTL"`
	MaxQueryDepth int            `yaml:"maxQueryDepth"`
}

// File is the configuration file.
type File struct {
	Logging     Logging                       `yaml:"logging"`
	Dependency  dependency.LayoutConfig       `yaml:"dependency"`
	Topology    topology.TopologyConfig       `yaml:"topology"`
	Interaction interaction.InteractionConfig `yaml:"interaction"`
	Export      export.ExportConfig           `yaml:"export"`
	Output      Output                        `yaml:"output"`
	Server      Server                        `yaml:"server"`
	// Workers bounds per-namespace analysis; zero analyzes the whole set at
	// once.
	Workers int `yaml:"workers"`

	Constraints []constraints.Spec `yaml:"constraints"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Logging: Logging{Level: "info"},
		Output:  Output{Graph: GraphDependency, Format: string(export.FormatJSON), Destination: "-"},
		Server:  Server{MaxQueryDepth: graphql.DefaultMaxDepth},
	}
}

// Load reads path over Default. Unknown keys are an error.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a configuration document over Default.
func Read(r io.Reader) (File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// ApplyEnv overrides the log level, theme and format from the environment.
func (c *File) ApplyEnv() {
	c.Logging.Level = getEnvOrDefault(EnvLogLevel, c.Logging.Level)
	c.Export.Theme = getEnvOrDefault(EnvTheme, c.Export.Theme)
	c.Output.Format = getEnvOrDefault(EnvFormat, c.Output.Format)
}

func getEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Validate checks every section.
func (c File) Validate() error {
	formats := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		formats[i] = string(f)
	}
	err := validation.NewConfigValidator("config").
		OneOf("logging.level", strings.ToLower(c.Logging.Level), []string{"debug", "info", "warn", "warning", "error"}).
		OneOf("output.graph", c.Output.Graph, graphKinds).
		OneOf("output.format", c.Output.Format, formats).
		NonNegative("workers", c.Workers).
		Custom("dependency", c.Dependency.Validate).
		Custom("topology", c.Topology.Validate).
		Custom("interaction", c.Interaction.Validate).
		Custom("export", c.Export.Validate).
		Custom("server.tls", c.Server.TLS.Validate).
		RangeInt("server.maxQueryDepth", c.Server.MaxQueryDepth, 1, 32).
		Custom("constraints", func() error { return constraints.ValidateSpecs(c.Constraints) }).
		Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// EngineOptions wires the configured stages to logger and registry.
func (c File) EngineOptions(logger logging.Logger, reg *metrics.Registry) engine.Options {
	return engine.Options{
		Layout:      c.Dependency,
		Topology:    c.Topology,
		Interaction: c.Interaction,
		Constraints: c.Constraints,
		Logger:      logger,
		Metrics:     reg,
	}
}

// ExportConfig returns the export section wired to logger and registry.
func (c File) ExportConfig(logger logging.Logger, reg *metrics.Registry) export.ExportConfig {
	ec := c.Export
	ec.Logger = logger
	ec.Metrics = reg
	return ec
}
