package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-policygraph/pkg/constraints"
)

const sample = `
logging:
  level: debug
dependency:
  baseSize: 40
  highlightCycles: true
interaction:
  conflictThreshold: 0.75
  crossNamespace: true
export:
  theme: dark
  layout: circular
  showLegend: true
output:
  graph: interaction
  format: dot
  destination: s3://bucket/graph.dot
  compress: true
workers: 4
server:
  tokenTTL: 2h
  maxQueryDepth: 6
  tls:
    selfSigned: true
    hosts: [policygraph.internal]
constraints:
  - type: property
    kind: policy
    property: labels.severity
    required: true
    severity: error
  - type: cardinality
    graph: topology
    kind: pod
    edgeType: ingress
    min: 1
`

func TestRead(t *testing.T) {
	cfg, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 40, cfg.Dependency.BaseSize)
	assert.True(t, cfg.Dependency.HighlightCycles)
	assert.Equal(t, 0.75, cfg.Interaction.ConflictThreshold)
	assert.Equal(t, "dark", cfg.Export.Theme)
	assert.Equal(t, "circular", cfg.Export.Layout)
	assert.Equal(t, GraphInteraction, cfg.Output.Graph)
	assert.Equal(t, "s3://bucket/graph.dot", cfg.Output.Destination)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2*time.Hour, cfg.Server.TokenTTL)
	assert.Equal(t, 6, cfg.Server.MaxQueryDepth)
	assert.True(t, cfg.Server.TLS.SelfSigned)
	require.NoError(t, cfg.Validate())

	opts := cfg.EngineOptions(nil, nil)
	assert.Equal(t, 40, opts.Layout.BaseSize)
	assert.True(t, opts.Interaction.CrossNamespace)
	require.Len(t, opts.Constraints, 2)
	assert.Equal(t, "labels.severity", opts.Constraints[0].Property)
	assert.Equal(t, 1, opts.Constraints[1].Min)
}

func TestRead_Empty(t *testing.T) {
	cfg, err := Read(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestRead_UnknownField(t *testing.T) {
	_, err := Read(strings.NewReader("exprot:\n  theme: dark\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policygraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dot", cfg.Output.Format)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvTheme, "colorblind")
	t.Setenv(EnvFormat, "")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "colorblind", cfg.Export.Theme)
	assert.Equal(t, "json", cfg.Output.Format, "empty variables do not override")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*File)
	}{
		{"log level", func(f *File) { f.Logging.Level = "loud" }},
		{"graph kind", func(f *File) { f.Output.Graph = "callgraph" }},
		{"format", func(f *File) { f.Output.Format = "png" }},
		{"workers", func(f *File) { f.Workers = -1 }},
		{"threshold", func(f *File) { f.Interaction.ConflictThreshold = 2 }},
		{"layout", func(f *File) { f.Export.Layout = "spiral" }},
		{"base size", func(f *File) { f.Dependency.BaseSize = -3 }},
		{"query depth", func(f *File) { f.Server.MaxQueryDepth = 0 }},
		{"tls pair", func(f *File) { f.Server.TLS.KeyFile = "key.pem" }},
		{"constraint", func(f *File) { f.Constraints = []constraints.Spec{{Type: "property"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
