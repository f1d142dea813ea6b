package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		basePath string
		deps     int
		wantErr  bool
	}{
		{
			name:     "json",
			input:    `{"basePath":"com/example","dependencies":{"billing":{"path":"billing"}}}`,
			basePath: "com/example",
			deps:     1,
		},
		{
			name: "yaml with this",
			input: `
this: com/example/ledger
dependencies:
  billing:
    path: billing
  fraud:
    path: fraud
`,
			basePath: "com/example/ledger",
			deps:     2,
		},
		{
			name:    "unknown field",
			input:   `{"basePath":"x","unexpected":true}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDescriptor([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.basePath, d.BasePath)
			assert.Len(t, d.Dependencies, tt.deps)
		})
	}
}

func TestApplyDescriptor_Conflict(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.BasePath = "from/config"
	cfg.Dependencies = map[string]DependencyConfig{"billing": {Path: "a"}}

	err := cfg.ApplyDescriptor(&Descriptor{
		BasePath:     "from/descriptor",
		Dependencies: map[string]DependencyConfig{"billing": {Path: "b"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependencies.billing")
	assert.Equal(t, "from/config", cfg.BasePath)
}

func TestApplyDescriptor_Nil(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.NoError(t, cfg.ApplyDescriptor(nil))
}
