package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAnalysisConfig(t *testing.T) {
	cfg := DefaultAnalysisConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"_id$", "_fk$", "Id$"}, cfg.FKColumnPatterns)
	assert.Equal(t, 0.8, cfg.SimilarityThreshold)
	assert.Equal(t, []string{"public"}, cfg.Schemas)
	assert.Zero(t, cfg.MaxTables)
	assert.False(t, cfg.IncludeViews)
}

func TestAnalysisConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AnalysisConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *AnalysisConfig) {},
		},
		{
			name:    "bad regexp",
			mutate:  func(c *AnalysisConfig) { c.FKColumnPatterns = []string{"(unclosed"} },
			wantErr: "invalid fk column pattern",
		},
		{
			name:    "threshold below range",
			mutate:  func(c *AnalysisConfig) { c.SimilarityThreshold = -0.1 },
			wantErr: "out of range",
		},
		{
			name:    "threshold above range",
			mutate:  func(c *AnalysisConfig) { c.SimilarityThreshold = 1.5 },
			wantErr: "out of range",
		},
		{
			name:   "threshold boundaries allowed",
			mutate: func(c *AnalysisConfig) { c.SimilarityThreshold = 1.0 },
		},
		{
			name:    "negative max tables",
			mutate:  func(c *AnalysisConfig) { c.MaxTables = -1 },
			wantErr: "must not be negative",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultAnalysisConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDefaultOutputConfig(t *testing.T) {
	cfg := DefaultOutputConfig()

	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "metadata_report.md", cfg.MetadataReportName)
	assert.Equal(t, "ontology_report.md", cfg.OntologyReportName)
	assert.Equal(t, "ontology.json", cfg.OntologyJSONName)
	assert.Equal(t, "pipelines.sql", cfg.PipelineSQLName)
}

func TestDefaultNeo4jConfig(t *testing.T) {
	cfg := DefaultNeo4jConfig()

	assert.Equal(t, "bolt://localhost:7687", cfg.URI)
	assert.Equal(t, "neo4j", cfg.User)
	assert.Equal(t, "neo4j", cfg.Database)
	assert.Empty(t, cfg.Password)
}
