package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: \"\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "./MFV130Gen.csv", cfg.Corpus.CSVPath)
	assert.Equal(t, "./data/data.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Study.OriginalCount)
	assert.Equal(t, 20, cfg.Study.GeneratedCount)
	require.NotNil(t, cfg.Study.AcceptUnassignedRatings)
	assert.True(t, *cfg.Study.AcceptUnassignedRatings)
	assert.Equal(t, "./static", cfg.Static.Dir)
}

func TestLoadConfigExplicitValues(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  port: "9000"
corpus:
  csv_path: "/srv/corpus.csv"
study:
  original_count: 4
  generated_count: 8
  accept_unassigned_ratings: false
`))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/srv/corpus.csv", cfg.Corpus.CSVPath)
	assert.Equal(t, 4, cfg.Study.OriginalCount)
	assert.Equal(t, 8, cfg.Study.GeneratedCount)
	require.NotNil(t, cfg.Study.AcceptUnassignedRatings)
	assert.False(t, *cfg.Study.AcceptUnassignedRatings)
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("STUDY_DATA", "/var/study")

	cfg, err := LoadConfig(writeConfig(t, `
database:
  path: "${STUDY_DATA}/data.db"
`))
	require.NoError(t, err)
	assert.Equal(t, "/var/study/data.db", cfg.Database.Path)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
