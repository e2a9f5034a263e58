package corpus

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelayejinyi/mfv-labeller/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleCSV = `foundation,label,title,description,scenario,source
care,original,T0,D0,S0,mfv
care,generated,T1,D1,S1,llm
fairness,generated,T2,D2,S2,llm
,original,T3,D3,S3,mfv
authority,weird,T4,D4,S4,llm
fairness,original,T5,D5,S5,mfv
`

func TestReadAssignsDenseIDs(t *testing.T) {
	idx, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Equal(t, 6, idx.Len())
	for i, s := range idx.All() {
		assert.Equal(t, i, s.ID)
	}
}

func TestReadNormalization(t *testing.T) {
	idx, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	missing, ok := idx.Get(3)
	require.True(t, ok)
	assert.Equal(t, models.MissingFoundation, missing.Foundation)
	assert.Equal(t, models.LabelOriginal, missing.Label)

	// Unrecognized labels fall back to generated.
	weird, ok := idx.Get(4)
	require.True(t, ok)
	assert.Equal(t, models.LabelGenerated, weird.Label)
}

func TestReadFoundationsSorted(t *testing.T) {
	idx, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{models.MissingFoundation, "authority", "care", "fairness"}, idx.Foundations())
}

func TestReadKeepsExtraColumnsInMeta(t *testing.T) {
	idx, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	s, ok := idx.Get(0)
	require.True(t, ok)
	assert.Equal(t, "mfv", s.Meta["source"])
	assert.Equal(t, "T0", s.Title)
	assert.Equal(t, "D0", s.Description)
	assert.Equal(t, "S0", s.Scenario)
}

func TestLookups(t *testing.T) {
	idx, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	careOriginal := idx.ByFoundationAndLabel("care", models.LabelOriginal)
	require.Len(t, careOriginal, 1)
	assert.Equal(t, 0, careOriginal[0].ID)

	originals := idx.ByLabel(models.LabelOriginal)
	ids := make([]int, 0, len(originals))
	for _, s := range originals {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []int{0, 3, 5}, ids)

	assert.Empty(t, idx.ByFoundationAndLabel("authority", models.LabelOriginal))
}

func TestSummary(t *testing.T) {
	idx, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	summary := idx.Summary()
	require.Len(t, summary, 4)
	assert.Equal(t, LabelCounts{Foundation: "care", Original: 1, Generated: 1, Total: 2}, summary[2])
	assert.Equal(t, LabelCounts{Foundation: "fairness", Original: 1, Generated: 1, Total: 2}, summary[3])
}

func TestReadEmptyCorpus(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)

	// A header with no data rows is still empty.
	_, err = Read(strings.NewReader("foundation,label,title\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), zap.NewNop())
	assert.Error(t, err)
}

func TestGetOutOfRange(t *testing.T) {
	idx, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	_, ok := idx.Get(-1)
	assert.False(t, ok)
	_, ok = idx.Get(idx.Len())
	assert.False(t, ok)
}
