package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/angelayejinyi/mfv-labeller/internal/models"

	"go.uber.org/zap"
)

// Index is the in-memory content pool. It is built once at startup and
// never mutated afterward, so concurrent reads need no locking.
type Index struct {
	samples     []models.Sample
	foundations []string
	byPool      map[poolKey][]models.Sample
	byLabel     map[models.Label][]models.Sample
}

type poolKey struct {
	foundation string
	label      models.Label
}

// textColumns are lifted into dedicated Sample fields; all other CSV
// columns are preserved in Meta.
var textColumns = map[string]bool{
	"foundation":  true,
	"label":       true,
	"title":       true,
	"description": true,
	"scenario":    true,
}

// Load reads the sample pool CSV and builds the index. Sample ids are
// the 0-based data row ordinals. A missing or empty file is an error;
// callers treat it as fatal.
func Load(path string, logger *zap.Logger) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer file.Close()

	idx, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus from %s: %w", path, err)
	}

	logger.Info("Corpus loaded",
		zap.String("path", path),
		zap.Int("samples", len(idx.samples)),
		zap.Strings("foundations", idx.foundations))

	return idx, nil
}

// Read parses CSV rows from r and builds the index. Exposed separately
// from Load so tests can build corpora from in-memory data.
func Read(r io.Reader) (*Index, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("corpus is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := &Index{
		byPool:  make(map[poolKey][]models.Sample),
		byLabel: make(map[models.Label][]models.Sample),
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(idx.samples), err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}

		foundation := strings.TrimSpace(row["foundation"])
		if foundation == "" {
			foundation = models.MissingFoundation
		}
		label := models.NormalizeLabel(strings.ToLower(strings.TrimSpace(row["label"])))

		meta := make(map[string]string)
		for k, v := range row {
			if !textColumns[k] {
				meta[k] = v
			}
		}

		sample := models.Sample{
			ID:          len(idx.samples),
			Foundation:  foundation,
			Label:       label,
			Title:       row["title"],
			Description: row["description"],
			Scenario:    row["scenario"],
			Meta:        meta,
		}

		idx.samples = append(idx.samples, sample)
		key := poolKey{foundation: foundation, label: label}
		idx.byPool[key] = append(idx.byPool[key], sample)
		idx.byLabel[label] = append(idx.byLabel[label], sample)
	}

	if len(idx.samples) == 0 {
		return nil, fmt.Errorf("corpus is empty")
	}

	seen := make(map[string]bool)
	for _, s := range idx.samples {
		if !seen[s.Foundation] {
			seen[s.Foundation] = true
			idx.foundations = append(idx.foundations, s.Foundation)
		}
	}
	sort.Strings(idx.foundations)

	return idx, nil
}

// Foundations returns the sorted distinct foundation set.
func (idx *Index) Foundations() []string {
	return idx.foundations
}

// ByFoundationAndLabel returns samples matching both, in load order.
func (idx *Index) ByFoundationAndLabel(foundation string, label models.Label) []models.Sample {
	return idx.byPool[poolKey{foundation: foundation, label: label}]
}

// ByLabel returns all samples of the label across all foundations; this
// is the fallback pool when a foundation runs short.
func (idx *Index) ByLabel(label models.Label) []models.Sample {
	return idx.byLabel[label]
}

// All returns every sample in load order.
func (idx *Index) All() []models.Sample {
	return idx.samples
}

// Get returns the sample with the given id.
func (idx *Index) Get(id int) (models.Sample, bool) {
	if id < 0 || id >= len(idx.samples) {
		return models.Sample{}, false
	}
	return idx.samples[id], true
}

// Len returns the number of loaded samples.
func (idx *Index) Len() int {
	return len(idx.samples)
}

// LabelCounts holds per-foundation label frequencies.
type LabelCounts struct {
	Foundation string `json:"foundation"`
	Original   int    `json:"original"`
	Generated  int    `json:"generated"`
	Total      int    `json:"total"`
}

// Summary returns label frequencies per foundation, sorted by
// foundation name.
func (idx *Index) Summary() []LabelCounts {
	out := make([]LabelCounts, 0, len(idx.foundations))
	for _, f := range idx.foundations {
		orig := len(idx.byPool[poolKey{foundation: f, label: models.LabelOriginal}])
		gen := len(idx.byPool[poolKey{foundation: f, label: models.LabelGenerated}])
		out = append(out, LabelCounts{
			Foundation: f,
			Original:   orig,
			Generated:  gen,
			Total:      orig + gen,
		})
	}
	return out
}
