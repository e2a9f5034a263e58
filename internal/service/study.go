package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/angelayejinyi/mfv-labeller/internal/assignment"
	"github.com/angelayejinyi/mfv-labeller/internal/corpus"
	"github.com/angelayejinyi/mfv-labeller/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRating is returned when a rating falls outside [0, 4].
	ErrInvalidRating = errors.New("rating must be between 0 and 4")

	// ErrUnassignedSample is returned for ratings on samples outside
	// the participant's assignment, but only when the study is
	// configured to reject them.
	ErrUnassignedSample = errors.New("sample is not in the participant's assignment")
)

// ParticipantStore is the persistence contract the study needs. The
// SQLite repository satisfies it.
type ParticipantStore interface {
	CreateParticipant(p *models.Participant) error
	GetParticipant(id string) (*models.Participant, error)
	PairCounts() (map[models.FoundationPair]int, error)
	SaveResponse(resp *models.Response) error
	RecentResponses(limit int) ([]models.Response, error)
	AllResponses() ([]models.Response, error)
}

// Options configures a Study.
type Options struct {
	// OriginalQuota and GeneratedQuota are the per-label sample counts
	// each participant receives.
	OriginalQuota  int
	GeneratedQuota int

	// AcceptUnassignedRatings keeps the historical leniency of
	// accepting ratings for samples outside the participant's
	// assignment. When false such ratings are rejected with
	// ErrUnassignedSample.
	AcceptUnassignedRatings bool
}

// Study implements registration, sample retrieval, rating submission
// and the admin reports.
type Study struct {
	corpus  *corpus.Index
	store   ParticipantStore
	sampler *assignment.Sampler
	opts    Options
	logger  *zap.Logger

	// mu serializes the read-counts / choose-pair / persist sequence so
	// concurrent registrations cannot both observe the same minimal
	// pair set. It also guards rng.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStudy creates the study service. The random source is injected so
// tests can seed it; it must not be shared with other users.
func NewStudy(idx *corpus.Index, store ParticipantStore, rng *rand.Rand, opts Options, logger *zap.Logger) *Study {
	return &Study{
		corpus:  idx,
		store:   store,
		sampler: assignment.NewSampler(idx, rng),
		opts:    opts,
		logger:  logger,
		rng:     rng,
	}
}

// Register creates a participant: picks the least-used foundation pair,
// draws their sample set, persists, and returns the full payload.
func (s *Study) Register(name string) (*models.ParticipantPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts, err := s.store.PairCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment counts: %w", err)
	}

	pair, err := assignment.ChoosePair(s.corpus.Foundations(), counts, s.rng)
	if err != nil {
		return nil, err
	}

	sampleIDs := s.sampler.Draw(pair, s.opts.OriginalQuota, s.opts.GeneratedQuota)
	if total := s.opts.OriginalQuota + s.opts.GeneratedQuota; len(sampleIDs) < total {
		s.logger.Warn("Corpus could not fill sample quota",
			zap.Int("want", total),
			zap.Int("got", len(sampleIDs)))
	}

	p := &models.Participant{
		ID:        uuid.New().String(),
		Pair:      pair,
		SampleIDs: sampleIDs,
		CreatedAt: time.Now().UTC(),
		Name:      name,
	}

	if err := s.store.CreateParticipant(p); err != nil {
		return nil, fmt.Errorf("failed to persist participant: %w", err)
	}

	s.logger.Info("Participant registered",
		zap.String("participant_id", p.ID),
		zap.Strings("pair", pair.Slice()),
		zap.Int("samples", len(sampleIDs)))

	return s.payload(p), nil
}

// ParticipantSamples returns the persisted assignment in its original
// order. Repeated calls return the identical sequence.
func (s *Study) ParticipantSamples(participantID string) (*models.ParticipantPayload, error) {
	p, err := s.store.GetParticipant(participantID)
	if err != nil {
		return nil, err
	}
	return s.payload(p), nil
}

// SubmitRating appends one rating. The rating must be in [0, 4] and the
// participant must exist. Whether the sample belongs to the
// participant's assignment is only enforced when
// AcceptUnassignedRatings is off; otherwise out-of-assignment ratings
// are accepted and logged.
func (s *Study) SubmitRating(participantID string, sampleID, rating int) error {
	if rating < 0 || rating > 4 {
		return ErrInvalidRating
	}

	p, err := s.store.GetParticipant(participantID)
	if err != nil {
		return err
	}

	assigned := false
	for _, id := range p.SampleIDs {
		if id == sampleID {
			assigned = true
			break
		}
	}
	if !assigned {
		if !s.opts.AcceptUnassignedRatings {
			return ErrUnassignedSample
		}
		s.logger.Warn("Rating for sample outside assignment",
			zap.String("participant_id", participantID),
			zap.Int("sample_id", sampleID))
	}

	resp := &models.Response{
		ParticipantID: participantID,
		SampleID:      sampleID,
		Rating:        rating,
		SubmittedAt:   time.Now().UTC(),
	}
	if err := s.store.SaveResponse(resp); err != nil {
		return fmt.Errorf("failed to persist response: %w", err)
	}
	return nil
}

// AssignmentReport aggregates pair and per-foundation assignment counts
// over all participants.
func (s *Study) AssignmentReport() (*models.AssignmentReport, error) {
	counts, err := s.store.PairCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment counts: %w", err)
	}

	report := &models.AssignmentReport{
		PairCounts:   make(map[string]int),
		SingleCounts: make(map[string]int),
	}
	for pair, n := range counts {
		report.PairCounts[pair.Key()] = n
		report.SingleCounts[pair.A] += n
		report.SingleCounts[pair.B] += n
	}
	return report, nil
}

// ResponsesReport returns per-foundation rating aggregates plus up to
// limit recent raw responses, newest first. Responses referencing
// unknown sample ids still appear in the raw list but are skipped in
// the aggregates.
func (s *Study) ResponsesReport(limit int) (*models.ResponsesReport, error) {
	recent, err := s.store.RecentResponses(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}

	report := &models.ResponsesReport{
		AggregatesByFoundation: make(map[string]*models.FoundationAggregate),
		RecentResponses:        recent,
	}
	for _, resp := range recent {
		sample, ok := s.corpus.Get(resp.SampleID)
		if !ok {
			continue
		}
		agg := report.AggregatesByFoundation[sample.Foundation]
		if agg == nil {
			agg = &models.FoundationAggregate{}
			report.AggregatesByFoundation[sample.Foundation] = agg
		}
		switch sample.Label {
		case models.LabelOriginal:
			agg.Original++
		case models.LabelGenerated:
			agg.Generated++
		}
		agg.Total++
	}
	return report, nil
}

// ExportResponsesCSV writes every response in submission order, joined
// with the rated sample's text columns.
func (s *Study) ExportResponsesCSV(w io.Writer) error {
	responses, err := s.store.AllResponses()
	if err != nil {
		return fmt.Errorf("failed to read responses: %w", err)
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"participant_id", "sample_id", "rating", "ts", "foundation", "label", "title", "scenario", "description"}); err != nil {
		return err
	}

	for _, resp := range responses {
		var foundation, label, title, scenario, description string
		if sample, ok := s.corpus.Get(resp.SampleID); ok {
			foundation = sample.Foundation
			label = string(sample.Label)
			title = sample.Title
			scenario = sample.Scenario
			description = sample.Description
		}
		record := []string{
			resp.ParticipantID,
			strconv.Itoa(resp.SampleID),
			strconv.Itoa(resp.Rating),
			resp.SubmittedAt.Format(time.RFC3339Nano),
			foundation,
			label,
			title,
			scenario,
			description,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// payload resolves the stored sample ids back into full sample records,
// preserving assignment order.
func (s *Study) payload(p *models.Participant) *models.ParticipantPayload {
	samples := make([]models.Sample, 0, len(p.SampleIDs))
	for _, id := range p.SampleIDs {
		if sample, ok := s.corpus.Get(id); ok {
			samples = append(samples, sample)
		}
	}
	return &models.ParticipantPayload{
		ParticipantID:       p.ID,
		AssignedFoundations: p.Pair.Slice(),
		Samples:             samples,
		Name:                p.Name,
	}
}
