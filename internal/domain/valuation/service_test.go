package valuation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/flat-price/pkg/errors"
)

func TestServicePredictSuccess(t *testing.T) {
	scorer := &stubScorer{scores: Scores{LinearRegression: 42.1, GBM: 40.3, XGBM: 41.7}}
	history := &stubHistory{}
	archive := &stubArchive{}
	publisher := &stubPublisher{}
	svc := newServiceUnderTest(scorer, history, archive, publisher)

	resp, err := svc.Predict(context.Background(), rawSample())
	require.NoError(t, err)
	require.Equal(t, Response{PredictedPrice: 42.1, PredictedPriceGBM: 40.3, PredictedPriceXGBM: 41.7}, resp)

	require.Equal(t, 1134.0, *scorer.last.Get("postcode"))
	svc.pending.Wait()
	require.Len(t, history.records, 1)
	require.Equal(t, "rec-1", history.records[0].ID)
	require.Equal(t, "54", history.records[0].Form["property_area"])
	require.Equal(t, []string{"archive/2024/01/11/rec-1.json"}, archive.keys)
	require.Equal(t, []string{"rec-1"}, publisher.keys)
}

func TestServicePredictMissingFields(t *testing.T) {
	raw := rawSample()
	delete(raw, "heating_type")
	delete(raw, "city")
	svc := newServiceUnderTest(&stubScorer{}, &stubHistory{}, &stubArchive{}, &stubPublisher{})

	_, err := svc.Predict(context.Background(), raw)
	require.True(t, apperrors.IsCode(err, apperrors.CodeMissingFields))
	require.ErrorContains(t, err, MissingFieldsMessage)
	require.ErrorContains(t, err, "city,heating_type")
}

func TestServicePredictInvalidNumber(t *testing.T) {
	raw := rawSample()
	raw["room_cnt"] = "two"
	scorer := &stubScorer{}
	svc := newServiceUnderTest(scorer, &stubHistory{}, &stubArchive{}, &stubPublisher{})

	_, err := svc.Predict(context.Background(), raw)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Equal(t, 0, scorer.calls)
}

func TestServicePredictAcceptsJSONNumbers(t *testing.T) {
	raw := rawSample()
	raw["room_cnt"] = float64(3)
	raw["city"] = nil
	scorer := &stubScorer{}
	svc := newServiceUnderTest(scorer, &stubHistory{}, &stubArchive{}, &stubPublisher{})

	_, err := svc.Predict(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, 3.0, *scorer.last.Get("room_cnt"))
	svc.pending.Wait()
}

func TestServicePredictKeepsNullDistinctFromEmpty(t *testing.T) {
	scorer := &stubScorer{}
	svc := newServiceUnderTest(scorer, &stubHistory{}, &stubArchive{}, &stubPublisher{})

	raw := rawSample()
	raw["orientation"] = nil
	_, err := svc.Predict(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, 0.0, *scorer.last.Get("orientation"))
	svc.pending.Wait()

	raw["orientation"] = ""
	_, err = svc.Predict(context.Background(), raw)
	require.NoError(t, err)
	require.Nil(t, scorer.last.Get("orientation"))
	svc.pending.Wait()
}

func TestServicePredictInferenceFailure(t *testing.T) {
	history := &stubHistory{}
	svc := newServiceUnderTest(&stubScorer{err: errors.New("status=503")}, history, &stubArchive{}, &stubPublisher{})

	_, err := svc.Predict(context.Background(), rawSample())
	require.True(t, apperrors.IsCode(err, apperrors.CodeInferenceFailed))
	require.Empty(t, history.records)
}

func TestServicePredictIgnoresSideEffectFailures(t *testing.T) {
	svc := newServiceUnderTest(
		&stubScorer{scores: Scores{LinearRegression: 1}},
		&stubHistory{err: errors.New("db down")},
		&stubArchive{err: errors.New("bucket gone")},
		&stubPublisher{err: errors.New("broker down")},
	)
	resp, err := svc.Predict(context.Background(), rawSample())
	require.NoError(t, err)
	require.Equal(t, 1.0, resp.PredictedPrice)
	svc.pending.Wait()
}

func TestServicePredictDoesNotWaitForSideEffects(t *testing.T) {
	release := make(chan struct{})
	history := &stubHistory{block: release}
	svc := newServiceUnderTest(&stubScorer{scores: Scores{LinearRegression: 1, GBM: 2, XGBM: 3}}, history, &stubArchive{}, &stubPublisher{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Predict(context.Background(), rawSample())
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("predict waited for the history write")
	}

	close(release)
	svc.pending.Wait()
	require.Len(t, history.records, 1)
}

func TestServiceRecentClampsLimit(t *testing.T) {
	history := &stubHistory{}
	svc := newServiceUnderTest(&stubScorer{}, history, &stubArchive{}, &stubPublisher{})

	_, err := svc.Recent(context.Background(), 500)
	require.NoError(t, err)
	require.Equal(t, 5, history.lastLimit)
}

func TestServiceComparables(t *testing.T) {
	history := &stubHistory{nearest: []Comparable{{Record: Record{ID: "old"}, Distance: 1.5}}}
	svc := newServiceUnderTest(&stubScorer{}, history, &stubArchive{}, &stubPublisher{})

	matches, err := svc.Comparables(context.Background(), rawSample(), 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, 3, history.lastK)
	require.Len(t, history.lastVector, len(FeatureNames))
	require.Equal(t, float32(1134), history.lastVector[0])
}

func rawSample() map[string]any {
	out := make(map[string]any)
	for k, v := range sampleForm() {
		out[k] = v
	}
	return out
}

func newServiceUnderTest(scorer Scorer, history HistoryRepository, archive SampleArchive, publisher EventPublisher) *service {
	return &service{
		cfg:       Config{RecentLimit: 5, MaxComparables: 3, ArchivePrefix: "archive"},
		scorer:    scorer,
		history:   history,
		archive:   archive,
		publisher: publisher,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       func() time.Time { return time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC) },
		newID:     func() string { return "rec-1" },
	}
}

type stubScorer struct {
	scores Scores
	err    error
	last   Features
	calls  int
}

func (s *stubScorer) Score(_ context.Context, features Features) (Scores, error) {
	s.calls++
	s.last = features
	return s.scores, s.err
}

type stubHistory struct {
	records    []Record
	nearest    []Comparable
	err        error
	lastLimit  int
	lastK      int
	lastVector []float32
	block      chan struct{}
}

func (s *stubHistory) Record(_ context.Context, record Record) error {
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *stubHistory) Recent(_ context.Context, limit int) ([]Record, error) {
	s.lastLimit = limit
	return s.records, s.err
}

func (s *stubHistory) Nearest(_ context.Context, vector []float32, k int) ([]Comparable, error) {
	s.lastVector = vector
	s.lastK = k
	return s.nearest, s.err
}

type stubArchive struct {
	keys []string
	err  error
}

func (s *stubArchive) Put(_ context.Context, key string, _ []byte, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	return nil
}

type stubPublisher struct {
	keys []string
	err  error
}

func (s *stubPublisher) Publish(_ context.Context, key string, _ []byte) error {
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	return nil
}
