package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/flat-price/pkg/errors"
	"github.com/yanqian/flat-price/pkg/util"
)

// MissingFieldsMessage is the error body returned when a request lacks form keys.
const MissingFieldsMessage = "Missing required fields"

// Service exposes the predict endpoint and its history.
type Service interface {
	Predict(ctx context.Context, raw map[string]any) (Response, error)
	Recent(ctx context.Context, limit int) ([]Record, error)
	Comparables(ctx context.Context, raw map[string]any, k int) ([]Comparable, error)
	// Wait blocks until every post-prediction write has finished.
	Wait()
}

type service struct {
	cfg       Config
	scorer    Scorer
	history   HistoryRepository
	archive   SampleArchive
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	pending sync.WaitGroup
}

func (s *service) Wait() {
	s.pending.Wait()
}

// NewService wires up the valuation domain.
func NewService(cfg Config, scorer Scorer, history HistoryRepository, archive SampleArchive, publisher EventPublisher, logger *slog.Logger) Service {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 20
	}
	if cfg.MaxComparables <= 0 {
		cfg.MaxComparables = 10
	}
	return &service{
		cfg:       cfg,
		scorer:    scorer,
		history:   history,
		archive:   archive,
		publisher: publisher,
		logger:    logger.With("component", "valuation.service"),
		now:       util.NowUTC,
		newID:     uuid.NewString,
	}
}

func (s *service) Predict(ctx context.Context, raw map[string]any) (Response, error) {
	form, features, err := s.prepare(raw)
	if err != nil {
		return Response{}, err
	}

	scores, err := s.scorer.Score(ctx, features)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInferenceFailed, "model inference failed", err)
	}

	record := Record{
		ID:        s.newID(),
		Form:      form,
		Features:  features,
		Scores:    scores,
		CreatedAt: s.now(),
	}
	// Side effects never delay or fail the response.
	s.pending.Add(1)
	go func(ctx context.Context) {
		defer s.pending.Done()
		s.recordCompleted(ctx, record)
	}(context.WithoutCancel(ctx))

	return Response{
		PredictedPrice:     scores.LinearRegression,
		PredictedPriceGBM:  scores.GBM,
		PredictedPriceXGBM: scores.XGBM,
	}, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > s.cfg.RecentLimit {
		limit = s.cfg.RecentLimit
	}
	records, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeHistoryError, "load recent predictions failed", err)
	}
	return records, nil
}

func (s *service) Comparables(ctx context.Context, raw map[string]any, k int) ([]Comparable, error) {
	_, features, err := s.prepare(raw)
	if err != nil {
		return nil, err
	}
	if k <= 0 || k > s.cfg.MaxComparables {
		k = s.cfg.MaxComparables
	}
	matches, err := s.history.Nearest(ctx, features.Vector(), k)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeHistoryError, "comparables lookup failed", err)
	}
	return matches, nil
}

func (s *service) prepare(raw map[string]any) (map[string]string, Features, error) {
	if missing := missingFields(raw); len(missing) > 0 {
		return nil, nil, apperrors.Wrap(apperrors.CodeMissingFields, MissingFieldsMessage, fmt.Errorf("missing %s", strings.Join(missing, ",")))
	}
	form := stringify(raw)
	features, err := Encode(form, s.now())
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid listing attributes", err)
	}
	return form, features, nil
}

// recordCompleted fans the record out to history, archive and events. None of these
// affect the response.
func (s *service) recordCompleted(ctx context.Context, record Record) {
	if err := s.history.Record(ctx, record); err != nil {
		s.logger.Error("record prediction failed", "prediction_id", record.ID, "error", err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		s.logger.Error("encode prediction record failed", "prediction_id", record.ID, "error", err)
		return
	}
	key := s.archiveKey(record)
	if err := s.archive.Put(ctx, key, payload, "application/json"); err != nil {
		s.logger.Warn("archive prediction sample failed", "prediction_id", record.ID, "key", key, "error", err)
	}
	if err := s.publisher.Publish(ctx, record.ID, payload); err != nil {
		s.logger.Warn("publish prediction event failed", "prediction_id", record.ID, "error", err)
	}
	s.logger.Info("prediction completed",
		"prediction_id", record.ID,
		"lr", record.Scores.LinearRegression,
		"gbm", record.Scores.GBM,
		"xgbm", record.Scores.XGBM,
	)
}

func (s *service) archiveKey(record Record) string {
	prefix := strings.Trim(s.cfg.ArchivePrefix, "/")
	if prefix == "" {
		prefix = "samples"
	}
	return fmt.Sprintf("%s/%s/%s.json", prefix, record.CreatedAt.Format("2006/01/02"), record.ID)
}

func missingFields(raw map[string]any) []string {
	var missing []string
	for _, name := range RequiredFields {
		if _, ok := raw[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// stringify coerces JSON values to the strings the encoder expects. JSON nulls are
// left out so the encoder can tell them from empty strings.
func stringify(raw map[string]any) map[string]string {
	out := make(map[string]string, len(RequiredFields))
	for _, name := range RequiredFields {
		switch v := raw[name].(type) {
		case nil:
			continue
		case string:
			out[name] = v
		case float64:
			out[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			out[name] = v.String()
		case bool:
			out[name] = strconv.FormatBool(v)
		default:
			out[name] = fmt.Sprint(v)
		}
	}
	return out
}

