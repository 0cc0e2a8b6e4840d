package valuation

import "context"

// Scorer runs the trained models on an encoded feature vector.
type Scorer interface {
	Score(ctx context.Context, features Features) (Scores, error)
}

// HistoryRepository persists completed predictions.
type HistoryRepository interface {
	Record(ctx context.Context, record Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Nearest(ctx context.Context, vector []float32, k int) ([]Comparable, error)
}

// SampleArchive stores prediction samples for later retraining.
type SampleArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// EventPublisher announces completed predictions.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}
