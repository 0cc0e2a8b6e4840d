package predictionform

import (
	"context"
	"time"
)

// Store persists sessions and the per-session submission guard.
type Store interface {
	Get(ctx context.Context, id string) (Session, bool, error)
	Save(ctx context.Context, session Session, ttl time.Duration) error
	// Update reads the session, passes it to fn and writes fn's result, atomically
	// with respect to other Updates of the same id. found is false when the session
	// is missing or expired. An error from fn aborts the write.
	Update(ctx context.Context, id string, ttl time.Duration, fn func(current Session, found bool) (Session, error)) (Session, error)
	// AcquireSubmit marks a submission as in flight. It returns false when one already is.
	AcquireSubmit(ctx context.Context, id string, ttl time.Duration) (bool, error)
	ReleaseSubmit(ctx context.Context, id string) error
}

// Predictor sends a form to the prediction endpoint.
type Predictor interface {
	Predict(ctx context.Context, form FormState) (PredictionResult, error)
}

// Config wires runtime settings for the form service.
type Config struct {
	SessionTTL     time.Duration
	ToastDuration  time.Duration
	SubmitGuardTTL time.Duration
}
