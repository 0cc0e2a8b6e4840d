package predictionform

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/flat-price/pkg/errors"
)

// Service exposes the form session operations.
type Service interface {
	Open(ctx context.Context, id string) (Session, error)
	Change(ctx context.Context, id, field, value string) (Session, bool, error)
	Submit(ctx context.Context, id string) (Session, error)
	CloseOverlay(ctx context.Context, id string) (Session, error)
	CloseToast(ctx context.Context, id string) (Session, error)
}

type service struct {
	cfg       Config
	store     Store
	predictor Predictor
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires up the prediction form domain.
func NewService(cfg Config, store Store, predictor Predictor, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		store:     store,
		predictor: predictor,
		logger:    logger.With("component", "predictionform.service"),
		now:       time.Now,
	}
}

func (s *service) Open(ctx context.Context, id string) (Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Session{}, apperrors.Wrap(apperrors.CodeInvalidInput, "session id cannot be empty", nil)
	}
	session, found, err := s.store.Get(ctx, id)
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeSessionError, "load session failed", err)
	}
	if found {
		invalid := session.Form.Validate()
		if invalid == nil {
			return session, nil
		}
		s.logger.Warn("discarding corrupt session", "session_id", id, "error", invalid)
	}
	session = NewSession(id, s.now())
	if err := s.save(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

func (s *service) Change(ctx context.Context, id, field, value string) (Session, bool, error) {
	if !IsField(field) {
		return Session{}, false, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown field "+field, nil)
	}
	session, err := s.Open(ctx, id)
	if err != nil {
		return Session{}, false, err
	}
	if !AcceptsValue(field, value) {
		s.logger.Debug("rejected non-digit input", "session_id", session.ID, "field", field)
		return session, false, nil
	}
	session, err = s.update(ctx, session.ID, func(latest *Session) {
		latest.Form = latest.Form.With(field, value)
	})
	if err != nil {
		return Session{}, false, err
	}
	return session, true, nil
}

func (s *service) Submit(ctx context.Context, id string) (Session, error) {
	session, err := s.Open(ctx, id)
	if err != nil {
		return Session{}, err
	}

	acquired, err := s.store.AcquireSubmit(ctx, session.ID, s.cfg.SubmitGuardTTL)
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeSessionError, "acquire submit guard failed", err)
	}
	if !acquired {
		return session, apperrors.Wrap(apperrors.CodeSubmissionInFlight, "a submission is already in progress", nil)
	}
	defer func() {
		if err := s.store.ReleaseSubmit(context.WithoutCancel(ctx), session.ID); err != nil {
			s.logger.Error("release submit guard failed", "session_id", session.ID, "error", err)
		}
	}()

	start := s.now()
	result, predictErr := s.predictor.Predict(ctx, session.Form)

	if predictErr != nil {
		predictErr = apperrors.Wrap(apperrors.CodePredictionFailed, "prediction request failed", predictErr)
		s.logger.Error("form submission failed", "session_id", session.ID, "error", predictErr)
	} else {
		s.logger.Info("form submission succeeded", "session_id", session.ID, "latency_ms", s.now().Sub(start).Milliseconds())
	}

	// The form stays editable while the request is outstanding; only the outcome is
	// applied on top of whatever the session holds now.
	return s.update(context.WithoutCancel(ctx), session.ID, func(latest *Session) {
		if predictErr != nil {
			latest.Toast = newToast(SubmitErrorMessage, SeverityError, s.now(), s.cfg.ToastDuration)
			return
		}
		latest.Result = result
		latest.OverlayOpen = true
	})
}

func (s *service) CloseOverlay(ctx context.Context, id string) (Session, error) {
	return s.update(ctx, id, func(session *Session) {
		session.OverlayOpen = false
	})
}

func (s *service) CloseToast(ctx context.Context, id string) (Session, error) {
	return s.update(ctx, id, func(session *Session) {
		session.Toast.Open = false
	})
}

// update applies mutate to the stored session in one atomic store round trip. A
// missing or corrupt session is reset to its initial state first.
func (s *service) update(ctx context.Context, id string, mutate func(*Session)) (Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Session{}, apperrors.Wrap(apperrors.CodeInvalidInput, "session id cannot be empty", nil)
	}
	session, err := s.store.Update(ctx, id, s.cfg.SessionTTL, func(current Session, found bool) (Session, error) {
		if found {
			if invalid := current.Form.Validate(); invalid != nil {
				s.logger.Warn("discarding corrupt session", "session_id", id, "error", invalid)
				found = false
			}
		}
		if !found {
			current = NewSession(id, s.now())
		}
		mutate(&current)
		current.UpdatedAt = s.now()
		return current, nil
	})
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeSessionError, "update session failed", err)
	}
	return session, nil
}

func (s *service) save(ctx context.Context, session Session) error {
	if err := s.store.Save(ctx, session, s.cfg.SessionTTL); err != nil {
		return apperrors.Wrap(apperrors.CodeSessionError, "save session failed", err)
	}
	return nil
}
