package formstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/flat-price/internal/domain/predictionform"
)

// maxUpdateAttempts bounds the optimistic WATCH retries of one Update.
const maxUpdateAttempts = 8

// ErrUpdateConflict is returned when a session kept changing under every Update attempt.
var ErrUpdateConflict = errors.New("session changed concurrently")

// commander is the part of valkey.Client and valkey.DedicatedClient the store needs.
type commander interface {
	B() valkey.Builder
	Do(ctx context.Context, cmd valkey.Completed) valkey.ValkeyResult
}

// ValkeyStore persists form sessions in a Valkey-compatible database so that
// several instances can serve the same browser session.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "form"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, id string) (predictionform.Session, bool, error) {
	return s.get(ctx, s.client, id)
}

func (s *ValkeyStore) get(ctx context.Context, c commander, id string) (predictionform.Session, bool, error) {
	result := c.Do(ctx, c.B().Get().Key(s.sessionKey(id)).Build())
	payload, err := result.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return predictionform.Session{}, false, nil
		}
		return predictionform.Session{}, false, err
	}
	var session predictionform.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return predictionform.Session{}, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, true, nil
}

func (s *ValkeyStore) Save(ctx context.Context, session predictionform.Session, ttl time.Duration) error {
	cmd, err := s.setCmd(s.client, session, ttl)
	if err != nil {
		return err
	}
	return s.client.Do(ctx, cmd).Error()
}

// Update is an optimistic WATCH/MULTI/EXEC transaction on a dedicated connection.
// EXEC aborts when another writer touched the key after WATCH, and the read and
// fn are retried against the newer value.
func (s *ValkeyStore) Update(ctx context.Context, id string, ttl time.Duration, fn func(predictionform.Session, bool) (predictionform.Session, error)) (predictionform.Session, error) {
	key := s.sessionKey(id)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var (
			next      predictionform.Session
			committed bool
		)
		err := s.client.Dedicated(func(c valkey.DedicatedClient) error {
			if err := c.Do(ctx, c.B().Watch().Key(key).Build()).Error(); err != nil {
				return err
			}
			current, found, err := s.get(ctx, c, id)
			if err == nil {
				next, err = fn(current, found)
			}
			if err != nil {
				c.Do(ctx, c.B().Unwatch().Build())
				return err
			}
			next.ID = id
			set, err := s.setCmd(c, next, ttl)
			if err != nil {
				c.Do(ctx, c.B().Unwatch().Build())
				return err
			}
			resps := c.DoMulti(ctx, c.B().Multi().Build(), set, c.B().Exec().Build())
			if err := resps[len(resps)-1].Error(); err != nil {
				if valkey.IsValkeyNil(err) {
					return nil
				}
				return err
			}
			committed = true
			return nil
		})
		if err != nil {
			return predictionform.Session{}, err
		}
		if committed {
			return next, nil
		}
	}
	return predictionform.Session{}, fmt.Errorf("update session %s: %w", id, ErrUpdateConflict)
}

func (s *ValkeyStore) setCmd(c commander, session predictionform.Session, ttl time.Duration) (valkey.Completed, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return valkey.Completed{}, err
	}
	builder := c.B().Set().Key(s.sessionKey(session.ID)).Value(string(payload))
	if ttl > 0 {
		return builder.Ex(atLeastSecond(ttl)).Build(), nil
	}
	return builder.Build(), nil
}

func (s *ValkeyStore) AcquireSubmit(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	builder := s.client.B().Set().Key(s.guardKey(id)).Value("1").Nx()
	var cmd valkey.Completed
	if ttl > 0 {
		cmd = builder.Ex(atLeastSecond(ttl)).Build()
	} else {
		cmd = builder.Build()
	}
	err := s.client.Do(ctx, cmd).Error()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *ValkeyStore) ReleaseSubmit(ctx context.Context, id string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.guardKey(id)).Build()).Error()
}

func (s *ValkeyStore) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

func (s *ValkeyStore) guardKey(id string) string {
	return fmt.Sprintf("%s:submit:%s", s.prefix, id)
}

func atLeastSecond(ttl time.Duration) time.Duration {
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

// Ping checks connectivity for the readiness endpoint.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Close releases the underlying client.
func (s *ValkeyStore) Close() {
	s.client.Close()
}

var _ predictionform.Store = (*ValkeyStore)(nil)
