package formstore

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/flat-price/internal/domain/predictionform"
)

func TestMemoryStoreRoundTripIsolatesForm(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	session := predictionform.NewSession("s1", time.Now())

	require.NoError(t, store.Save(ctx, session, time.Minute))
	session.Form[predictionform.FieldPostcode] = "9999"

	got, found, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "", got.Form.Get(predictionform.FieldPostcode))
	require.Equal(t, "1", got.Form.Get(predictionform.FieldCity))
}

func TestMemoryStoreExpiresSessions(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, predictionform.NewSession("s1", now), time.Minute))
	now = now.Add(time.Minute)

	_, found, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryStoreSubmitGuard(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := store.AcquireSubmit(ctx, "s1", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.AcquireSubmit(ctx, "s1", 30*time.Second)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = store.AcquireSubmit(ctx, "s2", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.ReleaseSubmit(ctx, "s1"))
	ok, err = store.AcquireSubmit(ctx, "s1", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// a guard left behind by a crashed request lapses
	now = now.Add(31 * time.Second)
	ok, err = store.AcquireSubmit(ctx, "s2", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStoreUpdateSerializesWriters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, predictionform.NewSession("s1", time.Now()), time.Minute))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(ctx, "s1", time.Minute, func(current predictionform.Session, found bool) (predictionform.Session, error) {
				n, _ := strconv.Atoi(current.Form.Get(predictionform.FieldRoomCount))
				current.Form = current.Form.With(predictionform.FieldRoomCount, strconv.Itoa(n+1))
				return current, nil
			})
		}()
	}
	wg.Wait()

	got, found, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, strconv.Itoa(writers), got.Form.Get(predictionform.FieldRoomCount))
}

func TestMemoryStoreUpdateMissingAndAborted(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var sawFound bool
	created, err := store.Update(ctx, "s1", time.Minute, func(current predictionform.Session, found bool) (predictionform.Session, error) {
		sawFound = found
		return predictionform.NewSession("ignored", time.Now()), nil
	})
	require.NoError(t, err)
	require.False(t, sawFound)
	require.Equal(t, "s1", created.ID)

	boom := errors.New("boom")
	_, err = store.Update(ctx, "s1", time.Minute, func(current predictionform.Session, found bool) (predictionform.Session, error) {
		require.True(t, found)
		current.Form = current.Form.With(predictionform.FieldPostcode, "1111")
		return current, boom
	})
	require.ErrorIs(t, err, boom)

	got, _, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "", got.Form.Get(predictionform.FieldPostcode))
}
