package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFloorDays(t *testing.T) {
	base := time.Date(2015, 2, 9, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 0, FloorDays(base, base))
	require.Equal(t, 1, FloorDays(base, base.Add(47*time.Hour)))
	require.Equal(t, 365, FloorDays(base, base.AddDate(1, 0, 0)))
	require.Equal(t, -1, FloorDays(base, base.Add(-time.Hour)))
}
