package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(CodePredictionFailed, "prediction request failed", cause)

	require.Equal(t, "prediction request failed: dial tcp: refused", err.Error())
	require.ErrorIs(t, err, cause)
	require.True(t, IsCode(err, CodePredictionFailed))
}

func TestCodeOfWrappedChain(t *testing.T) {
	err := fmt.Errorf("handler: %w", Wrap(CodeSubmissionInFlight, "busy", nil))
	require.Equal(t, CodeSubmissionInFlight, CodeOf(err))
	require.Equal(t, "", CodeOf(errors.New("plain")))
	require.False(t, IsCode(nil, CodeInvalidInput))
}
