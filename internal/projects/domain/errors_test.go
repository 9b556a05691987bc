package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocolErrorsMatchStoredReasons(t *testing.T) {
	assert.Equal(t, ReasonDispatchFailed, ErrDispatchFailed.Error())
	assert.Equal(t, ReasonTimedOut, ErrTimedOut.Error())

	wrapped := fmt.Errorf("%w: connection refused", ErrDispatchFailed)
	assert.True(t, errors.Is(wrapped, ErrDispatchFailed))
	assert.False(t, errors.Is(wrapped, ErrTimedOut))
}

func TestPayloadErrorUnwrap(t *testing.T) {
	err := &PayloadError{Reason: "invalid status", Value: "done"}
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Equal(t, `invalid status: "done"`, err.Error())
}
