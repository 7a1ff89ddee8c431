package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := InvalidRatef("rate %v not allowed", 3.0)

	assert.ErrorIs(t, err, ErrInvalidRate)
	assert.NotErrorIs(t, err, ErrLoopOrder)
	assert.Equal(t, "rate 3 not allowed", err.Error())
}

func TestLoad_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Load(cause)

	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load audio: connection refused", err.Error())
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("open lesson: %w", InvalidLesson("missing media url", nil))

	assert.Equal(t, CodeInvalidLesson, CodeOf(wrapped))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestEndOfUnitf(t *testing.T) {
	err := EndOfUnitf("no lesson after %q", "l3")

	assert.ErrorIs(t, err, ErrEndOfUnit)
	assert.NotErrorIs(t, err, ErrInvalidTrack)
	assert.Equal(t, CodeEndOfUnit, CodeOf(err))
}
