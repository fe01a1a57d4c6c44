package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	err := fmt.Errorf("checkout: %w", newError(KindConflict, ReasonInsufficientStock, "Not enough quantity of %s available.", "Widget"))

	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindDiscount))
	assert.Equal(t, ReasonInsufficientStock, ReasonOf(err))
	assert.Equal(t, "Not enough quantity of Widget available.", MessageOf(err, "fallback"))

	plain := errors.New("boom")
	assert.Equal(t, Reason(""), ReasonOf(plain))
	assert.Equal(t, "fallback", MessageOf(plain, "fallback"))

	cause := errors.New("connection reset")
	terr := transportError(cause, "send failed")
	assert.ErrorIs(t, terr, cause)
	assert.True(t, IsKind(terr, KindTransport))
}
