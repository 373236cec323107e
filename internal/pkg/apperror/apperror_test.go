package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindDerivedFromCode(t *testing.T) {
	assert.Equal(t, KindNotFound, New(http.StatusNotFound, "x").Kind)
	assert.Equal(t, KindInvalidRequest, InvalidRequest("x").Kind)
	assert.Equal(t, KindForbidden, Forbidden("x").Kind)
	assert.Equal(t, KindConflict, Conflict("x").Kind)
	assert.Equal(t, KindInternal, New(http.StatusTeapot, "x").Kind)
}

func TestKindOf(t *testing.T) {
	sentinel := NotFound("booking not found")

	assert.Equal(t, KindNotFound, KindOf(sentinel))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("lookup: %w", sentinel)))
	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, http.StatusInternalServerError, "upload failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "upload failed", err.Error())
}
