package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, KindNotFound.Status())
	assert.Equal(t, http.StatusForbidden, KindForbidden.Status())
	assert.Equal(t, http.StatusBadRequest, KindBadRequest.Status())
	assert.Equal(t, http.StatusConflict, KindConflict.Status())
	assert.Equal(t, http.StatusUnauthorized, KindUnauthorized.Status())
	assert.Equal(t, http.StatusInternalServerError, Kind("other").Status())
}

func TestWrappedCauseIsPreserved(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("delete section: %w", BadRequest("could not delete section", cause))

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsKind(err, KindBadRequest))
	assert.Equal(t, KindBadRequest, KindOf(err))
	assert.Equal(t, "could not delete section", Message(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsMatchesOnKind(t *testing.T) {
	err := NotFound("catalog not found")
	assert.True(t, errors.Is(err, &Error{Kind: KindNotFound}))
	assert.False(t, errors.Is(err, &Error{Kind: KindForbidden}))
}

func TestUntypedErrorsAreInternal(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal error", Message(err))
}
