package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("decide: %w", Conflict("not pending"))

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, KindServer, KindOf(errors.New("db down")))
	assert.Equal(t, Kind(0), KindOf(nil))
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(nil, KindServer))
}

func TestStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindConflict:       http.StatusBadRequest,
		KindAuthentication: http.StatusUnauthorized,
		KindAuthorization:  http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindServer:         http.StatusInternalServerError,
	}

	for k, want := range cases {
		assert.Equal(t, want, k.Status(), k.String())
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("disk full")
	e := From(cause)

	assert.Equal(t, KindServer, e.Kind)
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "Internal server error: disk full", e.Error())
}
