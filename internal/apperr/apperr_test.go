package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithDetailDoesNotMutateBase(t *testing.T) {
	e := ErrBadRequest.WithDetail("field email is required")
	require.Equal(t, "field email is required", e.Detail)
	require.Empty(t, ErrBadRequest.Detail, "base error must stay pristine")
	require.True(t, errors.Is(e, ErrBadRequest))
}

func TestWithCauseWrapsAndUnwraps(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	e := ErrInternal.WithCause(cause)
	require.True(t, errors.Is(e, ErrInternal))
	require.Equal(t, cause, errors.Unwrap(e))
	require.Nil(t, ErrInternal.Err)
}

func TestOperational(t *testing.T) {
	require.True(t, ErrUnauthorized.Operational())
	require.True(t, ErrConflict.Operational())
	require.False(t, ErrInternal.Operational())
}

func TestFromError(t *testing.T) {
	require.Equal(t, ErrConflict, FromError(ErrConflict))

	wrapped := FromError(fmt.Errorf("boom"))
	require.Equal(t, ErrInternal.Code, wrapped.Code)
	require.Equal(t, http.StatusInternalServerError, wrapped.HTTPStatus)
	require.NotNil(t, wrapped.Err)
}

func TestUnauthorizedMessageIsGeneric(t *testing.T) {
	// Un solo mensaje para toda falla de credenciales; el detalle vive en
	// los logs, no en la respuesta.
	require.Equal(t, "invalid credentials", ErrUnauthorized.Message)
}
