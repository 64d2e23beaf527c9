package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authcore/internal/apperr"
	"github.com/dropDatabas3/authcore/internal/store/memory"
)

var ctx = context.Background()

func TestPreferencesDefaultToEmptyDocument(t *testing.T) {
	svc := New(memory.New())
	data, err := svc.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(data))
}

func TestPreferencesSaveAndGet(t *testing.T) {
	svc := New(memory.New())
	require.NoError(t, svc.SavePreferences(ctx, "u1", json.RawMessage(`{"lang":"es"}`)))

	data, err := svc.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	require.JSONEq(t, `{"lang":"es"}`, string(data))
}

func TestSaveRejectsInvalidBlob(t *testing.T) {
	svc := New(memory.New())

	err := svc.SavePreferences(ctx, "u1", json.RawMessage(`{"broken`))
	require.True(t, errors.Is(err, apperr.ErrInvalidJSON))

	err = svc.SavePreferences(ctx, "u1", nil)
	require.True(t, errors.Is(err, apperr.ErrBadRequest))

	big := make([]byte, maxBlobBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	err = svc.SavePreferences(ctx, "u1", big)
	require.True(t, errors.Is(err, apperr.ErrBadRequest))
}

func TestAnnotationLifecycle(t *testing.T) {
	svc := New(memory.New())

	// Sin nada guardado: documento vacío, mismo contrato que preferencias.
	data, err := svc.GetAnnotation(ctx, "u1", "study-1")
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(data))

	require.NoError(t, svc.SaveAnnotation(ctx, "u1", "study-1", json.RawMessage(`{"roi":[]}`)))
	data, err = svc.GetAnnotation(ctx, "u1", "study-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"roi":[]}`, string(data))

	require.NoError(t, svc.DeleteAnnotation(ctx, "u1", "study-1"))
	data, err = svc.GetAnnotation(ctx, "u1", "study-1")
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(data))

	// Idempotente.
	require.NoError(t, svc.DeleteAnnotation(ctx, "u1", "study-1"))
}

func TestAnnotationRequiresStudyUID(t *testing.T) {
	svc := New(memory.New())
	_, err := svc.GetAnnotation(ctx, "u1", "  ")
	require.True(t, errors.Is(err, apperr.ErrBadRequest))
	err = svc.SaveAnnotation(ctx, "u1", "", json.RawMessage(`{}`))
	require.True(t, errors.Is(err, apperr.ErrBadRequest))
}
