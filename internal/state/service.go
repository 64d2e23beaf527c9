// Package state guarda blobs JSON de estado por usuario: preferencias
// globales y anotaciones por study. El servicio no interpreta el
// contenido, solo valida que sea JSON y lo persiste.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dropDatabas3/authcore/internal/apperr"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
	"github.com/dropDatabas3/authcore/internal/store/core"
)

// maxBlobBytes limita el tamaño de un blob persistido.
const maxBlobBytes = 256 << 10 // 256KB

type Service struct {
	repo core.Repository
}

func New(repo core.Repository) *Service {
	return &Service{repo: repo}
}

// GetPreferences devuelve el blob del usuario. Sin preferencias guardadas
// devuelve `{}`, no un 404: el cliente siempre recibe un documento.
func (s *Service) GetPreferences(ctx context.Context, userID string) (json.RawMessage, error) {
	p, err := s.repo.State().GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return json.RawMessage("{}"), nil
		}
		return nil, apperr.ErrInternal.WithCause(err)
	}
	return json.RawMessage(p.Data), nil
}

func (s *Service) SavePreferences(ctx context.Context, userID string, data json.RawMessage) error {
	if err := validateBlob(data); err != nil {
		return err
	}
	if err := s.repo.State().UpsertPreferences(ctx, userID, data); err != nil {
		return apperr.ErrInternal.WithCause(err)
	}
	logger.From(ctx).Debug("preferences saved", logger.UserID(userID))
	return nil
}

func (s *Service) GetAnnotation(ctx context.Context, userID, studyUID string) (json.RawMessage, error) {
	studyUID = strings.TrimSpace(studyUID)
	if studyUID == "" {
		return nil, apperr.ErrBadRequest.WithDetail("studyUID is required")
	}
	a, err := s.repo.State().GetAnnotation(ctx, userID, studyUID)
	if err != nil {
		// Igual que las preferencias: sin nada guardado el cliente recibe
		// un documento vacío, no un 404.
		if errors.Is(err, core.ErrNotFound) {
			return json.RawMessage("{}"), nil
		}
		return nil, apperr.ErrInternal.WithCause(err)
	}
	return json.RawMessage(a.Data), nil
}

func (s *Service) SaveAnnotation(ctx context.Context, userID, studyUID string, data json.RawMessage) error {
	studyUID = strings.TrimSpace(studyUID)
	if studyUID == "" {
		return apperr.ErrBadRequest.WithDetail("studyUID is required")
	}
	if err := validateBlob(data); err != nil {
		return err
	}
	if err := s.repo.State().UpsertAnnotation(ctx, userID, studyUID, data); err != nil {
		return apperr.ErrInternal.WithCause(err)
	}
	logger.From(ctx).Debug("annotation saved", logger.UserID(userID), logger.String("study_uid", studyUID))
	return nil
}

// DeleteAnnotation es idempotente: borrar algo que no existe no es error.
func (s *Service) DeleteAnnotation(ctx context.Context, userID, studyUID string) error {
	studyUID = strings.TrimSpace(studyUID)
	if studyUID == "" {
		return apperr.ErrBadRequest.WithDetail("studyUID is required")
	}
	if err := s.repo.State().DeleteAnnotation(ctx, userID, studyUID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return apperr.ErrInternal.WithCause(err)
	}
	return nil
}

func validateBlob(data json.RawMessage) error {
	if len(data) == 0 {
		return apperr.ErrBadRequest.WithDetail("body is required")
	}
	if len(data) > maxBlobBytes {
		return apperr.ErrBadRequest.WithDetail("payload too large")
	}
	if !json.Valid(data) {
		return apperr.ErrInvalidJSON
	}
	return nil
}
