// Package session orquesta el ciclo de vida de credenciales:
// register/login/refresh/logout/logout-all, la rotación de refresh tokens
// y la detección de reuse con revocación en cascada.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authcore/internal/apperr"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
	"github.com/dropDatabas3/authcore/internal/observability/metrics"
	"github.com/dropDatabas3/authcore/internal/security/password"
	"github.com/dropDatabas3/authcore/internal/security/tokenhash"
	"github.com/dropDatabas3/authcore/internal/store/core"
	"github.com/dropDatabas3/authcore/internal/token"
)

type Service struct {
	repo     core.Repository
	issuer   *token.Issuer
	verifier *token.Verifier
	hash     password.Params
	policy   password.Policy

	now func() time.Time
}

type Deps struct {
	Repo       core.Repository
	Issuer     *token.Issuer
	Verifier   *token.Verifier
	HashParams password.Params
	Policy     password.Policy
}

func New(deps Deps) *Service {
	if deps.HashParams == (password.Params{}) {
		deps.HashParams = password.Default
	}
	if deps.Policy == (password.Policy{}) {
		deps.Policy = password.DefaultPolicy
	}
	return &Service{
		repo:     deps.Repo,
		issuer:   deps.Issuer,
		verifier: deps.Verifier,
		hash:     deps.HashParams,
		policy:   deps.Policy,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Result es lo que devuelven register y login: el perfil sanitizado y el
// par de tokens.
type Result struct {
	User   Profile
	Tokens token.Pair
}

func (s *Service) Register(ctx context.Context, in RegisterInput, clientAddr string) (*Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("session.Register"))

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, apperr.ErrBadRequest
	}

	if ok, reasons := s.policy.Validate(in.Password); !ok {
		log.Debug("password rejected by policy", logger.String("reasons", strings.Join(reasons, ",")))
		return nil, apperr.ErrWeakPassword
	}

	hash, err := password.Hash(s.hash, in.Password)
	if err != nil {
		return nil, apperr.ErrInternal.WithCause(err)
	}

	u := &core.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.repo.Users().Create(ctx, u); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.ErrInternal.WithCause(err)
	}

	pair, err := s.mintAndPersist(ctx, u, clientAddr)
	if err != nil {
		return nil, err
	}

	log.Info("user registered", logger.UserID(u.ID), logger.Email(u.Email))
	return &Result{User: sanitize(u), Tokens: pair}, nil
}

func (s *Service) Login(ctx context.Context, email, plain, clientAddr string) (*Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("session.Login"))

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || plain == "" {
		return nil, apperr.ErrBadRequest
	}

	// Usuario inexistente y password incorrecto devuelven exactamente el
	// mismo error: sin señal de enumeración.
	u, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("login for unknown email")
			return nil, apperr.ErrUnauthorized
		}
		return nil, apperr.ErrInternal.WithCause(err)
	}
	if !password.Verify(plain, u.PasswordHash) {
		log.Debug("login with wrong password", logger.UserID(u.ID))
		return nil, apperr.ErrUnauthorized
	}

	if err := s.repo.Users().TouchLastLogin(ctx, u.ID); err != nil {
		return nil, apperr.ErrInternal.WithCause(err)
	}

	pair, err := s.mintAndPersist(ctx, u, clientAddr)
	if err != nil {
		return nil, err
	}

	log.Info("user logged in", logger.UserID(u.ID))
	return &Result{User: sanitize(u), Tokens: pair}, nil
}

// Refresh rota el refresh token presentado. Un token que ya fue rotado o
// revocado es una señal de replay: se revocan todos los tokens activos
// del usuario antes de responder Unauthorized.
func (s *Service) Refresh(ctx context.Context, presented, clientAddr string) (token.Pair, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("session.Refresh"))

	if _, err := s.verifier.VerifyRefresh(presented); err != nil {
		return token.Pair{}, apperr.ErrUnauthorized
	}

	hash := tokenhash.Sum(presented)
	rec, err := s.repo.RefreshTokens().Get(ctx, hash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("refresh token not in store")
			return token.Pair{}, apperr.ErrUnauthorized
		}
		return token.Pair{}, apperr.ErrInternal.WithCause(err)
	}

	if !rec.Active(s.now()) {
		return token.Pair{}, s.handleReuse(ctx, rec)
	}

	u, err := s.repo.Users().GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("refresh for missing user", logger.UserID(rec.UserID))
			return token.Pair{}, apperr.ErrUnauthorized
		}
		return token.Pair{}, apperr.ErrInternal.WithCause(err)
	}

	pair, err := s.issuer.MintPair(u.ID, u.Email)
	if err != nil {
		return token.Pair{}, apperr.ErrInternal.WithCause(err)
	}
	next := &core.RefreshToken{
		TokenHash:   tokenhash.Sum(pair.RefreshToken),
		UserID:      u.ID,
		ExpiresAt:   s.issuer.RefreshExpiry(),
		CreatedByIP: clientAddr,
	}

	if err := s.repo.RefreshTokens().Rotate(ctx, hash, clientAddr, next); err != nil {
		if errors.Is(err, core.ErrPreconditionFailed) {
			// Un refresh concurrente ganó la carrera: mismo tratamiento
			// que un replay para que la familia no se forkee.
			return token.Pair{}, s.handleReuse(ctx, rec)
		}
		return token.Pair{}, apperr.ErrInternal.WithCause(err)
	}

	log.Info("tokens refreshed", logger.UserID(u.ID))
	return pair, nil
}

// handleReuse es la respuesta al replay de un token rotado: log distintivo
// de seguridad, métrica, y revocación de todos los tokens del usuario.
func (s *Service) handleReuse(ctx context.Context, rec *core.RefreshToken) error {
	logger.From(ctx).Warn("refresh token reuse detected, revoking all user tokens",
		logger.UserID(rec.UserID),
		logger.TokenID(rec.TokenHash),
	)
	metrics.ReuseDetected.Inc()

	if _, err := s.repo.RefreshTokens().RevokeAllForUser(ctx, rec.UserID); err != nil {
		// La cascada falló: esto sí es un error interno, no un 401.
		return apperr.ErrInternal.WithCause(err)
	}
	return apperr.ErrUnauthorized
}

// Logout revoca el token presentado. Idempotente: un token ausente o ya
// revocado no es un error.
func (s *Service) Logout(ctx context.Context, presented, clientAddr string) error {
	if presented == "" {
		return nil
	}
	revoked, err := s.repo.RefreshTokens().Revoke(ctx, tokenhash.Sum(presented), clientAddr)
	if err != nil {
		return apperr.ErrInternal.WithCause(err)
	}
	if revoked {
		logger.From(ctx).Info("user logged out")
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.repo.RefreshTokens().RevokeAllForUser(ctx, userID)
	if err != nil {
		return apperr.ErrInternal.WithCause(err)
	}
	logger.From(ctx).Info("all user sessions terminated",
		logger.UserID(userID), logger.Int64("revoked", n))
	return nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.ErrInternal.WithCause(err)
	}
	p := sanitize(u)
	return &p, nil
}

func (s *Service) mintAndPersist(ctx context.Context, u *core.User, clientAddr string) (token.Pair, error) {
	pair, err := s.issuer.MintPair(u.ID, u.Email)
	if err != nil {
		return token.Pair{}, apperr.ErrInternal.WithCause(err)
	}
	rec := &core.RefreshToken{
		TokenHash:   tokenhash.Sum(pair.RefreshToken),
		UserID:      u.ID,
		ExpiresAt:   s.issuer.RefreshExpiry(),
		CreatedByIP: clientAddr,
	}
	if err := s.repo.RefreshTokens().Create(ctx, rec); err != nil {
		return token.Pair{}, apperr.ErrInternal.WithCause(err)
	}
	return pair, nil
}
