// Package auth expone los endpoints de credenciales: register, login,
// refresh, logout, logout-all y perfil.
package auth

import (
	"net/http"

	"github.com/dropDatabas3/authcore/internal/apperr"
	dto "github.com/dropDatabas3/authcore/internal/http/dto/auth"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
	"github.com/dropDatabas3/authcore/internal/session"
	"github.com/dropDatabas3/authcore/internal/token"
)

type Controller struct {
	sessions *session.Service
	issuer   *token.Issuer
	cookie   helpers.CookieConfig
}

func NewController(sessions *session.Service, issuer *token.Issuer, cookie helpers.CookieConfig) *Controller {
	return &Controller{sessions: sessions, issuer: issuer, cookie: cookie}
}

func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res, err := c.sessions.Register(r.Context(), session.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, helpers.ClientIP(r))
	if err != nil {
		helpers.WriteAppError(w, r, err)
		return
	}
	c.setRefreshCookie(w, res.Tokens.RefreshToken)
	helpers.WriteJSON(w, http.StatusCreated, dto.AuthResponse{
		User:        res.User,
		AccessToken: res.Tokens.AccessToken,
	})
}

func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res, err := c.sessions.Login(r.Context(), req.Email, req.Password, helpers.ClientIP(r))
	if err != nil {
		helpers.WriteAppError(w, r, err)
		return
	}
	c.setRefreshCookie(w, res.Tokens.RefreshToken)
	helpers.WriteJSON(w, http.StatusOK, dto.AuthResponse{
		User:        res.User,
		AccessToken: res.Tokens.AccessToken,
	})
}

// Refresh rota el token del cookie. Si la rotación falla por replay, el
// cookie se borra: el cliente queda deslogueado en todos lados.
func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) {
	presented := c.refreshFromCookie(r)
	if presented == "" {
		helpers.WriteAppError(w, r, apperr.ErrUnauthorized)
		return
	}
	pair, err := c.sessions.Refresh(r.Context(), presented, helpers.ClientIP(r))
	if err != nil {
		http.SetCookie(w, c.cookie.BuildDeletion())
		helpers.WriteAppError(w, r, err)
		return
	}
	c.setRefreshCookie(w, pair.RefreshToken)
	helpers.WriteJSON(w, http.StatusOK, dto.RefreshResponse{AccessToken: pair.AccessToken})
}

func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	if err := c.sessions.Logout(r.Context(), c.refreshFromCookie(r), helpers.ClientIP(r)); err != nil {
		helpers.WriteAppError(w, r, err)
		return
	}
	http.SetCookie(w, c.cookie.BuildDeletion())
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) LogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.IdentityFrom(r.Context())
	if !ok {
		helpers.WriteAppError(w, r, apperr.ErrUnauthorized)
		return
	}
	if err := c.sessions.LogoutAll(r.Context(), id.UserID); err != nil {
		helpers.WriteAppError(w, r, err)
		return
	}
	http.SetCookie(w, c.cookie.BuildDeletion())
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.IdentityFrom(r.Context())
	if !ok {
		helpers.WriteAppError(w, r, apperr.ErrUnauthorized)
		return
	}
	p, err := c.sessions.GetProfile(r.Context(), id.UserID)
	if err != nil {
		helpers.WriteAppError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ProfileResponse{User: *p})
}

func (c *Controller) setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	http.SetCookie(w, c.cookie.Build(refreshToken, c.issuer.RefreshCookieTTL()))
}

func (c *Controller) refreshFromCookie(r *http.Request) string {
	ck, err := r.Cookie(c.cookie.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}
