package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"go.uber.org/zap"
)

type CredentialsDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PrincipalDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toPrincipalDTO(p *domain.Principal) PrincipalDTO {
	return PrincipalDTO{ID: p.ID, Username: p.Username, Role: string(p.Role)}
}

// POST /sign_in
func (h *Handler) AdminSignIn(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, domain.RoleAdmin)
}

// POST /user_signin
func (h *Handler) UserSignIn(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, domain.RoleCustomer)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, role domain.Role) {
	var req CredentialsDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password, role)
	if err != nil {
		logger.FromContext(r.Context()).Info("sign_in_rejected", zap.String("role", string(role)))
		handleServiceError(w, r, err)
		return
	}

	sess := h.sessions.Renew(w, r)
	sess.Principal = p
	logger.FromContext(r.Context()).Info("signed_in", zap.Int64("user_id", p.ID), zap.String("role", string(role)))
	respondJSON(w, http.StatusOK, toPrincipalDTO(p))
}

// POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	destroySession(r.Context())
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

// POST /add_user
func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req CredentialsDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.accounts.AddUser(r.Context(), caller(r.Context()), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPrincipalDTO(p))
}
