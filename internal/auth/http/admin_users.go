package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/donorlens/donorlens/internal/auth/domain"
	"github.com/donorlens/donorlens/internal/auth/service"
	"github.com/donorlens/donorlens/pkg/authsdk"
	"github.com/donorlens/donorlens/pkg/httpx"
	"github.com/donorlens/donorlens/pkg/slogx"
)

// handleListUsers returns every account. The role middleware has
// already restricted this to admins.
func (router *Router) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := router.Users.ListUsers(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("list users", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorCodeServerError, "")
		return
	}

	payload := make([]authsdk.UserPayload, 0, len(users))
	for _, u := range users {
		payload = append(payload, userPayload(u))
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.UsersResponse{Users: payload})
}

func (router *Router) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req authsdk.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorCodeInvalidRequest, "malformed JSON body")
		return
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorCodeInvalidRequest, "email, password and full_name are required")
		return
	}

	user, err := router.Users.CreateUser(r.Context(), req.Email, req.FullName, req.Password, domain.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRole):
			httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorCodeInvalidRequest, "unknown role")
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict, httpx.ErrorCodeInvalidRequest, "email already registered")
		default:
			log.Error("create user", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, httpx.ErrorCodeServerError, "")
		}
		return
	}

	log.Info("user created", "user_id", user.ID, "role", user.Role)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.MeResponse{User: userPayload(user)})
}
