package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/server/models"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminRsp struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toAdminRsp(a *models.Admin) adminRsp {
	return adminRsp{ID: a.ID, Email: a.Email, Role: a.Role}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFieldBytes)).Decode(&req); err != nil {
		sendError(w, common.Validationf("invalid JSON body: %v", err))
		return
	}
	res, err := s.deps.Admins.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"token": res.Token,
		"admin": toAdminRsp(res.Admin),
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Admins.Me(r.Context(), adminID(r))
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, toAdminRsp(a))
}
