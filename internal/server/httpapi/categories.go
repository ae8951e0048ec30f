package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/server/models"
)

type categoryReq struct {
	Name string  `json:"name"`
	Type *string `json:"type"`
}

type categoryRsp struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      *string   `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func toCategoryRsp(c *models.Category) categoryRsp {
	return categoryRsp{ID: c.ID, Name: c.Name, Type: c.Type, CreatedAt: c.CreatedAt}
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Catalog.ListCategories(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "list categories failed", "error", err)
		sendError(w, err)
		return
	}
	out := make([]categoryRsp, 0, len(list))
	for _, c := range list {
		out = append(out, toCategoryRsp(c))
	}
	sendJSON(w, http.StatusOK, out)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFieldBytes)).Decode(&req); err != nil {
		sendError(w, common.Validationf("invalid JSON body: %v", err))
		return
	}
	c, err := s.deps.Categories.Create(r.Context(), adminID(r), req.Name, req.Type)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, toCategoryRsp(c))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		sendError(w, err)
		return
	}
	if err := s.deps.Categories.Delete(r.Context(), adminID(r), id); err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"success": true})
}
