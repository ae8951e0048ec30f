package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mygardenbook/gardenbook/internal/server/models"
)

// Form keys accepted on create and update.
const (
	fieldName           = "name"
	fieldScientificName = "scientific_name"
	fieldCategory       = "category"
	fieldDescription    = "description"
)

func (s *Server) mountSpecimenHandlers(r chi.Router, kind models.Kind) {
	h := specimenHandlers{s: s, kind: kind}
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/scan-code", h.regenerateScanCode)
	})
}

type specimenHandlers struct {
	s    *Server
	kind models.Kind
}

func (h specimenHandlers) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.s.deps.Catalog.ListSpecimens(r.Context(), h.kind)
	if err != nil {
		h.s.logger.Error(r.Context(), "list specimens failed", "kind", h.kind, "error", err)
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, toSpecimenList(list))
}

func (h specimenHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		sendError(w, err)
		return
	}
	sp, err := h.s.deps.Catalog.GetSpecimen(r.Context(), h.kind, id)
	if err != nil {
		sendError(w, err)
		return
	}
	// Detail pages are opened from scan codes and must reflect edits at once.
	w.Header().Set("Cache-Control", "no-store")
	sendJSON(w, http.StatusOK, toSpecimenRsp(sp))
}

func (h specimenHandlers) create(w http.ResponseWriter, r *http.Request) {
	form, err := h.s.parseSpecimenForm(w, r)
	if err != nil {
		sendError(w, err)
		return
	}

	name, _ := form.field(fieldName)
	sci, _ := form.field(fieldScientificName)
	cat, _ := form.field(fieldCategory)
	desc, _ := form.field(fieldDescription)
	fields := models.SpecimenFields{
		Name:           strings.TrimSpace(name),
		ScientificName: strings.TrimSpace(sci),
		Category:       strings.TrimSpace(cat),
		Description:    desc,
	}

	res, err := h.s.deps.Specimens.Create(r.Context(), adminID(r), h.kind, fields, form.image)
	if err != nil {
		sendError(w, err)
		return
	}

	rsp := map[string]any{
		"success":      true,
		string(h.kind): toSpecimenRsp(res.Specimen),
	}
	if len(res.Warnings) > 0 {
		rsp["warnings"] = res.Warnings
	}
	sendJSON(w, http.StatusCreated, rsp)
}

func (h specimenHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		sendError(w, err)
		return
	}
	form, err := h.s.parseSpecimenForm(w, r)
	if err != nil {
		sendError(w, err)
		return
	}

	patch := models.SpecimenPatch{
		Name:           trimmed(form.optional(fieldName)),
		ScientificName: trimmed(form.optional(fieldScientificName)),
		Category:       trimmed(form.optional(fieldCategory)),
		Description:    form.optional(fieldDescription),
	}

	sp, err := h.s.deps.Specimens.Update(r.Context(), adminID(r), h.kind, id, patch, form.image)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		string(h.kind): toSpecimenRsp(sp),
	})
}

func (h specimenHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		sendError(w, err)
		return
	}
	if err := h.s.deps.Specimens.Delete(r.Context(), adminID(r), h.kind, id); err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h specimenHandlers) regenerateScanCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		sendError(w, err)
		return
	}
	sp, err := h.s.deps.Specimens.RegenerateScanCode(r.Context(), adminID(r), h.kind, id)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		string(h.kind): toSpecimenRsp(sp),
	})
}

func trimmed(o models.Optional[string]) models.Optional[string] {
	if v, ok := o.Get(); ok {
		return models.Some(strings.TrimSpace(v))
	}
	return o
}
