package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/server/models"
)

type errorRsp struct {
	Error  string `json:"error"`
	Plants *int64 `json:"plants,omitempty"`
	Fish   *int64 `json:"fish,omitempty"`
}

// specimenRsp is the persisted row shape clients already consume.
type specimenRsp struct {
	ID             int64     `json:"id"`
	Kind           string    `json:"kind"`
	Name           string    `json:"name"`
	ScientificName *string   `json:"scientific_name"`
	Category       *string   `json:"category"`
	Description    *string   `json:"description"`
	ImageURL       *string   `json:"image_url"`
	ImagePublicID  *string   `json:"image_public_id"`
	QRCodeURL      *string   `json:"qr_code_url"`
	QRPublicID     *string   `json:"qr_public_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toSpecimenRsp(s *models.Specimen) specimenRsp {
	return specimenRsp{
		ID:             s.ID,
		Kind:           string(s.Kind),
		Name:           s.Name,
		ScientificName: s.ScientificName,
		Category:       s.Category,
		Description:    s.Description,
		ImageURL:       nonEmpty(s.Image.URL),
		ImagePublicID:  nonEmpty(s.Image.Handle),
		QRCodeURL:      nonEmpty(s.ScanCode.URL),
		QRPublicID:     nonEmpty(s.ScanCode.Handle),
		UpdatedAt:      s.UpdatedAt,
	}
}

func toSpecimenList(list []*models.Specimen) []specimenRsp {
	out := make([]specimenRsp, 0, len(list))
	for _, s := range list {
		out = append(out, toSpecimenRsp(s))
	}
	return out
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrMissingCredential), errors.Is(err, common.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrCategoryInUse),
		errors.Is(err, common.ErrCategoryExists),
		errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrAssetUploadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func sendError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	rsp := errorRsp{Error: err.Error()}

	var inUse *common.CategoryInUseError
	switch {
	case errors.As(err, &inUse):
		rsp.Plants, rsp.Fish = &inUse.Plants, &inUse.Fish
	case status == http.StatusInternalServerError:
		rsp.Error = "internal error"
	case status == http.StatusBadGateway:
		rsp.Error = common.ErrAssetUploadFailed.Error()
	case status == http.StatusUnauthorized && errors.Is(err, common.ErrInvalidCredential):
		rsp.Error = common.ErrInvalidCredential.Error()
	}
	sendJSON(w, status, rsp)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.Validationf("invalid id %q", raw)
	}
	return id, nil
}
