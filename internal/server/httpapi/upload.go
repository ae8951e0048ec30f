package httpapi

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/server/models"
)

// StagedFilePattern matches image uploads staged in the upload dir.
const StagedFilePattern = "gardenbook-upload-*"

const (
	imageField    = "image"
	maxFieldBytes = 64 << 10
	formOverhead  = 1 << 20
)

// specimenForm is a parsed create/update body. Only keys present in the
// request appear in values.
type specimenForm struct {
	values map[string]string
	image  *models.ImageFile
}

func (f *specimenForm) field(name string) (string, bool) {
	v, ok := f.values[name]
	return v, ok
}

func (f *specimenForm) optional(name string) models.Optional[string] {
	if v, ok := f.values[name]; ok {
		return models.Some(v)
	}
	return models.None[string]()
}

// parseSpecimenForm reads a multipart or urlencoded body. An "image" file
// part is streamed to a staged file on disk; the caller owns its removal.
func (s *Server) parseSpecimenForm(w http.ResponseWriter, r *http.Request) (*specimenForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxImageBytes+formOverhead)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		f := &specimenForm{values: map[string]string{}}
		for k, v := range r.PostForm {
			if len(v) > 0 {
				f.values[k] = v[0]
			}
		}
		return f, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, common.Validationf("malformed multipart body: %v", err)
	}

	f := &specimenForm{values: map[string]string{}}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = f.image.Remove()
			return nil, bodyError(err)
		}

		if part.FormName() == imageField && part.FileName() != "" {
			if f.image != nil {
				_ = f.image.Remove()
				return nil, common.Validationf("only one image may be uploaded")
			}
			img, err := s.stageImage(part)
			if err != nil {
				return nil, err
			}
			f.image = img
			continue
		}

		b, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
		if err != nil {
			_ = f.image.Remove()
			return nil, bodyError(err)
		}
		if len(b) > maxFieldBytes {
			_ = f.image.Remove()
			return nil, common.Validationf("field %s too long", part.FormName())
		}
		f.values[part.FormName()] = string(b)
	}
	return f, nil
}

// stageImage copies a file part into UploadDir, keeping the original
// extension, and enforces the size ceiling.
func (s *Server) stageImage(part *multipart.Part) (*models.ImageFile, error) {
	name := part.FileName()
	dir := s.cfg.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	out, err := os.CreateTemp(dir, StagedFilePattern+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return nil, common.Dependency("stage upload", err)
	}
	img := &models.ImageFile{Path: out.Name(), OriginalName: name}

	n, err := io.Copy(out, io.LimitReader(part, s.cfg.MaxImageBytes+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = img.Remove()
		return nil, bodyError(err)
	}
	if n > s.cfg.MaxImageBytes {
		_ = img.Remove()
		return nil, common.Validationf("image exceeds %d bytes", s.cfg.MaxImageBytes)
	}
	img.Size = n
	return img, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return common.Validationf("request body exceeds %d bytes", maxErr.Limit)
	}
	return common.Validationf("unreadable request body: %v", err)
}
