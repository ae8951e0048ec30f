package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/logging"
	"github.com/mygardenbook/gardenbook/internal/server/assets"
	"github.com/mygardenbook/gardenbook/internal/server/config"
	"github.com/mygardenbook/gardenbook/internal/server/metrics"
	"github.com/mygardenbook/gardenbook/internal/server/models"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/repomanager"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/specimens"
	"github.com/mygardenbook/gardenbook/internal/server/scancode"
)

// AcceptedImageTypes are the photo formats a specimen may carry, detected
// from file content.
var AcceptedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// CreateResult is what Create hands back. Warnings is non-empty only when
// the degraded scan-code policy kept a row without its scan code.
type CreateResult struct {
	Specimen *models.Specimen
	Warnings []string
}

// SpecimenService keeps specimen rows and the assets they reference in step.
type SpecimenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       assets.Store
	encoder     scancode.Encoder
	logger      logging.Logger
	metrics     *metrics.Metrics

	frontendURL     string
	rootFolder      string
	maxImageBytes   int64
	policy          string
	destroyAttempts uint
	destroyDelay    time.Duration
}

func NewSpecimenService(db *sql.DB, m repomanager.RepositoryManager, store assets.Store, enc scancode.Encoder,
	cfg *config.Config, l logging.Logger, mt *metrics.Metrics) *SpecimenService {
	return &SpecimenService{
		db:              db,
		repomanager:     m,
		store:           store,
		encoder:         enc,
		logger:          l.With("module", "specimen_service"),
		metrics:         mt,
		frontendURL:     cfg.FrontendURL,
		rootFolder:      cfg.AssetRootFolder,
		maxImageBytes:   cfg.MaxImageBytes,
		policy:          cfg.ScanCodePolicy,
		destroyAttempts: cfg.DestroyAttempts,
		destroyDelay:    cfg.DestroyDelay,
	}
}

// Create uploads the optional image, inserts the row, then attaches a scan
// code pointing at the specimen's public page.
//
// If the scan code cannot be attached, the configured policy decides: under
// "rollback" every trace of the create is undone and the error returned;
// under "degraded" the row is kept and a warning is returned instead.
func (s *SpecimenService) Create(ctx context.Context, adminID string, kind models.Kind, fields models.SpecimenFields, image *models.ImageFile) (*CreateResult, error) {
	defer s.removeStaged(ctx, image)

	if err := s.precheck(adminID, kind); err != nil {
		return nil, err
	}
	fields.Name = strings.TrimSpace(fields.Name)
	if err := validate.Struct(fields); err != nil {
		return nil, validationError(err)
	}
	contentType, err := s.inspectImage(image)
	if err != nil {
		return nil, err
	}

	var img models.AssetRef
	if image != nil {
		img, err = s.uploadImage(ctx, kind, image, contentType)
		if err != nil {
			s.metrics.Operation(string(kind), "create", metrics.OutcomeError)
			return nil, err
		}
	}

	repo := s.repomanager.Specimens(s.db)

	id, err := repo.Insert(ctx, kind, fields, img)
	if err != nil {
		s.destroyBestEffort(ctx, img.Handle, "create_rollback")
		s.metrics.Operation(string(kind), "create", metrics.OutcomeError)
		return nil, common.Dependency("insert specimen", err)
	}

	var warnings []string
	code, err := s.attachScanCode(ctx, repo, kind, id)
	if err != nil {
		s.destroyBestEffort(ctx, code.Handle, "create_rollback")

		if s.policy == config.ScanCodePolicyDegraded {
			s.logger.Warn(ctx, "specimen created without scan code", "kind", kind, "id", id, "error", err)
			warnings = append(warnings, fmt.Sprintf("scan code was not generated: %v", err))
		} else {
			s.logger.Error(ctx, "scan code failed, rolling back create", "kind", kind, "id", id, "error", err)
			if derr := repo.Delete(ctx, kind, id); derr != nil && !errors.Is(derr, common.ErrNotFound) {
				// The surviving row still references the image, so it stays.
				s.logger.Error(ctx, "rollback delete failed, row left without scan code", "kind", kind, "id", id, "image", img.Handle, "error", derr)
			} else {
				s.destroyBestEffort(ctx, img.Handle, "create_rollback")
			}
			s.metrics.Operation(string(kind), "create", metrics.OutcomeError)
			return nil, err
		}
	}

	created, err := repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, common.Dependency("reload specimen", err)
	}

	outcome := metrics.OutcomeOK
	if len(warnings) > 0 {
		outcome = metrics.OutcomeDegraded
	}
	s.metrics.Operation(string(kind), "create", outcome)
	s.logger.Info(ctx, "specimen created", "kind", kind, "id", id, "admin", adminID, "image", !img.Empty())

	return &CreateResult{Specimen: created, Warnings: warnings}, nil
}

// Update applies patch and optionally replaces the image. The new image is
// uploaded before the row is touched; the superseded one stays in storage.
func (s *SpecimenService) Update(ctx context.Context, adminID string, kind models.Kind, id int64, patch models.SpecimenPatch, image *models.ImageFile) (*models.Specimen, error) {
	defer s.removeStaged(ctx, image)

	if err := s.precheck(adminID, kind); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	contentType, err := s.inspectImage(image)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Specimens(s.db)

	current, err := repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, s.lookupError(err)
	}

	var newImage *models.AssetRef
	if image != nil {
		ref, err := s.uploadImage(ctx, kind, image, contentType)
		if err != nil {
			s.metrics.Operation(string(kind), "update", metrics.OutcomeError)
			return nil, err
		}
		newImage = &ref
	}

	if err := repo.Update(ctx, kind, id, patch, newImage); err != nil {
		if newImage != nil {
			s.destroyBestEffort(ctx, newImage.Handle, "update_rollback")
		}
		s.metrics.Operation(string(kind), "update", metrics.OutcomeError)
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.Dependency("update specimen", err)
	}

	if newImage != nil && !current.Image.Empty() {
		s.logger.Info(ctx, "superseded image left in storage", "kind", kind, "id", id, "handle", current.Image.Handle)
	}

	updated, err := repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, s.lookupError(err)
	}

	s.metrics.Operation(string(kind), "update", metrics.OutcomeOK)
	s.logger.Info(ctx, "specimen updated", "kind", kind, "id", id, "admin", adminID, "image", newImage != nil)
	return updated, nil
}

// Delete destroys the specimen's assets, then removes the row. Asset failures
// are logged and counted, never returned.
func (s *SpecimenService) Delete(ctx context.Context, adminID string, kind models.Kind, id int64) error {
	if err := s.precheck(adminID, kind); err != nil {
		return err
	}

	repo := s.repomanager.Specimens(s.db)

	current, err := repo.GetByID(ctx, kind, id)
	if err != nil {
		return s.lookupError(err)
	}

	s.destroyBestEffort(ctx, current.Image.Handle, "delete")
	s.destroyBestEffort(ctx, current.ScanCode.Handle, "delete")

	if err := repo.Delete(ctx, kind, id); err != nil {
		s.metrics.Operation(string(kind), "delete", metrics.OutcomeError)
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return common.Dependency("delete specimen", err)
	}

	s.metrics.Operation(string(kind), "delete", metrics.OutcomeOK)
	s.logger.Info(ctx, "specimen deleted", "kind", kind, "id", id, "admin", adminID)
	return nil
}

// RegenerateScanCode attaches a fresh scan code and drops the previous one.
func (s *SpecimenService) RegenerateScanCode(ctx context.Context, adminID string, kind models.Kind, id int64) (*models.Specimen, error) {
	if err := s.precheck(adminID, kind); err != nil {
		return nil, err
	}

	repo := s.repomanager.Specimens(s.db)

	current, err := repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, s.lookupError(err)
	}

	code, err := s.attachScanCode(ctx, repo, kind, id)
	if err != nil {
		// The public id is stable per row, so the upload may have overwritten
		// the object the row still points at.
		if code.Handle != current.ScanCode.Handle {
			s.destroyBestEffort(ctx, code.Handle, "regenerate_rollback")
		}
		s.metrics.Operation(string(kind), "regenerate", metrics.OutcomeError)
		return nil, err
	}

	if prev := current.ScanCode.Handle; prev != "" && prev != code.Handle {
		s.destroyBestEffort(ctx, prev, "regenerate")
	}

	updated, err := repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, s.lookupError(err)
	}

	s.metrics.Operation(string(kind), "regenerate", metrics.OutcomeOK)
	s.logger.Info(ctx, "scan code regenerated", "kind", kind, "id", id, "admin", adminID)
	return updated, nil
}

func (s *SpecimenService) precheck(adminID string, kind models.Kind) error {
	if adminID == "" {
		return common.ErrMissingCredential
	}
	if !kind.Valid() {
		return common.Validationf("unknown specimen kind %q", kind)
	}
	return nil
}

func validatePatch(p models.SpecimenPatch) error {
	if v, ok := p.Name.Get(); ok && strings.TrimSpace(v) == "" {
		return common.Validationf("name may not be empty")
	}
	fields := models.SpecimenFields{
		Name:           "-",
		ScientificName: p.ScientificName.Value,
		Category:       p.Category.Value,
		Description:    p.Description.Value,
	}
	if v, ok := p.Name.Get(); ok {
		fields.Name = strings.TrimSpace(v)
	}
	if err := validate.Struct(fields); err != nil {
		return validationError(err)
	}
	return nil
}

// inspectImage checks size and content type of a staged upload.
func (s *SpecimenService) inspectImage(image *models.ImageFile) (string, error) {
	if image == nil {
		return "", nil
	}
	st, err := os.Stat(image.Path)
	if err != nil {
		return "", common.Dependency("stat staged image", err)
	}
	if st.Size() == 0 {
		return "", common.Validationf("image is empty")
	}
	if s.maxImageBytes > 0 && st.Size() > s.maxImageBytes {
		return "", common.Validationf("image exceeds %d bytes", s.maxImageBytes)
	}
	mt, err := mimetype.DetectFile(image.Path)
	if err != nil {
		return "", common.Dependency("detect image type", err)
	}
	for _, t := range AcceptedImageTypes {
		if mt.Is(t) {
			return t, nil
		}
	}
	return "", common.Validationf("unsupported image type %s", mt.String())
}

func (s *SpecimenService) uploadImage(ctx context.Context, kind models.Kind, image *models.ImageFile, contentType string) (models.AssetRef, error) {
	f, err := os.Open(image.Path)
	if err != nil {
		return models.AssetRef{}, common.Dependency("open staged image", err)
	}
	defer f.Close()

	a, err := s.store.Put(ctx, f, assets.PutOptions{
		Folder:      path.Join(s.rootFolder, string(kind)+"-images"),
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error(ctx, "image upload failed", "kind", kind, "file", image.OriginalName, "error", err)
		return models.AssetRef{}, fmt.Errorf("%w: image: %v", common.ErrAssetUploadFailed, err)
	}
	return models.AssetRef{URL: a.URL, Handle: a.Handle}, nil
}

// attachScanCode encodes, uploads and records the scan code. The returned ref
// is non-empty whenever an upload happened, even if recording it failed, so
// the caller can clean it up.
func (s *SpecimenService) attachScanCode(ctx context.Context, repo specimens.Repository, kind models.Kind, id int64) (models.AssetRef, error) {
	target := scancode.TargetURL(s.frontendURL, kind.ViewPage(), id)

	png, err := s.encoder.Encode(target)
	if err != nil {
		return models.AssetRef{}, common.Dependency("encode scan code", err)
	}

	a, err := s.store.Put(ctx, bytes.NewReader(png), assets.PutOptions{
		Folder:      path.Join(s.rootFolder, "qr"),
		PublicID:    fmt.Sprintf("%s-%d", kind, id),
		ContentType: scancode.ContentType,
	})
	if err != nil {
		return models.AssetRef{}, fmt.Errorf("%w: scan code: %v", common.ErrAssetUploadFailed, err)
	}
	ref := models.AssetRef{URL: a.URL, Handle: a.Handle}

	if err := repo.SetScanCode(ctx, kind, id, ref); err != nil {
		return ref, common.Dependency("record scan code", err)
	}
	return ref, nil
}

// destroyBestEffort retries a delete and swallows the outcome. Cleanup runs
// detached from request cancellation.
func (s *SpecimenService) destroyBestEffort(ctx context.Context, handle, reason string) {
	if handle == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)

	attempts := s.destroyAttempts
	if attempts == 0 {
		attempts = 1
	}
	err := retry.Do(
		func() error { return s.store.Destroy(ctx, handle) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(s.destroyDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return !errors.Is(err, assets.ErrNotFound) }),
	)
	switch {
	case err == nil:
		s.logger.Debug(ctx, "asset destroyed", "handle", handle, "reason", reason)
	case errors.Is(err, assets.ErrNotFound):
		s.logger.Debug(ctx, "asset already gone", "handle", handle, "reason", reason)
	default:
		s.logger.Warn(ctx, "asset destroy failed, orphan left in storage", "handle", handle, "reason", reason, "error", err)
		s.metrics.DestroyFailed(reason)
	}
}

func (s *SpecimenService) removeStaged(ctx context.Context, image *models.ImageFile) {
	if err := image.Remove(); err != nil {
		s.logger.Warn(ctx, "staged upload not removed", "path", image.Path, "error", err)
	}
}

func (s *SpecimenService) lookupError(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrNotFound
	}
	return common.Dependency("load specimen", err)
}
