package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/dbx"
	"github.com/mygardenbook/gardenbook/internal/server/assets"
	"github.com/mygardenbook/gardenbook/internal/server/models"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/admins"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/categories"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/specimens"
	"github.com/stretchr/testify/require"
)

// --- specimens ---

type memSpecimens struct {
	mu   sync.Mutex
	next int64
	rows map[models.Kind]map[int64]*models.Specimen

	insertErr  error
	updateErr  error
	setCodeErr error
	deleteErr  error
	getErr     error
	countErr   error
}

func newMemSpecimens() *memSpecimens {
	return &memSpecimens{rows: map[models.Kind]map[int64]*models.Specimen{
		models.KindPlant: {},
		models.KindFish:  {},
	}}
}

func optStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cloneSpecimen(s *models.Specimen) *models.Specimen {
	c := *s
	return &c
}

func completeOrEmpty(ref models.AssetRef) models.AssetRef {
	if !ref.Complete() {
		return models.AssetRef{}
	}
	return ref
}

func (m *memSpecimens) Insert(_ context.Context, kind models.Kind, f models.SpecimenFields, img models.AssetRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.next++
	m.rows[kind][m.next] = &models.Specimen{
		ID:             m.next,
		Kind:           kind,
		Name:           strings.TrimSpace(f.Name),
		ScientificName: optStr(f.ScientificName),
		Category:       optStr(f.Category),
		Description:    optStr(f.Description),
		Image:          completeOrEmpty(img),
		UpdatedAt:      time.Now(),
	}
	return m.next, nil
}

func (m *memSpecimens) GetByID(_ context.Context, kind models.Kind, id int64) (*models.Specimen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.rows[kind][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneSpecimen(s), nil
}

func (m *memSpecimens) List(_ context.Context, kind models.Kind) ([]*models.Specimen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := []*models.Specimen{}
	for _, s := range m.rows[kind] {
		out = append(out, cloneSpecimen(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memSpecimens) Update(_ context.Context, kind models.Kind, id int64, p models.SpecimenPatch, img *models.AssetRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	s, ok := m.rows[kind][id]
	if !ok {
		return common.ErrNotFound
	}
	if v, ok := p.Name.Get(); ok {
		s.Name = strings.TrimSpace(v)
	}
	if v, ok := p.ScientificName.Get(); ok {
		s.ScientificName = optStr(v)
	}
	if v, ok := p.Category.Get(); ok {
		s.Category = optStr(v)
	}
	if v, ok := p.Description.Get(); ok {
		s.Description = optStr(v)
	}
	if img != nil {
		s.Image = completeOrEmpty(*img)
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (m *memSpecimens) SetScanCode(_ context.Context, kind models.Kind, id int64, ref models.AssetRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setCodeErr != nil {
		return m.setCodeErr
	}
	s, ok := m.rows[kind][id]
	if !ok {
		return common.ErrNotFound
	}
	s.ScanCode = completeOrEmpty(ref)
	return nil
}

func (m *memSpecimens) Delete(_ context.Context, kind models.Kind, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rows[kind][id]; !ok {
		return common.ErrNotFound
	}
	delete(m.rows[kind], id)
	return nil
}

func (m *memSpecimens) CountByCategory(_ context.Context, kind models.Kind, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	var n int64
	for _, s := range m.rows[kind] {
		if s.Category != nil && *s.Category == name {
			n++
		}
	}
	return n, nil
}

func (m *memSpecimens) count(kind models.Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[kind])
}

// --- categories ---

type memCategories struct {
	mu   sync.Mutex
	next int64
	rows map[int64]*models.Category

	createErr error
	findErr   error
}

func newMemCategories() *memCategories {
	return &memCategories{rows: map[int64]*models.Category{}}
}

func (m *memCategories) Create(_ context.Context, name string, typ *string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.next++
	c := &models.Category{ID: m.next, Name: name, Type: typ, CreatedAt: time.Now()}
	m.rows[c.ID] = c
	return c, nil
}

func (m *memCategories) GetByID(_ context.Context, id int64) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (m *memCategories) FindByNameFold(_ context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, c := range m.rows {
		if strings.EqualFold(c.Name, name) {
			cc := *c
			return &cc, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memCategories) List(_ context.Context) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Category{}
	for _, c := range m.rows {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memCategories) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// --- admins ---

type memAdmins struct {
	mu   sync.Mutex
	rows map[string]*models.Admin
	err  error
}

func newMemAdmins() *memAdmins {
	return &memAdmins{rows: map[string]*models.Admin{}}
}

func (m *memAdmins) Create(_ context.Context, a *models.Admin) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, x := range m.rows {
		if strings.EqualFold(x.Email, a.Email) {
			return nil, common.ErrAlreadyExists
		}
	}
	a.ID = "admin-" + a.Email
	a.CreatedAt = time.Now()
	cp := *a
	m.rows[a.ID] = &cp
	return a, nil
}

func (m *memAdmins) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, x := range m.rows {
		if strings.EqualFold(x.Email, email) {
			cp := *x
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memAdmins) GetByID(_ context.Context, id string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	x, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *x
	return &cp, nil
}

// --- repo manager ---

type fakeRepoManager struct {
	specimens  *memSpecimens
	categories *memCategories
	admins     *memAdmins
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		specimens:  newMemSpecimens(),
		categories: newMemCategories(),
		admins:     newMemAdmins(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Specimens(dbx.DBTX) specimens.Repository      { return m.specimens }
func (m *fakeRepoManager) Categories(dbx.DBTX) categories.Repository    { return m.categories }
func (m *fakeRepoManager) Admins(dbx.DBTX) admins.Repository            { return m.admins }

// --- asset store ---

// fakeStore wraps the in-memory store and injects failures per folder.
type fakeStore struct {
	*assets.MemoryStore

	mu           sync.Mutex
	putErr       map[string]error // keyed by the last folder element, e.g. "qr"
	destroyErr   error
	puts         []assets.PutOptions
	destroyCalls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryStore: assets.NewMemoryStore("https://cdn.test"), putErr: map[string]error{}}
}

func (f *fakeStore) Put(ctx context.Context, r io.Reader, opts assets.PutOptions) (assets.Asset, error) {
	f.mu.Lock()
	f.puts = append(f.puts, opts)
	err := f.putErr[filepath.Base(opts.Folder)]
	f.mu.Unlock()
	if err != nil {
		return assets.Asset{}, err
	}
	return f.MemoryStore.Put(ctx, r, opts)
}

func (f *fakeStore) Destroy(ctx context.Context, handle string) error {
	f.mu.Lock()
	f.destroyCalls = append(f.destroyCalls, handle)
	err := f.destroyErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Destroy(ctx, handle)
}

func (f *fakeStore) putsTo(folderBase string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.puts {
		if filepath.Base(p.Folder) == folderBase {
			n++
		}
	}
	return n
}

func (f *fakeStore) has(handle string) bool {
	_, _, ok := f.Get(handle)
	return ok
}

// --- scan-code encoder ---

type fakeEncoder struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (e *fakeEncoder) Encode(url string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.urls = append(e.urls, url)
	if e.err != nil {
		return nil, e.err
	}
	return []byte("png:" + url), nil
}

var errBoom = errors.New("boom")

// --- staged files ---

func stagePNG(t *testing.T) *models.ImageFile {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return stageBytes(t, "leaf.png", buf.Bytes())
}

func stageBytes(t *testing.T, name string, data []byte) *models.ImageFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload-"+name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return &models.ImageFile{Path: path, OriginalName: name, Size: int64(len(data))}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
