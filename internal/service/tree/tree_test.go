package tree

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
)

// In-memory repository fakes shared by the resolver, mutator, and reader
// tests. They mirror the Postgres semantics the services rely on: active
// uniqueness on (owner, name, parent), trash scoping, and updated_at
// descending order.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func matchesScope(scope repositories.TrashScope, deleted bool) bool {
	switch scope {
	case repositories.ScopeActive:
		return !deleted
	case repositories.ScopeTrashed:
		return deleted
	default:
		return true
	}
}

func strPtr(s string) *string { return &s }

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type fakeFolderRepo struct {
	folders map[string]*models.Folder
	nextID  int
	clock   int64

	createErr error
	// conflictOnce makes the next Create return ErrConflict without
	// inserting, simulating a concurrent winner.
	conflictOnce bool
	// hideChildOnce makes the next FindChild miss, simulating a row
	// inserted by another request between lookup and insert.
	hideChildOnce bool
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[string]*models.Folder)}
}

func (r *fakeFolderRepo) tick() time.Time {
	r.clock++
	return time.Unix(0, r.clock)
}

func (r *fakeFolderRepo) Create(_ context.Context, folder *models.Folder) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.conflictOnce {
		r.conflictOnce = false
		return fmt.Errorf("folder '%s': %w", folder.Name, domain.ErrConflict)
	}
	for _, f := range r.folders {
		if !f.IsDeleted && f.OwnerID == folder.OwnerID && f.Name == folder.Name && samePtr(f.ParentID, folder.ParentID) {
			// Mirror the repository contract: a duplicate surfaces the
			// winning row without failing a statement.
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder '%s' already exists", folder.Name),
				ResourceType: "folder",
				ResourceID:   f.ID,
			}
		}
	}
	r.nextID++
	folder.ID = fmt.Sprintf("folder-%d", r.nextID)
	folder.CreatedAt = r.tick()
	folder.UpdatedAt = folder.CreatedAt
	cp := *folder
	r.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) GetByID(_ context.Context, id string) (*models.Folder, error) {
	f, ok := r.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFolderRepo) FindChild(_ context.Context, ownerID, name string, parentID *string) (*models.Folder, error) {
	if r.hideChildOnce {
		r.hideChildOnce = false
		return nil, nil
	}
	for _, f := range r.folders {
		if !f.IsDeleted && f.OwnerID == ownerID && f.Name == name && samePtr(f.ParentID, parentID) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFolderRepo) list(ownerID string, parentID *string, scope repositories.TrashScope) []models.Folder {
	var out []models.Folder
	for _, f := range r.folders {
		if f.OwnerID == ownerID && samePtr(f.ParentID, parentID) && matchesScope(scope, f.IsDeleted) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (r *fakeFolderRepo) ListChildren(_ context.Context, ownerID string, parentID *string, scope repositories.TrashScope, page repositories.Page) ([]models.Folder, error) {
	all := r.list(ownerID, parentID, scope)
	if page.Offset >= len(all) {
		return nil, nil
	}
	end := page.Offset + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[page.Offset:end], nil
}

func (r *fakeFolderRepo) ListSubfolders(_ context.Context, ownerID string, parentID *string, scope repositories.TrashScope) ([]models.Folder, error) {
	return r.list(ownerID, parentID, scope), nil
}

func (r *fakeFolderRepo) SetDeleted(_ context.Context, id string, deleted bool) error {
	f, ok := r.folders[id]
	if !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	f.IsDeleted = deleted
	f.UpdatedAt = r.tick()
	return nil
}

func (r *fakeFolderRepo) Rename(_ context.Context, id, name string) error {
	f, ok := r.folders[id]
	if !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	f.Name = name
	f.UpdatedAt = r.tick()
	return nil
}

func (r *fakeFolderRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.folders[id]; !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	delete(r.folders, id)
	return nil
}

type fakeFileRepo struct {
	files  map[string]*models.File
	nextID int
	clock  int64
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[string]*models.File)}
}

func (r *fakeFileRepo) tick() time.Time {
	r.clock++
	return time.Unix(1, r.clock)
}

func (r *fakeFileRepo) Create(_ context.Context, file *models.File) error {
	r.nextID++
	file.ID = fmt.Sprintf("file-%d", r.nextID)
	file.CreatedAt = r.tick()
	file.UpdatedAt = file.CreatedAt
	cp := *file
	r.files[file.ID] = &cp
	return nil
}

func (r *fakeFileRepo) GetByID(_ context.Context, id string) (*models.File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFileRepo) FindByName(_ context.Context, ownerID, name string, folderID *string) (*models.File, error) {
	for _, f := range r.files {
		if !f.IsDeleted && f.OwnerID == ownerID && f.Name == name && samePtr(f.FolderID, folderID) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFileRepo) list(ownerID string, folderID *string, scope repositories.TrashScope) []models.File {
	var out []models.File
	for _, f := range r.files {
		if f.OwnerID == ownerID && samePtr(f.FolderID, folderID) && matchesScope(scope, f.IsDeleted) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (r *fakeFileRepo) ListByFolder(_ context.Context, ownerID string, folderID *string, scope repositories.TrashScope, page repositories.Page) ([]models.File, error) {
	all := r.list(ownerID, folderID, scope)
	if page.Offset >= len(all) {
		return nil, nil
	}
	end := page.Offset + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[page.Offset:end], nil
}

func (r *fakeFileRepo) ListFolderFiles(_ context.Context, ownerID string, folderID *string, scope repositories.TrashScope) ([]models.File, error) {
	return r.list(ownerID, folderID, scope), nil
}

func (r *fakeFileRepo) ListByIDs(_ context.Context, ids []string) ([]models.File, error) {
	var out []models.File
	for _, id := range ids {
		if f, ok := r.files[id]; ok && !f.IsDeleted {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) SetDeleted(_ context.Context, id string, deleted bool) error {
	f, ok := r.files[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	f.IsDeleted = deleted
	f.UpdatedAt = r.tick()
	return nil
}

func (r *fakeFileRepo) SetDeletedByFolder(_ context.Context, folderID string, deleted bool) error {
	for _, f := range r.files {
		if f.FolderID != nil && *f.FolderID == folderID {
			f.IsDeleted = deleted
			f.UpdatedAt = r.tick()
		}
	}
	return nil
}

func (r *fakeFileRepo) SetStarred(_ context.Context, id string, starred bool) error {
	f, ok := r.files[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	f.IsStarred = starred
	f.UpdatedAt = r.tick()
	return nil
}

func (r *fakeFileRepo) SetFolder(_ context.Context, id string, folderID *string) error {
	f, ok := r.files[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	f.FolderID = folderID
	f.UpdatedAt = r.tick()
	return nil
}

func (r *fakeFileRepo) SetCurrentVersion(_ context.Context, id, storageKey, checksum string, sizeBytes int64) error {
	f, ok := r.files[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	f.StorageKey = storageKey
	f.Checksum = checksum
	f.SizeBytes = sizeBytes
	f.UpdatedAt = r.tick()
	return nil
}

func (r *fakeFileRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.files[id]; !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	delete(r.files, id)
	return nil
}

func (r *fakeFileRepo) SumActiveSize(_ context.Context, ownerID string) (int64, error) {
	var total int64
	for _, f := range r.files {
		if f.OwnerID == ownerID && !f.IsDeleted {
			total += f.SizeBytes
		}
	}
	return total, nil
}

type fakeVersionRepo struct {
	versions map[string]*models.FileVersion
	nextID   int
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{versions: make(map[string]*models.FileVersion)}
}

func (r *fakeVersionRepo) Create(_ context.Context, version *models.FileVersion) error {
	max := 0
	for _, v := range r.versions {
		if v.FileID == version.FileID && v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	r.nextID++
	version.ID = fmt.Sprintf("version-%d", r.nextID)
	version.VersionNumber = max + 1
	cp := *version
	r.versions[version.ID] = &cp
	return nil
}

func (r *fakeVersionRepo) GetByID(_ context.Context, id string) (*models.FileVersion, error) {
	v, ok := r.versions[id]
	if !ok {
		return nil, fmt.Errorf("file version %s: %w", id, domain.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVersionRepo) ListByFile(_ context.Context, fileID string) ([]models.FileVersion, error) {
	var out []models.FileVersion
	for _, v := range r.versions {
		if v.FileID == fileID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (r *fakeVersionRepo) DeleteByFile(_ context.Context, fileID string) error {
	for id, v := range r.versions {
		if v.FileID == fileID {
			delete(r.versions, id)
		}
	}
	return nil
}

type fakeShareRepo struct {
	perms  map[string]*models.Permission
	links  map[string]*models.ShareLink
	nextID int
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{
		perms: make(map[string]*models.Permission),
		links: make(map[string]*models.ShareLink),
	}
}

func permKey(fileID, userID string) string { return fileID + "/" + userID }

func (r *fakeShareRepo) UpsertPermission(_ context.Context, perm *models.Permission) error {
	key := permKey(perm.FileID, perm.SharedWith)
	if existing, ok := r.perms[key]; ok {
		existing.PermissionType = perm.PermissionType
		*perm = *existing
		return nil
	}
	r.nextID++
	perm.ID = fmt.Sprintf("perm-%d", r.nextID)
	cp := *perm
	r.perms[key] = &cp
	return nil
}

func (r *fakeShareRepo) GetPermission(_ context.Context, fileID, userID string) (*models.Permission, error) {
	p, ok := r.perms[permKey(fileID, userID)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeShareRepo) ListPermissionsFor(_ context.Context, userID string) ([]models.Permission, error) {
	var out []models.Permission
	for _, p := range r.perms {
		if p.SharedWith == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeShareRepo) DeletePermission(_ context.Context, fileID, userID string) error {
	key := permKey(fileID, userID)
	if _, ok := r.perms[key]; !ok {
		return fmt.Errorf("permission on file %s: %w", fileID, domain.ErrNotFound)
	}
	delete(r.perms, key)
	return nil
}

func (r *fakeShareRepo) DeletePermissionsByFile(_ context.Context, fileID string) error {
	for key, p := range r.perms {
		if p.FileID == fileID {
			delete(r.perms, key)
		}
	}
	return nil
}

func (r *fakeShareRepo) CreateShareLink(_ context.Context, link *models.ShareLink) error {
	if _, ok := r.links[link.LinkToken]; ok {
		return fmt.Errorf("share link token: %w", domain.ErrConflict)
	}
	r.nextID++
	link.ID = fmt.Sprintf("link-%d", r.nextID)
	cp := *link
	r.links[link.LinkToken] = &cp
	return nil
}

func (r *fakeShareRepo) GetShareLinkByToken(_ context.Context, token string) (*models.ShareLink, error) {
	l, ok := r.links[token]
	if !ok {
		return nil, fmt.Errorf("share link: %w", domain.ErrNotFound)
	}
	cp := *l
	return &cp, nil
}

func (r *fakeShareRepo) DeactivateShareLink(_ context.Context, fileID, token string) error {
	l, ok := r.links[token]
	if !ok || l.FileID != fileID {
		return fmt.Errorf("share link: %w", domain.ErrNotFound)
	}
	l.IsActive = false
	return nil
}

func (r *fakeShareRepo) DeleteShareLinksByFile(_ context.Context, fileID string) error {
	for token, l := range r.links {
		if l.FileID == fileID {
			delete(r.links, token)
		}
	}
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type fakeBlobStore struct {
	objects map[string][]byte
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (b *fakeBlobStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.objects[key] = data
	return nil
}

func (b *fakeBlobStore) SignedURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://blobs.test/" + key + "?signed=1", nil
}

func (b *fakeBlobStore) Delete(_ context.Context, key string) error {
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}
