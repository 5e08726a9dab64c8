package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
	"filehaven/internal/domain/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFileRepo struct {
	files  map[string]*models.File
	nextID int
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[string]*models.File)}
}

func (r *fakeFileRepo) add(t *testing.T, ownerID, name string, deleted bool) *models.File {
	t.Helper()
	r.nextID++
	f := &models.File{
		ID:        fmt.Sprintf("file-%d", r.nextID),
		OwnerID:   ownerID,
		Name:      name,
		SizeBytes: 10,
		IsDeleted: deleted,
	}
	r.files[f.ID] = f
	return f
}

func (r *fakeFileRepo) Create(_ context.Context, file *models.File) error {
	r.nextID++
	file.ID = fmt.Sprintf("file-%d", r.nextID)
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

func (r *fakeFileRepo) FindByName(context.Context, string, string, *string) (*models.File, error) {
	return nil, nil
}

func (r *fakeFileRepo) ListByFolder(context.Context, string, *string, repositories.TrashScope, repositories.Page) ([]models.File, error) {
	return nil, nil
}

func (r *fakeFileRepo) ListFolderFiles(context.Context, string, *string, repositories.TrashScope) ([]models.File, error) {
	return nil, nil
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
	return nil
}

func (r *fakeFileRepo) SetDeletedByFolder(context.Context, string, bool) error { return nil }

func (r *fakeFileRepo) SetStarred(context.Context, string, bool) error { return nil }

func (r *fakeFileRepo) SetFolder(context.Context, string, *string) error { return nil }

func (r *fakeFileRepo) SetCurrentVersion(context.Context, string, string, string, int64) error {
	return nil
}

func (r *fakeFileRepo) Delete(_ context.Context, id string) error {
	delete(r.files, id)
	return nil
}

func (r *fakeFileRepo) SumActiveSize(context.Context, string) (int64, error) { return 0, nil }

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

func newService() (services.ShareService, *fakeFileRepo, *fakeShareRepo) {
	files := newFakeFileRepo()
	shares := newFakeShareRepo()
	return NewShareService(files, shares, testLogger()), files, shares
}

func TestGrantPermission(t *testing.T) {
	ctx := context.Background()

	t.Run("grants and upserts", func(t *testing.T) {
		svc, files, _ := newService()
		file := files.add(t, "owner", "a.txt", false)

		first, err := svc.GrantPermission(ctx, &services.GrantPermissionRequest{
			OwnerID:        "owner",
			FileID:         file.ID,
			SharedWith:     "friend",
			PermissionType: models.PermissionView,
		})
		if err != nil {
			t.Fatalf("GrantPermission() error = %v", err)
		}

		second, err := svc.GrantPermission(ctx, &services.GrantPermissionRequest{
			OwnerID:        "owner",
			FileID:         file.ID,
			SharedWith:     "friend",
			PermissionType: models.PermissionEdit,
		})
		if err != nil {
			t.Fatalf("re-grant error = %v", err)
		}

		if second.ID != first.ID {
			t.Errorf("re-grant created a new row: %s vs %s", second.ID, first.ID)
		}
		if second.PermissionType != models.PermissionEdit {
			t.Errorf("permission type = %s, want edit after upsert", second.PermissionType)
		}
	})

	t.Run("rejects bad requests", func(t *testing.T) {
		svc, files, _ := newService()
		live := files.add(t, "owner", "a.txt", false)
		trashed := files.add(t, "owner", "b.txt", true)
		foreign := files.add(t, "other", "c.txt", false)

		tests := []struct {
			name    string
			req     *services.GrantPermissionRequest
			wantErr error
		}{
			{
				name:    "self share",
				req:     &services.GrantPermissionRequest{OwnerID: "owner", FileID: live.ID, SharedWith: "owner", PermissionType: models.PermissionView},
				wantErr: domain.ErrValidation,
			},
			{
				name:    "unknown permission type",
				req:     &services.GrantPermissionRequest{OwnerID: "owner", FileID: live.ID, SharedWith: "friend", PermissionType: "admin"},
				wantErr: domain.ErrValidation,
			},
			{
				name:    "not the owner",
				req:     &services.GrantPermissionRequest{OwnerID: "owner", FileID: foreign.ID, SharedWith: "friend", PermissionType: models.PermissionView},
				wantErr: domain.ErrForbidden,
			},
			{
				name:    "trashed file",
				req:     &services.GrantPermissionRequest{OwnerID: "owner", FileID: trashed.ID, SharedWith: "friend", PermissionType: models.PermissionView},
				wantErr: domain.ErrNotFound,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.GrantPermission(ctx, tt.req)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GrantPermission() error = %v, want %v", err, tt.wantErr)
				}
			})
		}
	})
}

func TestRevokePermission(t *testing.T) {
	ctx := context.Background()
	svc, files, shares := newService()
	file := files.add(t, "owner", "a.txt", false)

	if _, err := svc.GrantPermission(ctx, &services.GrantPermissionRequest{
		OwnerID: "owner", FileID: file.ID, SharedWith: "friend", PermissionType: models.PermissionView,
	}); err != nil {
		t.Fatal(err)
	}

	if err := svc.RevokePermission(ctx, "owner", file.ID, "friend"); err != nil {
		t.Fatalf("RevokePermission() error = %v", err)
	}
	if len(shares.perms) != 0 {
		t.Error("permission row survived the revoke")
	}

	if err := svc.RevokePermission(ctx, "owner", file.ID, "friend"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second revoke error = %v, want ErrNotFound", err)
	}
}

func TestListSharedWithMe(t *testing.T) {
	ctx := context.Background()
	svc, files, _ := newService()

	shared := files.add(t, "owner", "a.txt", false)
	trashed := files.add(t, "owner", "b.txt", false)

	for _, f := range []*models.File{shared, trashed} {
		if _, err := svc.GrantPermission(ctx, &services.GrantPermissionRequest{
			OwnerID: "owner", FileID: f.ID, SharedWith: "friend", PermissionType: models.PermissionView,
		}); err != nil {
			t.Fatal(err)
		}
	}

	// A soft delete after the grant must hide the file from the recipient.
	if err := files.SetDeleted(ctx, trashed.ID, true); err != nil {
		t.Fatal(err)
	}

	got, err := svc.ListSharedWithMe(ctx, "friend")
	if err != nil {
		t.Fatalf("ListSharedWithMe() error = %v", err)
	}
	if len(got) != 1 || got[0].File.ID != shared.ID {
		t.Fatalf("shared files = %v, want only the live one", got)
	}
	if got[0].Permission.SharedWith != "friend" {
		t.Errorf("permission pairing = %+v", got[0].Permission)
	}

	none, err := svc.ListSharedWithMe(ctx, "stranger")
	if err != nil {
		t.Fatalf("ListSharedWithMe(stranger) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("stranger sees %d shared files, want none", len(none))
	}
}

func TestCreateShareLink(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a long random token", func(t *testing.T) {
		svc, files, _ := newService()
		file := files.add(t, "owner", "a.txt", false)

		first, err := svc.CreateShareLink(ctx, &services.CreateShareLinkRequest{
			OwnerID: "owner", FileID: file.ID, PermissionType: models.PermissionView,
		})
		if err != nil {
			t.Fatalf("CreateShareLink() error = %v", err)
		}
		second, err := svc.CreateShareLink(ctx, &services.CreateShareLinkRequest{
			OwnerID: "owner", FileID: file.ID, PermissionType: models.PermissionView,
		})
		if err != nil {
			t.Fatalf("second CreateShareLink() error = %v", err)
		}

		if len(first.LinkToken) != tokenBytes*2 {
			t.Errorf("token length = %d, want %d hex chars", len(first.LinkToken), tokenBytes*2)
		}
		if first.LinkToken == second.LinkToken {
			t.Error("two links carry the same token")
		}
		if !first.IsActive {
			t.Error("new link must start active")
		}
		if first.ExpiresAt != nil {
			t.Error("link without expiry must carry a nil ExpiresAt")
		}
	})

	t.Run("sets expiry from hours", func(t *testing.T) {
		svc, files, _ := newService()
		file := files.add(t, "owner", "a.txt", false)

		link, err := svc.CreateShareLink(ctx, &services.CreateShareLinkRequest{
			OwnerID: "owner", FileID: file.ID, PermissionType: models.PermissionView, ExpiresInHours: 24,
		})
		if err != nil {
			t.Fatalf("CreateShareLink() error = %v", err)
		}
		if link.ExpiresAt == nil {
			t.Fatal("ExpiresAt not set")
		}
		until := time.Until(*link.ExpiresAt)
		if until < 23*time.Hour || until > 25*time.Hour {
			t.Errorf("expiry %v from now, want about 24h", until)
		}
	})

	t.Run("requires ownership", func(t *testing.T) {
		svc, files, _ := newService()
		file := files.add(t, "other", "a.txt", false)

		_, err := svc.CreateShareLink(ctx, &services.CreateShareLinkRequest{
			OwnerID: "owner", FileID: file.ID, PermissionType: models.PermissionView,
		})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("CreateShareLink(foreign) error = %v, want ErrForbidden", err)
		}
	})
}

func TestResolveShareLink(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves an active link", func(t *testing.T) {
		svc, files, _ := newService()
		file := files.add(t, "owner", "a.txt", false)

		link, err := svc.CreateShareLink(ctx, &services.CreateShareLinkRequest{
			OwnerID: "owner", FileID: file.ID, PermissionType: models.PermissionView,
		})
		if err != nil {
			t.Fatal(err)
		}

		gotFile, gotLink, err := svc.ResolveShareLink(ctx, link.LinkToken)
		if err != nil {
			t.Fatalf("ResolveShareLink() error = %v", err)
		}
		if gotFile.ID != file.ID || gotLink.LinkToken != link.LinkToken {
			t.Errorf("resolved (%s, %s), want (%s, %s)", gotFile.ID, gotLink.LinkToken, file.ID, link.LinkToken)
		}
	})

	t.Run("dead tokens look identical", func(t *testing.T) {
		svc, files, shares := newService()
		file := files.add(t, "owner", "a.txt", false)

		revoked, err := svc.CreateShareLink(ctx, &services.CreateShareLinkRequest{
			OwnerID: "owner", FileID: file.ID, PermissionType: models.PermissionView,
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := svc.RevokeShareLink(ctx, "owner", file.ID, revoked.LinkToken); err != nil {
			t.Fatal(err)
		}

		expired := &models.ShareLink{FileID: file.ID, LinkToken: "expired-token", CreatedBy: "owner", PermissionType: models.PermissionView, IsActive: true}
		past := time.Now().Add(-time.Hour)
		expired.ExpiresAt = &past
		if err := shares.CreateShareLink(ctx, expired); err != nil {
			t.Fatal(err)
		}

		onTrashed, err := svc.CreateShareLink(ctx, &services.CreateShareLinkRequest{
			OwnerID: "owner", FileID: file.ID, PermissionType: models.PermissionView,
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := files.SetDeleted(ctx, file.ID, true); err != nil {
			t.Fatal(err)
		}

		tests := []struct {
			name  string
			token string
		}{
			{name: "empty token", token: ""},
			{name: "unknown token", token: "no-such-token"},
			{name: "revoked link", token: revoked.LinkToken},
			{name: "expired link", token: expired.LinkToken},
			{name: "trashed target", token: onTrashed.LinkToken},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := svc.ResolveShareLink(ctx, tt.token)
				if !errors.Is(err, domain.ErrNotFound) {
					t.Errorf("ResolveShareLink(%q) error = %v, want ErrNotFound", tt.token, err)
				}
			})
		}
	})
}

func TestRevokeShareLink_KeepsRow(t *testing.T) {
	ctx := context.Background()
	svc, files, shares := newService()
	file := files.add(t, "owner", "a.txt", false)

	link, err := svc.CreateShareLink(ctx, &services.CreateShareLinkRequest{
		OwnerID: "owner", FileID: file.ID, PermissionType: models.PermissionView,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.RevokeShareLink(ctx, "owner", file.ID, link.LinkToken); err != nil {
		t.Fatalf("RevokeShareLink() error = %v", err)
	}

	stored, ok := shares.links[link.LinkToken]
	if !ok {
		t.Fatal("revoke must keep the link row")
	}
	if stored.IsActive {
		t.Error("revoked link still active")
	}
}

func TestCanAccess(t *testing.T) {
	ctx := context.Background()
	svc, files, _ := newService()

	file := files.add(t, "owner", "a.txt", false)
	if _, err := svc.GrantPermission(ctx, &services.GrantPermissionRequest{
		OwnerID: "owner", FileID: file.ID, SharedWith: "friend", PermissionType: models.PermissionView,
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		userID string
		want   bool
	}{
		{name: "owner always", userID: "owner", want: true},
		{name: "grantee", userID: "friend", want: true},
		{name: "stranger", userID: "stranger", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CanAccess(ctx, tt.userID, file.ID)
			if err != nil {
				t.Fatalf("CanAccess() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanAccess(%s) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}

	if _, err := svc.CanAccess(ctx, "owner", "no-such-file"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("CanAccess(missing file) error = %v, want ErrNotFound", err)
	}
}
