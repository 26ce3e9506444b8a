package profile_test

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/anyjobhub/qalbii/internal/profile"
)

// fakeRepo is an in-memory profile.Repository.
type fakeRepo struct {
	profiles map[int64]*profile.Profile

	searchQuery string
	searchLimit int
	pictures    map[int64]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles: make(map[int64]*profile.Profile),
		pictures: make(map[int64]string),
	}
}

func (r *fakeRepo) GetProfile(ctx context.Context, userID int64) (*profile.Profile, error) {
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	return nil, profile.ErrProfileNotFound
}

func (r *fakeRepo) UpdateProfile(ctx context.Context, userID int64, req *profile.UpdateProfileRequest) error {
	p, ok := r.profiles[userID]
	if !ok {
		return profile.ErrProfileNotFound
	}
	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	if req.Bio != nil {
		p.Bio = req.Bio
	}
	return nil
}

func (r *fakeRepo) UpdateProfilePicture(ctx context.Context, userID int64, url string) error {
	r.pictures[userID] = url
	return nil
}

func (r *fakeRepo) SearchUsers(ctx context.Context, excludeUserID int64, query string, limit int) ([]*profile.Profile, error) {
	r.searchQuery = query
	r.searchLimit = limit
	var out []*profile.Profile
	for id, p := range r.profiles {
		if id == excludeUserID {
			continue
		}
		if strings.Contains(strings.ToLower(p.Username), strings.ToLower(query)) {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeUploader records uploads without touching storage.
type fakeUploader struct {
	uploads []string
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, file io.Reader, filename, contentType, folder string) (string, error) {
	u.uploads = append(u.uploads, folder+"/"+filename)
	return "https://cdn.example/" + folder + "/" + filename, nil
}

func (u *fakeUploader) UploadMultipartFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.uploads = append(u.uploads, folder+"/"+header.Filename)
	return "https://cdn.example/" + folder + "/" + header.Filename, nil
}

func (u *fakeUploader) Delete(ctx context.Context, url string) error {
	return nil
}

func imageHeader(filename, contentType string) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: filename,
		Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
	}
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newFakeRepo()
	repo.profiles[1] = &profile.Profile{ID: 1, Username: "amina", FullName: "Amina Hassan"}
	svc := profile.NewService(repo, &fakeUploader{})

	name := "Amina H."
	bio := "salaam"
	updated, err := svc.UpdateProfile(ctx, 1, &profile.UpdateProfileRequest{FullName: &name, Bio: &bio})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FullName != "Amina H." {
		t.Errorf("FullName = %q", updated.FullName)
	}
	if updated.Bio == nil || *updated.Bio != "salaam" {
		t.Error("bio was not updated")
	}

	// Omitted fields are left alone
	other := "just the bio"
	updated, err = svc.UpdateProfile(ctx, 1, &profile.UpdateProfileRequest{Bio: &other})
	if err != nil {
		t.Fatalf("partial UpdateProfile: %v", err)
	}
	if updated.FullName != "Amina H." {
		t.Errorf("FullName changed to %q on a partial update", updated.FullName)
	}
}

func TestUploadProfilePicture(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("accepts images", func(t *testing.T) {
		t.Parallel()
		repo := newFakeRepo()
		uploader := &fakeUploader{}
		svc := profile.NewService(repo, uploader)

		url, err := svc.UploadProfilePicture(ctx, 1, nil, imageHeader("me.png", "image/png"))
		if err != nil {
			t.Fatalf("UploadProfilePicture: %v", err)
		}
		if url == "" {
			t.Fatal("empty url")
		}
		if repo.pictures[1] != url {
			t.Error("picture url was not saved")
		}
		if len(uploader.uploads) != 1 || !strings.HasPrefix(uploader.uploads[0], "avatars/") {
			t.Errorf("uploads = %v", uploader.uploads)
		}
	})

	t.Run("rejects non-images", func(t *testing.T) {
		t.Parallel()
		repo := newFakeRepo()
		svc := profile.NewService(repo, &fakeUploader{})

		_, err := svc.UploadProfilePicture(ctx, 1, nil, imageHeader("cv.pdf", "application/pdf"))
		if !errors.Is(err, profile.ErrInvalidImageFormat) {
			t.Errorf("err = %v, want ErrInvalidImageFormat", err)
		}
	})

	t.Run("upload failure does not touch the profile", func(t *testing.T) {
		t.Parallel()
		repo := newFakeRepo()
		uploader := &fakeUploader{err: errors.New("bucket offline")}
		svc := profile.NewService(repo, uploader)

		if _, err := svc.UploadProfilePicture(ctx, 1, nil, imageHeader("me.png", "image/png")); err == nil {
			t.Fatal("expected upload error")
		}
		if len(repo.pictures) != 0 {
			t.Error("picture saved despite failed upload")
		}
	})
}

func TestSearchUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("blank query returns nothing", func(t *testing.T) {
		t.Parallel()
		repo := newFakeRepo()
		svc := profile.NewService(repo, &fakeUploader{})

		results, err := svc.SearchUsers(ctx, 1, "   ", 10)
		if err != nil {
			t.Fatalf("SearchUsers: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("results = %d, want 0", len(results))
		}
		if repo.searchQuery != "" {
			t.Error("blank query reached the repository")
		}
	})

	t.Run("clamps a bad limit", func(t *testing.T) {
		t.Parallel()
		repo := newFakeRepo()
		svc := profile.NewService(repo, &fakeUploader{})

		for _, limit := range []int{0, -1, 500} {
			if _, err := svc.SearchUsers(ctx, 1, "ami", limit); err != nil {
				t.Fatalf("SearchUsers(limit=%d): %v", limit, err)
			}
			if repo.searchLimit != 20 {
				t.Errorf("limit %d reached the repository as %d, want 20", limit, repo.searchLimit)
			}
		}
	})

	t.Run("excludes the caller", func(t *testing.T) {
		t.Parallel()
		repo := newFakeRepo()
		repo.profiles[1] = &profile.Profile{ID: 1, Username: "amina"}
		repo.profiles[2] = &profile.Profile{ID: 2, Username: "aminata"}
		svc := profile.NewService(repo, &fakeUploader{})

		results, err := svc.SearchUsers(ctx, 1, "amin", 10)
		if err != nil {
			t.Fatalf("SearchUsers: %v", err)
		}
		if len(results) != 1 || results[0].ID != 2 {
			t.Errorf("results = %+v", results)
		}
	})
}
