package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/viant/afs"
)

func newMemStore(t *testing.T, public string) *PackageStore {
	t.Helper()
	base := "mem://localhost/packages-" + uuid.NewString()
	s, err := NewPackageStore(context.Background(), base, public)
	if err != nil {
		t.Fatalf("Failed to create package store: %v", err)
	}
	return s
}

func TestPutStoresUnderBlockRegionVersion(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t, "https://cdn.example.com/blocks/")

	pkg, err := s.Put(ctx, "b1", "*", "1.0.0", "../../bundle.zip", strings.NewReader("zip-bytes"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if pkg.Size != int64(len("zip-bytes")) {
		t.Errorf("Expected size %d, got %d", len("zip-bytes"), pkg.Size)
	}
	if pkg.URL != "https://cdn.example.com/blocks/b1/all/1.0.0/bundle.zip" {
		t.Errorf("Unexpected public URL %s", pkg.URL)
	}
	if !strings.HasSuffix(pkg.Location, "/b1/all/1.0.0/bundle.zip") {
		t.Errorf("Unexpected location %s", pkg.Location)
	}

	data, err := afs.New().DownloadWithURL(ctx, pkg.Location)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(data) != "zip-bytes" {
		t.Errorf("Expected stored bytes, got %q", data)
	}

	if err := s.Delete(ctx, pkg); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if exists, _ := afs.New().Exists(ctx, pkg.Location); exists {
		t.Error("Expected package to be gone after Delete")
	}
	if err := s.Delete(ctx, pkg); err != nil {
		t.Errorf("Expected deleting twice to succeed, got %v", err)
	}
}

func TestPutWithoutPublicURL(t *testing.T) {
	s := newMemStore(t, "")
	pkg, err := s.Put(context.Background(), "b1", "cn", "2.0.0", "bundle.js", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if pkg.URL != pkg.Location {
		t.Errorf("Expected location to double as URL, got %s vs %s", pkg.URL, pkg.Location)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestPutRejectsBadNames(t *testing.T) {
	s := newMemStore(t, "")
	for _, name := range []string{"", ".", "/", ".."} {
		if _, err := s.Put(context.Background(), "b1", "cn", "1.0.0", name, strings.NewReader("x")); err != ErrInvalidName {
			t.Errorf("Expected ErrInvalidName for %q, got %v", name, err)
		}
	}
}

func TestPutReportsBytesWritten(t *testing.T) {
	ctx := context.Background()
	payload := strings.Repeat("block-package-", 1000)

	dir := t.TempDir()
	stores := map[string]*PackageStore{"mem": newMemStore(t, "")}
	onDisk, err := NewPackageStore(ctx, dir, "")
	if err != nil {
		t.Fatalf("Failed to create package store: %v", err)
	}
	stores["file"] = onDisk

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			pkg, err := s.Put(ctx, "b1", "cn", "1.0.0", "bundle.js", strings.NewReader(payload))
			if err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if pkg.Size != int64(len(payload)) {
				t.Errorf("Expected size %d, got %d", len(payload), pkg.Size)
			}

			empty, err := s.Put(ctx, "b1", "cn", "1.0.1", "empty.js", strings.NewReader(""))
			if err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if empty.Size != 0 {
				t.Errorf("Expected size 0, got %d", empty.Size)
			}
		})
	}

	info, err := os.Stat(filepath.Join(dir, "b1", "cn", "1.0.0", "bundle.js"))
	if err != nil {
		t.Fatalf("Expected package on disk: %v", err)
	}
	if info.Size() != int64(len(payload)) {
		t.Errorf("Expected %d bytes on disk, got %d", len(payload), info.Size())
	}
}
