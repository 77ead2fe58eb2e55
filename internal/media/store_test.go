package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreAndServeURL(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "/media", 1<<20)

	url, err := store.Store([]byte("jpeg-bytes"), "u-1/frame.jpg")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if url != "/media/u-1/frame.jpg" {
		t.Errorf("url = %q, want /media/u-1/frame.jpg", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "u-1", "frame.jpg"))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("stored content = %q", data)
	}
}

func TestStoreRejectsOversize(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/media", 4)

	_, err := store.Store([]byte("too big"), "u-1/frame.jpg")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", err)
	}
}

func TestStoreRejectsDisallowedType(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/media", 1<<20)

	for _, path := range []string{"u-1/script.sh", "u-1/page.html", "u-1/noext"} {
		if _, err := store.Store([]byte("x"), path); !errors.Is(err, ErrTypeNotAllowed) {
			t.Errorf("path %q: error = %v, want ErrTypeNotAllowed", path, err)
		}
	}
}

func TestStoreStripsTraversal(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "/media", 1<<20)

	if _, err := store.Store([]byte("x"), "../../etc/evil.jpg"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// The file must land inside the store directory.
	if _, err := os.Stat(filepath.Join(dir, "etc", "evil.jpg")); err != nil {
		t.Errorf("file not written inside the store directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(filepath.Dir(dir)), "etc", "evil.jpg")); err == nil {
		t.Error("file escaped the store directory")
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "/media", 1<<20)

	if _, err := store.Store([]byte("x"), "u-1/frame.jpg"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := store.Delete("u-1/frame.jpg", "u-2"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("error = %v, want ErrNotOwner", err)
	}

	if err := store.Delete("u-1/frame.jpg", "u-1"); err != nil {
		t.Errorf("Delete by owner: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "u-1", "frame.jpg")); !os.IsNotExist(err) {
		t.Error("file still present after delete")
	}
}

func TestDeleteMissingFile(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/media", 1<<20)

	if err := store.Delete("u-1/gone.jpg", "u-1"); err == nil {
		t.Error("expected error deleting a missing file")
	}
}
