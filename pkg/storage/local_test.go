package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorageUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080/uploads/")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()

	resp, err := s.Upload(ctx, &UploadRequest{
		Key:         "vehicles/d1/car.jpg",
		Reader:      bytes.NewReader([]byte("jpeg")),
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.URL != "http://localhost:8080/uploads/vehicles/d1/car.jpg" {
		t.Fatalf("URL = %q", resp.URL)
	}
	if resp.Size != 4 {
		t.Fatalf("Size = %d", resp.Size)
	}

	key, ok := s.KeyFromURL(resp.URL)
	if !ok || key != "vehicles/d1/car.jpg" {
		t.Fatalf("KeyFromURL = %q, %v", key, ok)
	}

	if ok, _ := s.FileExists(ctx, key); !ok {
		t.Fatalf("file should exist")
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, key)); !os.IsNotExist(err) {
		t.Fatalf("file still on disk: %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestLocalStorageKeyEscape(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewLocalStorage(dir, "http://x")

	resp, err := s.Upload(context.Background(), &UploadRequest{
		Key:    "../../etc/evil",
		Reader: bytes.NewReader([]byte("x")),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "etc", "evil")); err != nil {
		t.Fatalf("upload escaped base path (key %q): %v", resp.Key, err)
	}
}

func TestKeyFromForeignURL(t *testing.T) {
	s, _ := NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	if _, ok := s.KeyFromURL("https://res.cloudinary.com/x.jpg"); ok {
		t.Fatalf("foreign url should not match")
	}
}
