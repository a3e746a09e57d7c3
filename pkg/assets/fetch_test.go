package assets

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testServer(t *testing.T, files map[string][]byte) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path == "/broken" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetch(t *testing.T) {
	srv, _ := testServer(t, map[string][]byte{"/a.bin": []byte("hello")})
	ctx := context.Background()

	data, err := Fetch(ctx, srv.Client(), srv.URL+"/a.bin")
	if err != nil || string(data) != "hello" {
		t.Errorf("Fetch = %q, %v", data, err)
	}

	if _, err := Fetch(ctx, srv.Client(), srv.URL+"/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file error = %v; want ErrNotFound", err)
	}

	if _, err := Fetch(ctx, srv.Client(), srv.URL+"/broken"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("server error = %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Fetch(cancelled, srv.Client(), srv.URL+"/a.bin"); err == nil {
		t.Errorf("expected an error for a cancelled context")
	}
}

func TestDownloadFile(t *testing.T) {
	payload := bytes.Repeat([]byte{7}, 3*1024*1024)
	srv, _ := testServer(t, map[string][]byte{"/big.jpg": payload})
	dir := t.TempDir()
	path := filepath.Join(dir, "big.jpg")

	if err := DownloadFile(context.Background(), srv.Client(), srv.URL+"/big.jpg", path); err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("downloaded file mismatch (%d bytes, %v)", len(got), err)
	}

	err = DownloadFile(context.Background(), srv.Client(), srv.URL+"/nope.jpg", filepath.Join(dir, "nope.jpg"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v; want ErrNotFound", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestCacheFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/textures/earth.jpg", "earth.jpg"},
		{"https://example.com/map.geojson?v=2", "map.geojson"},
		{"https://example.com/dir/", "dir"},
		{"earth.png", "earth.png"},
	}
	for _, tt := range tests {
		if got := CacheFileName(tt.url); got != tt.want {
			t.Errorf("CacheFileName(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}
