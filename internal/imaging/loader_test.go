package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// writeTestImage writes a uniform PNG to path.
func writeTestImage(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fillRect(img, img.Rect, c)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := filepath.Join(t.TempDir(), "sheet.png")
	writeTestImage(t, path, 100, 80, color.White)

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img1.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", b.Dx(), b.Dy())
	}

	// Second load should return cached image
	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_ReloadsChangedFile(t *testing.T) {
	cache := NewImageCache()
	path := filepath.Join(t.TempDir(), "sheet.png")
	writeTestImage(t, path, 100, 80, color.White)

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// A rescan overwrites the file; move the mtime so the change is visible
	// even on filesystems with coarse timestamps.
	writeTestImage(t, path, 60, 40, color.Black)
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	img, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load after rescan failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 40 {
		t.Errorf("stale image: got %dx%d, want 60x40", b.Dx(), b.Dy())
	}
}

func TestImageCache_DropsEntryWhenFileTurnsInvalid(t *testing.T) {
	cache := NewImageCache()
	path := filepath.Join(t.TempDir(), "sheet.png")
	writeTestImage(t, path, 20, 20, color.White)

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := cache.Load(path)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
	if de.Source != path {
		t.Errorf("Source: got %q, want %q", de.Source, path)
	}
	if de.Kind() != "decode" {
		t.Errorf("Kind: got %q, want decode", de.Kind())
	}

	cache.mu.RLock()
	_, exists := cache.entries[path]
	cache.mu.RUnlock()
	if exists {
		t.Error("invalid file left a cache entry behind")
	}
}

func TestImageCache_Load_MissingFileIsNotDecodeError(t *testing.T) {
	_, err := NewImageCache().Load(filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Fatal("Load should fail for missing file")
	}
	var de *DecodeError
	if errors.As(err, &de) {
		t.Error("missing file must not be reported as a decode error")
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := filepath.Join(t.TempDir(), "sheet.png")
	writeTestImage(t, path, 50, 50, color.Gray{Y: 128})

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestDecode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 12, 7))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	decoded, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != 12 || decoded.Bounds().Dy() != 7 {
		t.Errorf("dimensions: got %v, want 12x7", decoded.Bounds())
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not an image")},
		{"truncated png", []byte("\x89PNG\r\n\x1a\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Errorf("expected *DecodeError, got %v", err)
			}
		})
	}
}
