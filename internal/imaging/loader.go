package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DecodeError reports input bytes that are not a decodable raster image.
//
// It is the first of the reader's rejection kinds: nothing downstream runs
// when decoding fails.
type DecodeError struct {
	// Source names the input (file path or page label). May be empty.
	Source string

	// Err is the underlying decoder error.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to decode image: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode image %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind returns the stable rejection identifier for presentation layers.
func (e *DecodeError) Kind() string { return "decode" }

// Decode decodes PNG, JPEG, GIF, BMP, TIFF or WebP bytes.
//
// Any decoder failure, including empty input, is returned as *DecodeError.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("empty input")}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return img, nil
}

// ImageCache keeps decoded sheets in memory so that the stage tools
// (anchors, grid, crop) can be called one after another on the same scan
// without decoding it again.
//
// An entry is keyed by path and remembers the file's size and modification
// time. A scanner that overwrites sheet.png with a new page invalidates the
// entry, and the next Load decodes the new file. Cached images are never
// mutated; annotation always works on a copy.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	img     image.Image
	size    int64
	modTime time.Time
}

func (e cacheEntry) matches(info os.FileInfo) bool {
	return e.size == info.Size() && e.modTime.Equal(info.ModTime())
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		entries: make(map[string]cacheEntry),
	}
}

// Load returns the image at path, decoding it only when it is not cached or
// the file changed since it was cached.
//
// The exact path string is the key; a relative and an absolute path to one
// file are cached separately.
//
// # Errors
//
//   - Returns a wrapped *os.PathError if the file cannot be read
//   - Returns *DecodeError if the file is not a supported image
func (c *ImageCache) Load(path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && entry.matches(info) {
		return entry.img, nil
	}

	img, err := LoadFile(path)
	if err != nil {
		c.mu.Lock()
		delete(c.entries, path)
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{img: img, size: info.Size(), modTime: info.ModTime()}
	c.mu.Unlock()

	return img, nil
}

// LoadFile reads and decodes one image file without caching it.
func LoadFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, err := Decode(data)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Source = path
		}
		return nil, err
	}
	return img, nil
}
