// Package camera provides frame sources addressed by a small integer index
// (0 front, 1 back).
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
	"github.com/saturnino-fabrica-de-software/kinface/internal/imaging"
)

type Camera interface {
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// Opener acquires the camera at index. It fails with
// domain.ErrDeviceUnavailable when there is no such device.
type Opener func(index int) (Camera, error)

var errClosed = errors.New("camera closed")

var frameExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// DirOpener replays the image files of dirs[index] in name order, looping
// forever.
func DirOpener(dirs []string) Opener {
	return func(index int) (Camera, error) {
		if index < 0 || index >= len(dirs) {
			return nil, domain.ErrDeviceUnavailable.WithError(fmt.Errorf("no camera at index %d", index))
		}

		files, err := ListFrames(dirs[index])
		if err != nil {
			return nil, domain.ErrDeviceUnavailable.WithError(err)
		}
		if len(files) == 0 {
			return nil, domain.ErrDeviceUnavailable.WithError(fmt.Errorf("no frames in %s", dirs[index]))
		}

		return &dirCamera{files: files}, nil
	}
}

// ListFrames returns the image files directly inside dir, sorted by name.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !frameExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

type dirCamera struct {
	mu     sync.Mutex
	files  []string
	next   int
	closed bool
}

func (c *dirCamera) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errClosed
	}
	path := c.files[c.next]
	c.next = (c.next + 1) % len(c.files)
	c.mu.Unlock()

	return ReadFrame(path)
}

func (c *dirCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// ReadFrame decodes one image file.
func ReadFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// SnapshotOpener fetches a still image from urls[index] on every Read, the
// way IP cameras expose /snapshot.jpg.
func SnapshotOpener(urls []string, client *http.Client) Opener {
	if client == nil {
		client = http.DefaultClient
	}
	return func(index int) (Camera, error) {
		if index < 0 || index >= len(urls) || urls[index] == "" {
			return nil, domain.ErrDeviceUnavailable.WithError(fmt.Errorf("no camera at index %d", index))
		}
		return &snapshotCamera{url: urls[index], client: client}, nil
	}
}

type snapshotCamera struct {
	url    string
	client *http.Client

	mu     sync.Mutex
	closed bool
}

func (c *snapshotCamera) Read(ctx context.Context) (image.Image, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, errClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create snapshot request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch snapshot: HTTP %d", resp.StatusCode)
	}

	return imaging.Decode(resp.Body)
}

func (c *snapshotCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
