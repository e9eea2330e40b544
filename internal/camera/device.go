package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

var errEmptyFrame = errors.New("camera returned an empty frame")

// DeviceOpener opens local capture devices through OpenCV. The camera
// index maps to devices[index], the OS device id (0 for /dev/video0).
func DeviceOpener(devices []int) Opener {
	return func(index int) (Camera, error) {
		if index < 0 || index >= len(devices) {
			return nil, domain.ErrDeviceUnavailable.WithError(fmt.Errorf("no camera at index %d", index))
		}

		capture, err := gocv.OpenVideoCapture(devices[index])
		if err != nil {
			return nil, domain.ErrDeviceUnavailable.WithError(err)
		}
		if !capture.IsOpened() {
			_ = capture.Close()
			return nil, domain.ErrDeviceUnavailable.WithError(fmt.Errorf("device %d did not open", devices[index]))
		}

		return &deviceCamera{capture: capture, frame: gocv.NewMat()}, nil
	}
}

type deviceCamera struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	closed  bool
}

func (c *deviceCamera) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errClosed
	}
	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, errEmptyFrame
	}

	// ToImage copies, so frame can be reused for the next read
	img, err := c.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.frame.Close()
	return c.capture.Close()
}
