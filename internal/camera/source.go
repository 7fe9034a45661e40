package camera

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Source owns one open capture device. Each streaming connection opens its own
// Source; two viewers of the same physical device hold two independent handles.
type Source struct {
	device  int
	capture *gocv.VideoCapture
}

// Open acquires the capture device with the given index.
func Open(device int) (*Source, error) {
	capture, err := gocv.VideoCaptureDevice(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture device %d: %w", device, err)
	}
	return &Source{device: device, capture: capture}, nil
}

// Read fills frame with the next image from the device. It returns false when
// the device produced nothing; callers retry after a short delay rather than
// treating that as end of stream.
func (s *Source) Read(frame *gocv.Mat) bool {
	return s.capture.Read(frame) && !frame.Empty()
}

// Device returns the capture device index this source was opened with.
func (s *Source) Device() int {
	return s.device
}

// Close releases the device handle.
func (s *Source) Close() error {
	return s.capture.Close()
}
