package camera

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// ErrNotFound is returned for operations on a camera id that is not registered.
var ErrNotFound = errors.New("camera not found")

// DeviceID is a capture device index. Registry files written by hand or by
// older tooling sometimes store it as a quoted number, so it unmarshals from
// either a JSON number or a numeric string.
type DeviceID int

func (d *DeviceID) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*d = DeviceID(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("device must be a number or numeric string, got %s", data)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("device must be numeric, got %q", s)
	}
	*d = DeviceID(n)
	return nil
}

// Camera is one registered camera. Field names follow the registry file
// format shared with the recording tooling.
type Camera struct {
	Name   string   `json:"nombre"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Device DeviceID `json:"device"`
}

// Registry persists the camera id → configuration mapping as a JSON file.
// Reads always go to disk so configuration changes take effect on the next
// stream connect without a restart; writes are serialized with a mutex.
type Registry struct {
	path string
	mu   sync.Mutex
}

func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// Init creates an empty registry file if none exists.
func (r *Registry) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return r.writeLocked(map[string]Camera{})
}

// Load reads the full mapping from disk. A missing or unreadable file yields
// an empty mapping rather than an error; streaming must not fail because the
// registry is momentarily absent or corrupt.
func (r *Registry) Load() map[string]Camera {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return map[string]Camera{}
	}

	cameras := make(map[string]Camera)
	if err := json.Unmarshal(data, &cameras); err != nil {
		return map[string]Camera{}
	}
	return cameras
}

// ResolveDevice maps a camera id to its capture device index, defaulting to
// device 0 for unknown ids.
func (r *Registry) ResolveDevice(id string) int {
	if cam, ok := r.Load()[id]; ok {
		return int(cam.Device)
	}
	return 0
}

// FindByDevice returns the first registered camera using the given device
// index. Used to tag detections with the camera's coordinates.
func (r *Registry) FindByDevice(device int) (Camera, bool) {
	for _, cam := range r.Load() {
		if int(cam.Device) == device {
			return cam, true
		}
	}
	return Camera{}, false
}

// Upsert stores cam under id, generating a timestamp-based id when id is
// empty. It returns the id the camera was stored under.
func (r *Registry) Upsert(id string, cam Camera) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		id = strconv.FormatInt(time.Now().Unix(), 10)
	}

	cameras := r.Load()
	cameras[id] = cam
	if err := r.writeLocked(cameras); err != nil {
		return "", err
	}
	return id, nil
}

// SetDevice updates the device index of an existing camera.
func (r *Registry) SetDevice(id string, device DeviceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cameras := r.Load()
	cam, ok := cameras[id]
	if !ok {
		return ErrNotFound
	}
	cam.Device = device
	cameras[id] = cam
	return r.writeLocked(cameras)
}

// Delete removes a camera from the registry. Captured images are never
// deleted along with it.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cameras := r.Load()
	if _, ok := cameras[id]; !ok {
		return ErrNotFound
	}
	delete(cameras, id)
	return r.writeLocked(cameras)
}

func (r *Registry) writeLocked(cameras map[string]Camera) error {
	data, err := json.MarshalIndent(cameras, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode camera registry: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write camera registry: %w", err)
	}
	return nil
}
