package camera

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	return NewRegistry(filepath.Join(dir, "cameras.json"))
}

func floatPtr(f float64) *float64 { return &f }

func TestRegistry_LoadMissingFile(t *testing.T) {
	reg := newTestRegistry(t)

	cameras := reg.Load()
	if len(cameras) != 0 {
		t.Errorf("Expected empty mapping for missing file, got %d entries", len(cameras))
	}
}

func TestRegistry_InitCreatesEmptyMapping(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	data, err := os.ReadFile(reg.path)
	if err != nil {
		t.Fatalf("Registry file should exist after Init: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Expected empty JSON object, got %q", string(data))
	}
}

func TestRegistry_UpsertAndLoad(t *testing.T) {
	reg := newTestRegistry(t)

	id, err := reg.Upsert("cam1", Camera{
		Name:   "North meadow",
		Lat:    floatPtr(42.5),
		Lon:    floatPtr(-3.7),
		Device: 2,
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if id != "cam1" {
		t.Errorf("Expected id cam1, got %s", id)
	}

	cam, ok := reg.Load()["cam1"]
	if !ok {
		t.Fatal("Camera cam1 should exist after Upsert")
	}
	if cam.Name != "North meadow" || int(cam.Device) != 2 {
		t.Errorf("Unexpected camera data: %+v", cam)
	}
	if cam.Lat == nil || *cam.Lat != 42.5 {
		t.Errorf("Expected lat 42.5, got %v", cam.Lat)
	}
}

func TestRegistry_UpsertGeneratesID(t *testing.T) {
	reg := newTestRegistry(t)

	id, err := reg.Upsert("", Camera{Name: "Pond", Device: 0})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if id == "" {
		t.Fatal("Generated id should not be empty")
	}
	if _, ok := reg.Load()[id]; !ok {
		t.Errorf("Camera should be stored under generated id %s", id)
	}
}

func TestRegistry_DeviceAcceptsNumericString(t *testing.T) {
	reg := newTestRegistry(t)

	raw := `{"cam1": {"nombre": "Feeder", "lat": null, "lon": null, "device": "3"}}`
	if err := os.WriteFile(reg.path, []byte(raw), 0644); err != nil {
		t.Fatalf("Failed to write registry file: %v", err)
	}

	cam, ok := reg.Load()["cam1"]
	if !ok {
		t.Fatal("Camera cam1 should load")
	}
	if int(cam.Device) != 3 {
		t.Errorf("Expected device 3 from quoted value, got %d", cam.Device)
	}
	if cam.Lat != nil {
		t.Errorf("Expected nil lat for null value, got %v", *cam.Lat)
	}
}

func TestRegistry_LoadCorruptFile(t *testing.T) {
	reg := newTestRegistry(t)

	if err := os.WriteFile(reg.path, []byte("not json"), 0644); err != nil {
		t.Fatalf("Failed to write registry file: %v", err)
	}

	if cameras := reg.Load(); len(cameras) != 0 {
		t.Errorf("Corrupt registry should load as empty mapping, got %d entries", len(cameras))
	}
}

func TestRegistry_ResolveDevice(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := reg.Upsert("cam1", Camera{Name: "Feeder", Device: 4}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if dev := reg.ResolveDevice("cam1"); dev != 4 {
		t.Errorf("Expected device 4, got %d", dev)
	}
	if dev := reg.ResolveDevice("unknown"); dev != 0 {
		t.Errorf("Unknown camera should resolve to device 0, got %d", dev)
	}
}

func TestRegistry_FindByDevice(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := reg.Upsert("cam1", Camera{Name: "Feeder", Lat: floatPtr(40.0), Lon: floatPtr(-3.0), Device: 1}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	cam, ok := reg.FindByDevice(1)
	if !ok {
		t.Fatal("Expected to find camera for device 1")
	}
	if cam.Name != "Feeder" {
		t.Errorf("Unexpected camera: %+v", cam)
	}

	if _, ok := reg.FindByDevice(9); ok {
		t.Error("Should not find a camera for an unused device")
	}
}

func TestRegistry_SetDeviceAndDelete(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := reg.Upsert("cam1", Camera{Name: "Feeder", Device: 0}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := reg.SetDevice("cam1", 5); err != nil {
		t.Fatalf("SetDevice failed: %v", err)
	}
	if dev := reg.ResolveDevice("cam1"); dev != 5 {
		t.Errorf("Expected device 5 after SetDevice, got %d", dev)
	}

	if err := reg.SetDevice("missing", 1); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := reg.Delete("cam1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := reg.Load()["cam1"]; ok {
		t.Error("Camera should be gone after Delete")
	}
	if err := reg.Delete("cam1"); err != ErrNotFound {
		t.Errorf("Deleting a missing camera should return ErrNotFound, got %v", err)
	}
}
