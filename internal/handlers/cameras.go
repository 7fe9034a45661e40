package handlers

import (
	"encoding/json"
	"net/http"

	"wildcam/internal/camera"
	"wildcam/internal/logger"
)

// ListCamerasHandler returns the full camera registry.
func ListCamerasHandler(registry *camera.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, registry.Load())
	}
}

// SaveCameraHandler creates or updates a camera. Without an id a new one is
// generated.
func SaveCameraHandler(registry *camera.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		var payload struct {
			ID string `json:"id"`
			camera.Camera
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		id, err := registry.Upsert(payload.ID, payload.Camera)
		if err != nil {
			logger.Error("Error saving camera: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]string{"status": "ok", "id": id})
	}
}

// SetCameraDeviceHandler updates the device index of a registered camera.
func SetCameraDeviceHandler(registry *camera.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		id := r.URL.Query().Get("id")
		var payload struct {
			Device camera.DeviceID `json:"device"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := registry.SetDevice(id, payload.Device); err != nil {
			if err == camera.ErrNotFound {
				w.WriteHeader(http.StatusNotFound)
				writeJSON(w, map[string]interface{}{"success": false, "error": "camera_not_found"})
				return
			}
			logger.Error("Error updating camera device: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]interface{}{"success": true})
	}
}

// DeleteCameraHandler removes a camera from the registry. Captures are kept.
func DeleteCameraHandler(registry *camera.Registry, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		id := r.URL.Query().Get("id")
		if err := registry.Delete(id); err != nil {
			if err == camera.ErrNotFound {
				w.WriteHeader(http.StatusNotFound)
				writeJSON(w, map[string]interface{}{"success": false, "error": "not_found"})
				return
			}
			logger.Error("Error deleting camera: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]interface{}{"success": true})
	}
}
