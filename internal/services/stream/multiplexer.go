package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"gocv.io/x/gocv"

	"wildcam/internal/camera"
	"wildcam/internal/config"
	"wildcam/internal/database"
	"wildcam/internal/eventlog"
	"wildcam/internal/logger"
	"wildcam/internal/services/ai"
	"wildcam/internal/services/cooldown"
	"wildcam/internal/services/storage"
)

// ContentType is the response content type of the live stream.
const ContentType = "multipart/x-mixed-replace; boundary=frame"

// Inferencer produces raw detections for a frame. A degraded detector reports
// Ready() == false and the stream serves plain video.
type Inferencer interface {
	Ready() bool
	Detect(frame gocv.Mat) []ai.Detection
}

// FrameReader yields frames from an open capture device.
type FrameReader interface {
	Read(frame *gocv.Mat) bool
	Close() error
}

// Streamer runs the per-viewer detection pipeline: read frame, infer, filter
// by confidence, dedupe through the cooldown tracker, persist accepted
// sightings, draw overlays, and write MJPEG parts to the viewer. Every viewer
// connection runs its own loop with its own device handle; the tracker, event
// log and index are the shared pieces.
type Streamer struct {
	detector  Inferencer
	tracker   *cooldown.Tracker
	captures  *storage.CaptureStore
	events    *eventlog.Log
	index     *database.Database
	registry  *camera.Registry
	logger    *logger.Logger
	threshold float64
	readRetry time.Duration
	now       func() time.Time
}

func NewStreamer(
	cfg *config.Config,
	detector Inferencer,
	tracker *cooldown.Tracker,
	captures *storage.CaptureStore,
	events *eventlog.Log,
	index *database.Database,
	registry *camera.Registry,
	logger *logger.Logger,
) *Streamer {
	return &Streamer{
		detector:  detector,
		tracker:   tracker,
		captures:  captures,
		events:    events,
		index:     index,
		registry:  registry,
		logger:    logger,
		threshold: cfg.ConfidenceThreshold,
		readRetry: time.Duration(cfg.ReadRetryMillis) * time.Millisecond,
		now:       time.Now,
	}
}

// ServeCamera resolves the camera id against the registry, opens its device
// and streams until the viewer disconnects. Only the device-open failure is
// returned as an error; everything after that degrades without ending the
// stream.
func (s *Streamer) ServeCamera(ctx context.Context, w io.Writer, camID string) error {
	device := s.registry.ResolveDevice(camID)

	src, err := camera.Open(device)
	if err != nil {
		return fmt.Errorf("failed to open camera %q (device %d): %w", camID, device, err)
	}
	defer src.Close()

	s.logger.Info("Viewer connected to camera %q (device %d)", camID, device)
	defer s.logger.Info("Viewer disconnected from camera %q", camID)

	return s.stream(ctx, w, src, device)
}

func (s *Streamer) stream(ctx context.Context, w io.Writer, src FrameReader, device int) error {
	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !src.Read(&frame) {
			// transient read failure: back off and retry, never end the stream
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.readRetry):
			}
			continue
		}

		if s.detector.Ready() {
			s.processFrame(&frame, device)
		}

		buf, err := gocv.IMEncode(".jpg", frame)
		if err != nil {
			s.logger.Error("Failed to encode frame: %v", err)
			continue
		}
		err = writePart(w, buf.GetBytes())
		buf.Close()
		if err != nil {
			// viewer is gone
			return nil
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// processFrame runs inference on one frame, persists newly accepted sightings
// from the still-unannotated frame, and then draws every surviving detection.
// Suppressed repeats are drawn but not persisted.
func (s *Streamer) processFrame(frame *gocv.Mat, device int) {
	detections := s.detector.Detect(*frame)

	survivors := detections[:0]
	for _, det := range detections {
		if det.Confidence < s.threshold {
			continue
		}
		survivors = append(survivors, det)
	}

	now := s.now()
	for _, det := range survivors {
		key := cooldown.Key{Device: device, Species: det.Species}
		if !s.tracker.Accept(key, now) {
			continue
		}
		s.persist(*frame, det, device, now)
	}

	for _, det := range survivors {
		if err := ai.DrawDetection(frame, det); err != nil {
			s.logger.Error("Failed to draw detection: %v", err)
		}
	}
}

// persist saves the capture and appends the event record. Persistence errors
// are logged and the stream continues best-effort.
func (s *Streamer) persist(frame gocv.Mat, det ai.Detection, device int, now time.Time) {
	relPath, err := s.captures.Save(frame, det.Species, now)
	if err != nil {
		s.logger.Error("Failed to save capture: %v", err)
		return
	}

	lat, lon := "", ""
	if cam, ok := s.registry.FindByDevice(device); ok {
		if cam.Lat != nil {
			lat = strconv.FormatFloat(*cam.Lat, 'f', -1, 64)
		}
		if cam.Lon != nil {
			lon = strconv.FormatFloat(*cam.Lon, 'f', -1, 64)
		}
	}

	rec := eventlog.Record{
		Camera:     fmt.Sprintf("Cam %d", device),
		Date:       now.Format("2006-01-02"),
		Time:       now.Format("15:04:05"),
		Species:    det.Species,
		X1:         det.X1,
		Y1:         det.Y1,
		X2:         det.X2,
		Y2:         det.Y2,
		Confidence: det.Confidence,
		Lat:        lat,
		Lon:        lon,
		ImagePath:  relPath,
	}
	if err := s.events.Append(rec); err != nil {
		s.logger.Error("Failed to append event record: %v", err)
	}

	if s.index != nil {
		_, err := s.index.InsertDetection(&database.Detection{
			Camera:     rec.Camera,
			Date:       rec.Date,
			Time:       rec.Time,
			Species:    rec.Species,
			X1:         rec.X1,
			Y1:         rec.Y1,
			X2:         rec.X2,
			Y2:         rec.Y2,
			Confidence: rec.Confidence,
			Lat:        rec.Lat,
			Lon:        rec.Lon,
			ImagePath:  rec.ImagePath,
		})
		if err != nil {
			s.logger.Error("Failed to index detection: %v", err)
		}
	}
}

// writePart writes one multipart frame in the live stream's framing.
func writePart(w io.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\n\r\n"); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
