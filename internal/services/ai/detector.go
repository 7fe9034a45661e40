package ai

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"wildcam/internal/config"
	"wildcam/internal/logger"
)

// Detection is one raw model output mapped to frame coordinates. Coordinates
// are clamped to the frame; X1 < X2 and Y1 < Y2 always hold.
type Detection struct {
	Species    string
	X1, Y1     int
	X2, Y2     int
	Confidence float64
}

// Detector wraps the inference network. It applies no confidence threshold of
// its own; callers filter before acting on detections. When the model fails to
// load the detector stays in a degraded state where every frame yields an
// empty detection set, so streaming continues as plain video.
type Detector struct {
	mu        sync.Mutex
	net       gocv.Net
	ready     bool
	labels    []string
	modelPath string
	confPath  string
	logger    *logger.Logger
}

func NewDetector(config *config.Config, logger *logger.Logger) *Detector {
	detector := &Detector{
		modelPath: config.ModelPath,
		confPath:  config.ModelConfigPath,
		labels:    loadLabels(config.LabelsPath),
		logger:    logger,
	}

	if err := detector.initializeNet(); err != nil {
		logger.Warning("Could not initialize detection network, streaming without inference: %v", err)
		return detector
	}

	return detector
}

func (d *Detector) initializeNet() error {
	if _, err := os.Stat(d.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", d.modelPath)
	}
	if _, err := os.Stat(d.confPath); os.IsNotExist(err) {
		return fmt.Errorf("model config file not found: %s", d.confPath)
	}

	net := gocv.ReadNet(d.modelPath, d.confPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	d.net = net
	d.ready = true
	d.logger.Info("Detection network initialized successfully")
	return nil
}

// Ready reports whether the network loaded at startup.
func (d *Detector) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

// Detect runs inference on one frame. Errors degrade to an empty detection
// set; the stream must keep delivering raw video with inference down. Safe
// for concurrent use: every viewer connection shares one network, and
// dnn.Net does not tolerate concurrent Forward calls.
func (d *Detector) Detect(frame gocv.Mat) []Detection {
	if frame.Empty() || !d.Ready() {
		return nil
	}

	blob := gocv.BlobFromImage(frame, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	if !d.ready {
		d.mu.Unlock()
		return nil
	}
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	if output.Empty() || output.Total()%7 != 0 {
		return nil
	}

	cols := frame.Cols()
	rows := frame.Rows()

	var results []Detection
	outputReshaped := output.Reshape(1, output.Total()/7)
	defer outputReshaped.Close()
	for i := 0; i < outputReshaped.Rows(); i++ {
		confidence := float64(outputReshaped.GetFloatAt(i, 2))
		if confidence <= 0 {
			// zero-padded output row
			continue
		}

		classID := int(outputReshaped.GetFloatAt(i, 1))
		x1 := int(outputReshaped.GetFloatAt(i, 3) * float32(cols))
		y1 := int(outputReshaped.GetFloatAt(i, 4) * float32(rows))
		x2 := int(outputReshaped.GetFloatAt(i, 5) * float32(cols))
		y2 := int(outputReshaped.GetFloatAt(i, 6) * float32(rows))

		det, ok := clamp(Detection{
			Species:    d.species(classID),
			X1:         x1,
			Y1:         y1,
			X2:         x2,
			Y2:         y2,
			Confidence: confidence,
		}, cols, rows)
		if !ok {
			continue
		}
		results = append(results, det)
	}

	return results
}

// clamp forces det inside a cols×rows frame. Detections left without area
// after clamping are dropped.
func clamp(det Detection, cols, rows int) (Detection, bool) {
	if det.X1 > det.X2 {
		det.X1, det.X2 = det.X2, det.X1
	}
	if det.Y1 > det.Y2 {
		det.Y1, det.Y2 = det.Y2, det.Y1
	}
	det.X1 = clampInt(det.X1, 0, cols)
	det.X2 = clampInt(det.X2, 0, cols)
	det.Y1 = clampInt(det.Y1, 0, rows)
	det.Y2 = clampInt(det.Y2, 0, rows)
	if det.X1 >= det.X2 || det.Y1 >= det.Y2 {
		return det, false
	}
	return det, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// species maps a model class id to a species name. A labels file takes
// precedence; without one a built-in map covers the classes the wildlife
// model was trained on.
func (d *Detector) species(classID int) string {
	if classID >= 1 && classID <= len(d.labels) {
		return d.labels[classID-1]
	}

	fallback := map[int]string{
		1:  "zorro",
		2:  "ciervo",
		3:  "jabali",
		4:  "tejon",
		5:  "conejo",
		6:  "lobo",
		7:  "gato_montes",
		8:  "corzo",
		9:  "ave",
		10: "gineta",
	}
	if species, exists := fallback[classID]; exists {
		return species
	}
	return fmt.Sprintf("especie_%d", classID)
}

// Close releases the loaded network.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ready {
		return nil
	}
	d.ready = false
	return d.net.Close()
}

// loadLabels reads one species name per line. A missing file yields no
// labels; the built-in class map is used instead.
func loadLabels(path string) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			labels = append(labels, line)
		}
	}
	return labels
}
