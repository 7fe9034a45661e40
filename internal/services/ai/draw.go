package ai

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var overlayColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// DrawDetection draws the bounding box and a "species confidence" label onto
// frame. Every above-threshold detection is drawn, accepted or not; only
// persistence is limited by the cooldown.
func DrawDetection(frame *gocv.Mat, det Detection) error {
	rect := image.Rect(det.X1, det.Y1, det.X2, det.Y2)
	if err := gocv.Rectangle(frame, rect, overlayColor, 2); err != nil {
		return fmt.Errorf("failed to draw rectangle: %w", err)
	}

	label := fmt.Sprintf("%s %.2f", det.Species, det.Confidence)
	origin := image.Pt(det.X1, det.Y1-10)
	if err := gocv.PutText(frame, label, origin, gocv.FontHersheySimplex, 0.5, overlayColor, 2); err != nil {
		return fmt.Errorf("failed to draw label: %w", err)
	}
	return nil
}
