// Package analyzer finds the parts of a photo worth moving the camera to.
package analyzer

import "image"

// Region is a candidate focus area of a photo
type Region struct {
	Rect image.Rectangle
	// Score is the share of the photo's edge energy inside Rect, 0..1
	Score float64
}

// Detector is the interface for focus analysis strategies
type Detector interface {
	Detect(img image.Image) ([]Region, error)
}
