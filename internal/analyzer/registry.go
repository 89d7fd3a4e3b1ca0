package analyzer

import "fmt"

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "edges", "":
		return NewEdgeDetector(), nil
	case "center":
		return NewCenterDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
