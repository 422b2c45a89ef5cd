package analyzer

import (
	"fmt"
	"strings"
)

// Variants lists the detector names accepted by NewDetector.
func Variants() []string { return []string{"contrast"} }

// NewDetector returns the named detector. An empty name selects contrast.
func NewDetector(variant string) (Detector, error) {
	switch strings.ToLower(variant) {
	case "contrast", "":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector %q (want one of %v)", variant, Variants())
	}
}
