package parser

import (
	"sort"
	"strings"
)

// PolarizationMap maps a lowercase image file name to its polarization code.
type PolarizationMap map[string]string

// CompactModeName is recorded for right circular hybrid (compact) products.
const CompactModeName = "Right Circular Hybrid Mode"

// ClassifyPolarization resolves the polarization of an image. Names missing
// from pm are inferred from an "rh" or "rv" substring, which marks a compact
// polarimetry product.
func ClassifyPolarization(name string, pm PolarizationMap) (code string, compact bool, ok bool) {
	name = strings.ToLower(name)
	if pol, found := pm[name]; found {
		return pol, false, true
	}
	switch {
	case strings.Contains(name, "rh"):
		return "RH", true, true
	case strings.Contains(name, "rv"):
		return "RV", true, true
	}
	return "", false, false
}

// PolarizationTable is the resolved polarization of every image of a
// product. It is immutable once built.
type PolarizationTable struct {
	codes   map[string]string
	compact bool
}

// BuildPolarizationTable classifies every image.
func BuildPolarizationTable(images []ImageFile, pm PolarizationMap) PolarizationTable {
	t := PolarizationTable{codes: make(map[string]string, len(images))}
	for _, img := range images {
		code, compact, ok := ClassifyPolarization(img.Name, pm)
		if !ok {
			continue
		}
		t.codes[strings.ToLower(img.Name)] = code
		if compact {
			t.compact = true
		}
	}
	return t
}

// Code returns the polarization of the named image.
func (t PolarizationTable) Code(name string) (string, bool) {
	code, ok := t.codes[strings.ToLower(name)]
	return code, ok
}

// Compact reports whether any polarization was inferred as compact.
func (t PolarizationTable) Compact() bool { return t.compact }

// Codes returns the distinct polarization codes, sorted.
func (t PolarizationTable) Codes() []string {
	seen := make(map[string]bool, len(t.codes))
	var out []string
	for _, c := range t.codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Unresolved returns the names of images without a polarization.
func (t PolarizationTable) Unresolved(images []ImageFile) []string {
	var out []string
	for _, img := range images {
		if _, ok := t.Code(img.Name); !ok {
			out = append(out, img.Name)
		}
	}
	return out
}
