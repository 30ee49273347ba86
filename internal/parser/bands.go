package parser

import (
	"fmt"
)

// SampleType is the data type of a band.
type SampleType int

const (
	Float32 SampleType = iota
	UInt32
	Int32
)

func (t SampleType) String() string {
	switch t {
	case Float32:
		return "float32"
	case UInt32:
		return "uint32"
	case Int32:
		return "int32"
	}
	return "unknown"
}

// Unit is the physical unit of a band.
type Unit string

const (
	UnitReal      Unit = "real"
	UnitImaginary Unit = "imaginary"
	UnitAmplitude Unit = "amplitude"
	UnitIntensity Unit = "intensity"
)

// VirtualOp computes a virtual band from its source bands.
type VirtualOp int

const (
	OpNone VirtualOp = iota
	// OpIntensityIQ is i² + q² over sources (i, q).
	OpIntensityIQ
	// OpIntensityAmplitude is a² over source (a).
	OpIntensityAmplitude
	// OpPauliDifference is ((a−b)² + (c−d)²) / 2 over sources (a, b, c, d).
	OpPauliDifference
	// OpPauliSum is ((a+b)² + (c+d)²) / 2 over sources (a, b, c, d).
	OpPauliSum
)

// Band is a raster band of a product, either backed by an image sample band
// or computed from other bands.
type Band struct {
	Name       string
	SampleType SampleType
	Width      int
	Height     int
	Unit       Unit

	// Image and BandIndex locate the samples of a real band.
	Image     string
	BandIndex int

	Virtual    bool
	Expression string
	Op         VirtualOp
	Sources    []string
}

// BuildBands derives the bands of a product from its images. Images are
// visited in name order. Complex products alternate real and imaginary
// bands across all sample bands, adding an intensity band after each pair;
// detected products get one amplitude band and its intensity per sample
// band. Images with no resolved polarization are skipped.
func BuildBands(width, height int, isSLC bool, images []ImageFile, table PolarizationTable) []Band {
	sorted := make([]ImageFile, len(images))
	copy(sorted, images)
	sortImages(sorted)

	var bands []Band
	nextReal := true
	var lastReal string
	for _, img := range sorted {
		pol, ok := table.Code(img.Name)
		if !ok {
			continue
		}
		for b := 0; b < img.SampleBands; b++ {
			if !isSLC {
				amp := Band{
					Name:       "Amplitude_" + pol,
					SampleType: UInt32,
					Width:      width,
					Height:     height,
					Unit:       UnitAmplitude,
					Image:      img.Name,
					BandIndex:  b,
				}
				bands = append(bands, amp, intensityFromAmplitude(amp, pol))
				continue
			}

			band := Band{
				SampleType: Float32,
				Width:      width,
				Height:     height,
				Image:      img.Name,
				BandIndex:  b,
			}
			if nextReal {
				band.Name = "i_" + pol
				band.Unit = UnitReal
				lastReal = band.Name
				bands = append(bands, band)
			} else {
				band.Name = "q_" + pol
				band.Unit = UnitImaginary
				bands = append(bands, band, intensityFromIQ(lastReal, band, pol))
			}
			nextReal = !nextReal
		}
	}

	if isSLC {
		bands = append(bands, PauliBands(width, height, bands)...)
	}
	return bands
}

func intensityFromIQ(i string, q Band, pol string) Band {
	return Band{
		Name:       "Intensity_" + pol,
		SampleType: Float32,
		Width:      q.Width,
		Height:     q.Height,
		Unit:       UnitIntensity,
		Virtual:    true,
		Expression: fmt.Sprintf("%s * %s + %s * %s", i, i, q.Name, q.Name),
		Op:         OpIntensityIQ,
		Sources:    []string{i, q.Name},
	}
}

func intensityFromAmplitude(a Band, pol string) Band {
	return Band{
		Name:       "Intensity_" + pol,
		SampleType: Float32,
		Width:      a.Width,
		Height:     a.Height,
		Unit:       UnitIntensity,
		Virtual:    true,
		Expression: fmt.Sprintf("%s * %s", a.Name, a.Name),
		Op:         OpIntensityAmplitude,
		Sources:    []string{a.Name},
	}
}

// PauliBands returns the Pauli decomposition bands when bands holds a full
// quad-pol complex set, and nil otherwise.
func PauliBands(width, height int, bands []Band) []Band {
	have := make(map[string]bool, len(bands))
	for _, b := range bands {
		have[b.Name] = true
	}
	for _, pol := range []string{"HH", "HV", "VH", "VV"} {
		if !have["i_"+pol] || !have["q_"+pol] {
			return nil
		}
	}

	pauli := func(name, expr string, op VirtualOp, sources ...string) Band {
		return Band{
			Name:       name,
			SampleType: Float32,
			Width:      width,
			Height:     height,
			Virtual:    true,
			Expression: expr,
			Op:         op,
			Sources:    sources,
		}
	}
	return []Band{
		pauli("pauli_r", "((i_HH-i_VV)*(i_HH-i_VV)+(q_HH-q_VV)*(q_HH-q_VV))/2",
			OpPauliDifference, "i_HH", "i_VV", "q_HH", "q_VV"),
		pauli("pauli_g", "((i_HV+i_VH)*(i_HV+i_VH)+(q_HV+q_VH)*(q_HV+q_VH))/2",
			OpPauliSum, "i_HV", "i_VH", "q_HV", "q_VH"),
		pauli("pauli_b", "((i_HH+i_VV)*(i_HH+i_VV)+(q_HH+q_VV)*(q_HH+q_VV))/2",
			OpPauliSum, "i_HH", "i_VV", "q_HH", "q_VV"),
	}
}

// Evaluate computes a virtual band from its source samples, given in the
// order of Sources.
func (b Band) Evaluate(sources [][]float64) ([]float64, error) {
	if !b.Virtual {
		return nil, fmt.Errorf("band %s is not virtual", b.Name)
	}
	if len(sources) == 0 || len(sources) != len(b.Sources) {
		return nil, fmt.Errorf("band %s needs %d sources, got %d", b.Name, len(b.Sources), len(sources))
	}
	n := len(sources[0])
	for _, s := range sources[1:] {
		if len(s) != n {
			return nil, fmt.Errorf("band %s: source lengths differ", b.Name)
		}
	}

	out := make([]float64, n)
	switch b.Op {
	case OpIntensityIQ:
		i, q := sources[0], sources[1]
		for k := range out {
			out[k] = i[k]*i[k] + q[k]*q[k]
		}
	case OpIntensityAmplitude:
		a := sources[0]
		for k := range out {
			out[k] = a[k] * a[k]
		}
	case OpPauliDifference, OpPauliSum:
		sign := 1.0
		if b.Op == OpPauliDifference {
			sign = -1.0
		}
		a, c, d, e := sources[0], sources[1], sources[2], sources[3]
		for k := range out {
			re := a[k] + sign*c[k]
			im := d[k] + sign*e[k]
			out[k] = (re*re + im*im) / 2
		}
	default:
		return nil, fmt.Errorf("band %s has no virtual operation", b.Name)
	}
	return out, nil
}
