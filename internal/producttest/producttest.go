// Package producttest writes synthetic NovaSAR products for tests.
package producttest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/novasar/internal/raster/rastertest"
)

// Fixture describes a synthetic metadata.xml. Empty strings omit a field.
type Fixture struct {
	ProductType        string
	Pass               string
	Pointing           string
	DataType           string
	Format             string
	CalStatus          string
	CalConstant        string
	RadiometricScaling string
	Lines, Samples     int
	OmitLines          bool
	ImageSamples       int         // 0 derives it from ProductType
	Images             [][2]string // file name, polarization
	GridW, GridH       int
	TiePoints          int // -1 writes GridW*GridH
	SRGR               string
	Doppler            string
	IncAngle           string
	Vectors            int
	FirstLine          string
	LastLine           string
	ProcessingTime     string
}

// Default returns a dual-pol ground range product of 40x30 pixels.
func Default() Fixture {
	return Fixture{
		ProductType:        "SCD",
		Pass:               "Descending",
		Pointing:           "Right",
		DataType:           "MAGNITUDE_DETECTED",
		Format:             "GeoTIFF",
		CalStatus:          "CALIBRATED",
		CalConstant:        "2.5",
		RadiometricScaling: "Sigma0",
		Lines:              30,
		Samples:            40,
		Images:             [][2]string{{"image_HH.tif", "HH"}, {"image_HV.tif", "HV"}},
		GridW:              3,
		GridH:              3,
		TiePoints:          -1,
		SRGR:               "600000.0 0.3 0.0 0.0 0.0",
		Doppler:            "12.5",
		IncAngle:           "20.0 0.001 0.0",
		Vectors:            3,
		FirstLine:          "2019-03-01 10:00:00.000000",
		LastLine:           "2019-03-01 10:00:03.000000",
		ProcessingTime:     "2019-03-02 08:30:00.250000",
	}
}

// TiePointLat and TiePointLon give the tie point at grid column c, row r.
func TiePointLat(c, r int) float64 { return 51.0 - 0.5*float64(r) }
func TiePointLon(c, r int) float64 { return -1.0 + 0.5*float64(c) }

func leaf(b *strings.Builder, name, value string) {
	if value != "" {
		fmt.Fprintf(b, "<%s>%s</%s>\n", name, value, name)
	}
}

func unitLeaf(b *strings.Builder, name, unit, value string) {
	if value != "" {
		fmt.Fprintf(b, "<%s units=%q>%s</%s>\n", name, unit, value, name)
	}
}

// XML renders the metadata.xml document.
func (f Fixture) XML() string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<metadata>\n")

	b.WriteString("<Product>\n")
	leaf(&b, "ProductName", "NovaSAR_01_12345_"+f.ProductType)
	b.WriteString("</Product>\n")

	b.WriteString("<Source_Attributes>\n")
	leaf(&b, "Satellite", "NovaSAR-1")
	leaf(&b, "AcquisitionID", "4321")
	leaf(&b, "AntennaPointing", f.Pointing)
	unitLeaf(&b, "RadarCentreFrequency", "Hz", "3200000000")
	leaf(&b, "OperationalModeName", "Maritime_Survey_MS")
	unitLeaf(&b, "EchoSamplingRate", "Hz", "80000000")
	unitLeaf(&b, "PulseRepetitionFrequency", "Hz", "3000.5")
	b.WriteString("</Source_Attributes>\n")

	b.WriteString("<OrbitData>\n")
	leaf(&b, "Pass_Direction", f.Pass)
	leaf(&b, "OrbitDataSource", "Downlinked")
	leaf(&b, "OrbitDataFile", "orbit_0042.xml")
	leaf(&b, "NumberOfStateVectorSets", fmt.Sprint(f.Vectors))
	vz := -7000.0
	if strings.EqualFold(f.Pass, "ascending") {
		vz = 7000.0
	}
	for i := 0; i < f.Vectors; i++ {
		b.WriteString("<StateVectorData>\n")
		leaf(&b, "Time", fmt.Sprintf("2019-03-01 09:59:%02d.000000", 50+i))
		unitLeaf(&b, "xPosition", "m", fmt.Sprint(6978137.0-float64(i)*100))
		unitLeaf(&b, "yPosition", "m", "0")
		unitLeaf(&b, "zPosition", "m", fmt.Sprint(float64(i)*vz))
		unitLeaf(&b, "xVelocity", "m/s", "0")
		unitLeaf(&b, "yVelocity", "m/s", "1000")
		unitLeaf(&b, "zVelocity", "m/s", fmt.Sprint(vz))
		b.WriteString("</StateVectorData>\n")
	}
	b.WriteString("</OrbitData>\n")

	b.WriteString("<Image_Generation_Parameters>\n")
	leaf(&b, "ProductType", f.ProductType)
	leaf(&b, "AlgorithmUsed", "RangeDoppler")
	leaf(&b, "ProcessingFacility", "SSTL")
	leaf(&b, "SoftwareVersion", "1.2")
	leaf(&b, "ProcessingTime", f.ProcessingTime)
	leaf(&b, "ZeroDopplerTimeFirstLine", f.FirstLine)
	leaf(&b, "ZeroDopplerTimeLastLine", f.LastLine)
	leaf(&b, "NumberOfRangeLooks", "2")
	leaf(&b, "NumberOfAzimuthLooks", "1")
	unitLeaf(&b, "SlantRangeNearEdge", "m", "620000.0")
	unitLeaf(&b, "TotalProcessedRangeBandwidth", "Hz", "200000000")
	unitLeaf(&b, "TotalProcessedAzimuthBandwidth", "Hz", "1500")
	leaf(&b, "RadiometricScaling", f.RadiometricScaling)
	leaf(&b, "GroundToSlantRangeCoefficients", f.SRGR)
	leaf(&b, "DopplerCentroid", f.Doppler)
	leaf(&b, "IncAngleCoeffs", f.IncAngle)
	b.WriteString("</Image_Generation_Parameters>\n")

	b.WriteString("<Image_Attributes>\n")
	leaf(&b, "DataType", f.DataType)
	leaf(&b, "ProductFormat", f.Format)
	leaf(&b, "CalibrationStatus", f.CalStatus)
	leaf(&b, "CalibrationConstant", f.CalConstant)
	if !f.OmitLines {
		leaf(&b, "NumberOfLinesInImage", fmt.Sprint(f.Lines))
	}
	leaf(&b, "NumberOfSamplesPerLine", fmt.Sprint(f.Samples))
	unitLeaf(&b, "SampledPixelSpacing", "m", "6.0")
	unitLeaf(&b, "SampledLineSpacing", "m", "6.0")
	for _, img := range f.Images {
		fmt.Fprintf(&b, "<fullResolutionImageData Pol=%q>%s</fullResolutionImageData>\n", img[1], img[0])
	}
	b.WriteString("</Image_Attributes>\n")

	b.WriteString("<geographicInformation>\n")
	leaf(&b, "EllipsoidName", "WGS84")
	unitLeaf(&b, "MeanTerrainHeight", "m", "12.0")
	leaf(&b, "NumberOfRangeTiepoints", fmt.Sprint(f.GridW))
	leaf(&b, "NumberOfAzimuthTiepoints", fmt.Sprint(f.GridH))
	n := f.TiePoints
	if n < 0 {
		n = f.GridW * f.GridH
	}
	for k := 0; k < n; k++ {
		c, r := k%f.GridW, k/f.GridW
		b.WriteString("<TiePoint>\n")
		leaf(&b, "Pixel", fmt.Sprint(c))
		leaf(&b, "Line", fmt.Sprint(r))
		unitLeaf(&b, "latitude", "deg", fmt.Sprint(TiePointLat(c, r)))
		unitLeaf(&b, "longitude", "deg", fmt.Sprint(TiePointLon(c, r)))
		b.WriteString("</TiePoint>\n")
	}
	b.WriteString("</geographicInformation>\n")

	b.WriteString("</metadata>\n")
	return b.String()
}

// ImageSpec returns a raster for the fixture: one sample per pixel for
// detected products, I/Q pairs for complex ones.
func (f Fixture) ImageSpec(seed float64) rastertest.Spec {
	samples := f.ImageSamples
	if samples == 0 {
		samples = 1
		if strings.Contains(strings.ToUpper(f.ProductType), "SLC") {
			samples = 2
		}
	}
	data := make([]float64, f.Lines*f.Samples*samples)
	for i := range data {
		data[i] = seed + float64(i%100)
	}
	return rastertest.Spec{Width: f.Samples, Height: f.Lines, Samples: samples, Bits: 16, Format: rastertest.Int, Data: data}
}

// WriteProduct writes metadata.xml, the fixture images and extra files to a
// temporary product directory.
func WriteProduct(t testing.TB, f Fixture, extra map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	WriteProductTo(t, dir, f, extra)
	return dir
}

// WriteProductTo writes the product files into dir, creating it if needed.
func WriteProductTo(t testing.TB, dir string, f Fixture, extra map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.xml"), []byte(f.XML()), 0o644))
	for i, img := range f.Images {
		require.NoError(t, rastertest.WriteFile(filepath.Join(dir, img[0]), f.ImageSpec(float64(10*i))))
	}
	for name, content := range extra {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}
