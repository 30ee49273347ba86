package parser

import (
	"context"
	"strings"
	"time"

	"github.com/beetlebugorg/novasar/internal/logging"
	"github.com/beetlebugorg/novasar/internal/metadata"
	"github.com/beetlebugorg/novasar/internal/orbit"
)

// Vendor metadata section names.
const (
	SectionProduct          = "Product"
	SectionSourceAttributes = "Source_Attributes"
	SectionOrbitData        = "OrbitData"
	SectionImageGeneration  = "Image_Generation_Parameters"
	SectionImageAttributes  = "Image_Attributes"
	SectionGeographic       = "geographicInformation"
)

const oneMillion = 1e6

// Normalize maps the vendor metadata tree into the normalized attribute set
// and builds the image name to polarization map.
func Normalize(root *metadata.Element) (*Metadata, PolarizationMap, error) {
	return NormalizeContext(context.Background(), root)
}

// NormalizeContext is Normalize with a context carrying the logger.
func NormalizeContext(ctx context.Context, root *metadata.Element) (*Metadata, PolarizationMap, error) {
	log := logging.FromContext(ctx)
	doc := metadataElement(root)

	var (
		product = doc.Element(SectionProduct)
		source  = doc.Element(SectionSourceAttributes)
		orb     = doc.Element(SectionOrbitData)
		igp     = doc.Element(SectionImageGeneration)
		attrs   = doc.Element(SectionImageAttributes)
		geo     = doc.Element(SectionGeographic)
	)

	md := NewMetadata()
	times := timeReader{ctx: ctx, log: log}

	md.SetString(KeyAntennaPointing, strings.ToLower(source.AttributeString("AntennaPointing", NoMetadataString)))
	if v, ok := lookupFloat(source, "RadarCentreFrequency"); ok {
		md.SetFloat(KeyRadarFrequency, v/oneMillion)
	}
	md.SetInt(KeyDataTakeID, source.AttributeInt("AcquisitionID", NoMetadata))

	md.SetString(KeyPass, strings.ToUpper(orb.AttributeString("Pass_Direction", NoMetadataString)))
	md.SetString(KeyAlgorithm, igp.AttributeString("AlgorithmUsed", NoMetadataString))
	md.SetString(KeyGeoRefSystem, geo.AttributeString("EllipsoidName", NoMetadataString))

	// NovaSAR processing always applies these corrections.
	md.SetInt(KeyAntElevCorrFlag, 1)
	md.SetInt(KeyRangeSpreadCompFlag, 1)
	md.SetInt(KeyReplicaPowerCorrFlag, 1)

	md.SetString(KeyOrbitStateVectorFile, orb.AttributeString("OrbitDataFile", NoMetadataString))

	productType := strings.ToUpper(igp.AttributeString("ProductType", NoMetadataString))
	md.SetString(KeyProductType, productType)
	if isGroundRangeType(productType) {
		md.SetInt(KeySRGRFlag, 1)
	} else {
		md.SetInt(KeySRGRFlag, 0)
	}

	md.SetString(KeyProduct, product.AttributeString("ProductName", NoMetadataString))
	md.SetString(KeyMission, source.AttributeString("Satellite", NoMetadataString))

	mode := source.AttributeString("OperationalModeName", NoMetadataString)
	md.SetString(KeySPHDescriptor, mode)
	md.SetString(KeyAcquisitionMode, mode)
	swath := mode[strings.LastIndex(mode, "_")+1:]
	md.SetString(KeyBeams, swath)
	md.SetString(KeySwath, swath)

	if strings.EqualFold(attrs.AttributeString("CalibrationStatus", NoMetadataString), "CALIBRATED") {
		md.SetInt(KeyAbsCalibrationFlag, 1)
		md.SetFloat(KeyCalibrationFactor, attrs.AttributeDouble("CalibrationConstant", 1.0))
	} else {
		md.SetInt(KeyAbsCalibrationFlag, 0)
		md.SetFloat(KeyCalibrationFactor, 1.0)
	}

	if strings.EqualFold(igp.AttributeString("RadiometricScaling", ""), "Sigma0") {
		md.SetInt(KeyIncAngleCompFlag, 1)
	} else {
		md.SetInt(KeyIncAngleCompFlag, 0)
	}

	if v, ok := lookupFloat(source, "EchoSamplingRate"); ok {
		md.SetFloat(KeyRangeSamplingRate, v/oneMillion)
	}

	md.SetString(KeyVectorSource, orb.AttributeString("OrbitDataSource", NoMetadataString))
	md.SetString(KeyProcessingSystemIdentifier,
		igp.AttributeString("ProcessingFacility", NoMetadataString)+"-"+igp.AttributeString("SoftwareVersion", NoMetadataString))

	md.SetTime(KeyProcTime, times.read(igp, "ProcessingTime"))
	first := times.read(igp, "ZeroDopplerTimeFirstLine")
	last := times.read(igp, "ZeroDopplerTimeLastLine")
	md.SetTime(KeyFirstLineTime, first)
	md.SetTime(KeyLastLineTime, last)

	rangeLooks := igp.AttributeInt("NumberOfRangeLooks", 1)
	azimuthLooks := igp.AttributeInt("NumberOfAzimuthLooks", 1)
	md.SetInt(KeyRangeLooks, rangeLooks)
	md.SetInt(KeyAzimuthLooks, azimuthLooks)
	if rangeLooks > 1 || azimuthLooks > 1 {
		md.SetInt(KeyMultilookFlag, 1)
	} else {
		md.SetInt(KeyMultilookFlag, 0)
	}

	md.SetFloat(KeySlantRangeToFirstPixel, igp.AttributeDouble("SlantRangeNearEdge", 0))
	if v, ok := lookupFloat(igp, "TotalProcessedRangeBandwidth"); ok {
		md.SetFloat(KeyRangeBandwidth, v/oneMillion)
	}
	if v, ok := lookupFloat(igp, "TotalProcessedAzimuthBandwidth"); ok {
		md.SetFloat(KeyAzimuthBandwidth, v)
	}

	if strings.Contains(attrs.AttributeString("DataType", NoMetadataString), "MAGNITUDE_DETECTED") {
		md.SetString(KeySampleType, "DETECTED")
	} else {
		md.SetString(KeySampleType, "COMPLEX")
	}

	if format := attrs.AttributeString("ProductFormat", NoMetadataString); !strings.EqualFold(format, "GeoTIFF") {
		return nil, nil, &UnsupportedFormatError{Format: format}
	}

	lines, err := requiredInt(attrs, SectionImageAttributes, "NumberOfLinesInImage")
	if err != nil {
		return nil, nil, err
	}
	samples, err := requiredInt(attrs, SectionImageAttributes, "NumberOfSamplesPerLine")
	if err != nil {
		return nil, nil, err
	}
	md.SetInt(KeyNumOutputLines, lines)
	md.SetInt(KeyNumSamplesPerLine, samples)

	if lines <= 1 {
		return nil, nil, &InvalidGeometryError{Reason: "image must have more than one line to derive the line time interval"}
	}
	md.SetFloat(KeyLineTimeInterval, last.Sub(first).Seconds()/float64(lines))

	md.SetFloat(KeyRangeSpacing, attrs.AttributeDouble("SampledPixelSpacing", 0))
	md.SetFloat(KeyAzimuthSpacing, attrs.AttributeDouble("SampledLineSpacing", 0))
	md.SetFloat(KeyPulseRepetitionFrequency, source.AttributeDouble("PulseRepetitionFrequency", NoMetadata))
	md.SetFloat(KeyAvgSceneHeight, geo.AttributeDouble("MeanTerrainHeight", NoMetadata))

	pm := readPolarizations(ctx, md, attrs)

	if err := IngestOrbit(md, orb); err != nil {
		return nil, nil, err
	}
	checkPassDirection(ctx, md)

	if md.SRGR, err = IngestSRGR(productType, igp); err != nil {
		return nil, nil, err
	}
	if md.Doppler, err = IngestDoppler(igp); err != nil {
		return nil, nil, err
	}

	log.Debug(ctx, "metadata normalized",
		logging.String("product", md.GetString(KeyProduct)),
		logging.String("product_type", productType),
		logging.Int("lines", lines),
		logging.Int("samples", samples))

	return md, pm, nil
}

// metadataElement returns the vendor "metadata" document element, accepting
// either the document itself or a parent holding it.
func metadataElement(root *metadata.Element) *metadata.Element {
	if root == nil || root.Name == "metadata" {
		return root
	}
	if md := root.Element("metadata"); md != nil {
		return md
	}
	return root
}

func isGroundRangeType(productType string) bool {
	return strings.Contains(productType, "GRD") || strings.Contains(productType, "SCD")
}

// readPolarizations fills the mdsN keys in vendor order and returns the
// image name to polarization map.
func readPolarizations(ctx context.Context, md *Metadata, attrs *metadata.Element) PolarizationMap {
	pm := make(PolarizationMap)
	n := 0
	for _, elem := range attrs.Elements() {
		if elem.Name != "fullResolutionImageData" {
			continue
		}
		pol := strings.ToUpper(elem.AttributeString("Pol", ""))
		name := strings.ToLower(elem.AttributeString("fullResolutionImageData", ""))
		pm[name] = pol

		if n >= len(polarTags) {
			logging.FromContext(ctx).Warn(ctx, "more image polarizations than metadata slots",
				logging.String("image", name), logging.String("pol", pol))
			continue
		}
		md.SetString(polarTags[n], pol)
		n++
	}
	return pm
}

// checkPassDirection compares the reported pass with the orbit motion.
func checkPassDirection(ctx context.Context, md *Metadata) {
	inferred, ok := orbit.PassDirection(md.OrbitStateVectors)
	if !ok {
		return
	}
	if reported := md.GetString(KeyPass); reported != inferred {
		logging.FromContext(ctx).Warn(ctx, "pass direction disagrees with orbit state vectors",
			logging.String("reported", reported), logging.String("inferred", inferred))
	}
}

func lookupFloat(e *metadata.Element, name string) (float64, bool) {
	if !e.Has(name) {
		return 0, false
	}
	const unset = -1e308
	v := e.AttributeDouble(name, unset)
	return v, v != unset
}

func requiredInt(e *metadata.Element, section, name string) (int, error) {
	if !e.Has(name) {
		return 0, &MissingFieldError{Section: section, Field: name}
	}
	const unset = -1 << 31
	n := e.AttributeInt(name, unset)
	if n == unset {
		return 0, &MissingFieldError{Section: section, Field: name}
	}
	return n, nil
}

// timeReader parses vendor times, falling back to the sentinel with a
// warning.
type timeReader struct {
	ctx context.Context
	log logging.Logger
}

func (r timeReader) read(e *metadata.Element, name string) time.Time {
	s, ok := e.Lookup(name)
	if !ok {
		return NoMetadataUTC
	}
	t, err := metadata.ParseTime(s)
	if err != nil {
		r.log.Warn(r.ctx, "unparsable time", logging.String("field", name), logging.String("value", s), logging.Err(err))
		return NoMetadataUTC
	}
	return t
}
