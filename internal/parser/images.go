package parser

import (
	"path"
	"sort"
	"strings"

	"github.com/beetlebugorg/novasar/internal/raster"
)

// ImageKind is the raw sample type of an image file.
type ImageKind int

const (
	ImageInt32 ImageKind = iota
	ImageFloat32
)

func (k ImageKind) String() string {
	if k == ImageFloat32 {
		return "float32"
	}
	return "int32"
}

// ImageFile is one raster file of a product.
type ImageFile struct {
	// Name is the lowercase base name, used for polarization lookup.
	Name        string
	Path        string
	Kind        ImageKind
	SampleBands int
	Decoder     *raster.Serialized
}

// AcceptImageFile reports whether a file name is a product image and the
// sample type of its pixels. Anything else in the product is ignored.
func AcceptImageFile(name string) (ImageKind, bool) {
	name = strings.ToLower(path.Base(name))
	if !strings.HasSuffix(name, ".tif") && !strings.HasSuffix(name, ".tiff") {
		return 0, false
	}
	switch {
	case strings.HasPrefix(name, "image"):
		return ImageInt32, true
	case strings.HasPrefix(name, "rh"), strings.HasPrefix(name, "rv"):
		return ImageFloat32, true
	}
	return 0, false
}

// sortImages orders images by name.
func sortImages(images []ImageFile) {
	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
}

// closeImages closes every decoder, returning the first error.
func closeImages(images []ImageFile) error {
	var first error
	for _, img := range images {
		if img.Decoder == nil {
			continue
		}
		if err := img.Decoder.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
