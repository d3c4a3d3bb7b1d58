package dicomio

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"glrlm3d/pkg/volume"
)

// Series is one decoded DICOM series stacked into a flat volume in
// row-major order (x fastest, then y, then z).
type Series struct {
	Data    []float64
	Width   int
	Height  int
	Depth   int
	Spacing volume.Spacing
}

// slice is one decoded file, kept with its ordering key until the whole
// series is read.
type slice struct {
	data     []float64
	width    int
	height   int
	instance int
}

// LoadSeries reads every DICOM file of a directory and stacks the
// decoded frames into a single volume. Slices are ordered by
// InstanceNumber when present, otherwise by the finder's filename sort.
// All slices must share the same dimensions.
func LoadSeries(dir string) (*Series, error) {
	paths, err := FindSeries(dir)
	if err != nil {
		return nil, err
	}

	slices := make([]slice, 0, len(paths))
	spacing := volume.Spacing{X: 1, Y: 1, Z: 1}
	haveInstances := true

	for i, path := range paths {
		ds, err := parseFile(path)
		if err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}

		s, err := decodeSlice(ds)
		if err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", path, err)
		}
		if s.instance == 0 {
			haveInstances = false
			s.instance = i
		}
		slices = append(slices, s)

		if i == 0 {
			spacing = readSpacing(ds)
		}
	}

	if haveInstances {
		sort.SliceStable(slices, func(i, j int) bool {
			return slices[i].instance < slices[j].instance
		})
	}

	width, height := slices[0].width, slices[0].height
	series := &Series{
		Data:    make([]float64, 0, width*height*len(slices)),
		Width:   width,
		Height:  height,
		Depth:   len(slices),
		Spacing: spacing,
	}
	for _, s := range slices {
		if s.width != width || s.height != height {
			return nil, fmt.Errorf("slice dimensions %dx%d differ from series dimensions %dx%d",
				s.width, s.height, width, height)
		}
		series.Data = append(series.Data, s.data...)
	}

	return series, nil
}

// BuildGrid combines an image series and a mask series into a voxel
// grid. A mask voxel belongs to the region of interest when its value
// is nonzero. Both series must share dimensions; the image's spacing
// wins.
func BuildGrid(image, mask *Series) (*volume.Grid, error) {
	if image.Width != mask.Width || image.Height != mask.Height || image.Depth != mask.Depth {
		return nil, fmt.Errorf("image %dx%dx%d and mask %dx%dx%d dimensions differ",
			image.Width, image.Height, image.Depth, mask.Width, mask.Height, mask.Depth)
	}

	roi := make([]bool, len(mask.Data))
	for i, v := range mask.Data {
		roi[i] = v != 0
	}

	return volume.New(image.Data, roi, image.Width, image.Height, image.Depth, image.Spacing)
}

// parseFile reads and parses one DICOM file.
func parseFile(path string) (*dicom.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat file: %w", err)
	}

	ds, err := dicom.Parse(file, info.Size(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not parse DICOM: %w", err)
	}

	return &ds, nil
}

// decodeSlice extracts the first native frame of a dataset.
func decodeSlice(ds *dicom.Dataset) (slice, error) {
	pixelElem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return slice{}, fmt.Errorf("no pixel data: %w", err)
	}

	info, ok := pixelElem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return slice{}, fmt.Errorf("unsupported pixel data type %T", pixelElem.Value.GetValue())
	}
	if len(info.Frames) == 0 {
		return slice{}, fmt.Errorf("pixel data holds no frames")
	}

	frame := info.Frames[0]
	if frame.Encapsulated {
		return slice{}, fmt.Errorf("encapsulated transfer syntaxes are not supported")
	}

	native := frame.NativeData
	data := make([]float64, len(native.Data))
	for i, px := range native.Data {
		// First sample only; masks and CT/MR intensities are single
		// channel.
		data[i] = float64(px[0])
	}

	return slice{
		data:     data,
		width:    native.Cols,
		height:   native.Rows,
		instance: intTagValue(ds, tag.InstanceNumber),
	}, nil
}

// readSpacing extracts the voxel size. PixelSpacing is row spacing then
// column spacing; the z size comes from SpacingBetweenSlices with
// SliceThickness as fallback. Missing tags leave 1mm defaults.
func readSpacing(ds *dicom.Dataset) volume.Spacing {
	spacing := volume.Spacing{X: 1, Y: 1, Z: 1}

	if values := stringTagValues(ds, tag.PixelSpacing); len(values) == 2 {
		if row, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64); err == nil {
			spacing.Y = row
		}
		if col, err := strconv.ParseFloat(strings.TrimSpace(values[1]), 64); err == nil {
			spacing.X = col
		}
	}

	for _, t := range []tag.Tag{tag.SpacingBetweenSlices, tag.SliceThickness} {
		if values := stringTagValues(ds, t); len(values) == 1 {
			if z, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64); err == nil {
				spacing.Z = z
				break
			}
		}
	}

	return spacing
}

// stringTagValues returns a tag's string values, or nil if absent.
func stringTagValues(ds *dicom.Dataset, t tag.Tag) []string {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem.Value == nil {
		return nil
	}
	values, ok := elem.Value.GetValue().([]string)
	if !ok {
		return nil
	}
	return values
}

// intTagValue returns a tag's value as an int, parsing string encodings
// when needed. Returns 0 when the tag is absent.
func intTagValue(ds *dicom.Dataset, t tag.Tag) int {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem.Value == nil {
		return 0
	}

	switch v := elem.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0]
		}
	case []string:
		if len(v) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(v[0])); err == nil {
				return n
			}
		}
	}
	return 0
}
