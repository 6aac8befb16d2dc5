package occupancy

import (
	"fmt"
	"image"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// FromImage rasterizes img into a width x height grid. Pixels whose
// luminance is at least threshold are walls, so white shapes on a dark
// background become obstacles.
func FromImage(img image.Image, width, height int, threshold uint8) *Grid {
	gray := image.NewGray(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	g := NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if gray.GrayAt(x, y).Y >= threshold {
				g.walls[y*width+x] = true
			}
		}
	}
	return g
}

// LoadImage decodes a PNG or BMP environment and rasterizes it with
// FromImage
func LoadImage(path string, width, height int, threshold uint8) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open environment image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode environment image %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("environment image %s (%s) is empty", path, format)
	}

	return FromImage(img, width, height, threshold), nil
}
