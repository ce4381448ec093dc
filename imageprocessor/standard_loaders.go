package imageprocessor

import (
	"fmt"
	"image"
	"image/color"
	"os"

	// Decoders registered with image.Decode for the Go fallback loader
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"gocv.io/x/gocv"
)

// OpenCVImageLoader decodes files with OpenCV in color mode (8-bit BGR),
// the pixel layout every fingerprint is computed over
type OpenCVImageLoader struct{}

// NewOpenCVImageLoader creates the primary loader
func NewOpenCVImageLoader() *OpenCVImageLoader {
	return &OpenCVImageLoader{}
}

// Name identifies the loader in logs
func (l *OpenCVImageLoader) Name() string {
	return "opencv"
}

// CanLoad accepts any regular file; OpenCV sniffs the content itself
func (l *OpenCVImageLoader) CanLoad(path string) bool {
	return isRegularFile(path)
}

// LoadImage reads the file as an 8-bit BGR image
func (l *OpenCVImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, newImageLoadError("opencv could not decode image", path)
	}
	return img, nil
}

// GoImageLoader decodes with the Go image packages and converts the result
// into a BGR Mat. Used for files OpenCV was built without support for.
type GoImageLoader struct{}

// NewGoImageLoader creates the fallback loader
func NewGoImageLoader() *GoImageLoader {
	return &GoImageLoader{}
}

// Name identifies the loader in logs
func (l *GoImageLoader) Name() string {
	return "go-image"
}

// CanLoad accepts any regular file; image.Decode sniffs the magic bytes
func (l *GoImageLoader) CanLoad(path string) bool {
	return isRegularFile(path)
}

// LoadImage decodes the file and converts it to a Mat
func (l *GoImageLoader) LoadImage(path string) (gocv.Mat, error) {
	img, err := decodeGoImage(path)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("go image decode failed for %s: %w", path, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return gocv.Mat{}, newImageLoadError("decoded image has no pixels", path)
	}

	mat, err := matFromGoImage(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("cannot convert %s to mat: %w", path, err)
	}
	return mat, nil
}

// matFromGoImage converts a Go image into an 8-bit BGR Mat with the same
// byte layout OpenCV produces when it decodes the file itself
func matFromGoImage(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	data := make([]byte, 0, width*height*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			data = append(data, c.B, c.G, c.R)
		}
	}

	shared, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer shared.Close()

	// Clone so the Mat owns its pixels instead of pointing into data
	return shared.Clone(), nil
}

// decodeGoImage opens and decodes a file with the registered Go decoders
func decodeGoImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
