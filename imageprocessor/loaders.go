package imageprocessor

import (
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// ImageLoader interface defines methods for image loading
type ImageLoader interface {
	// Name identifies the loader in logs
	Name() string

	// CanLoad determines if this loader should try the given file
	CanLoad(path string) bool

	// LoadImage decodes a file into an 8-bit, 3-channel BGR Mat.
	// On error the returned Mat is empty and needs no Close.
	LoadImage(path string) (gocv.Mat, error)
}

// isRegularFile checks if path exists and is a regular file
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string) error {
	return fmt.Errorf("%s: %s", message, path)
}
