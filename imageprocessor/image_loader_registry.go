package imageprocessor

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"datasetprep/logging"

	"gocv.io/x/gocv"
)

// ImageLoaderRegistry holds an ordered chain of loaders. Each file is offered
// to the loaders in registration order until one decodes it.
type ImageLoaderRegistry struct {
	loaders []ImageLoader
	mutex   sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with OpenCV first and the Go
// decoders as fallback
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{}
	registry.RegisterLoader(NewOpenCVImageLoader())
	registry.RegisterLoader(NewGoImageLoader())
	return registry
}

// RegisterLoader appends a loader to the chain
func (r *ImageLoaderRegistry) RegisterLoader(loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders = append(r.loaders, loader)
}

// Loaders returns the registered loaders in order
func (r *ImageLoaderRegistry) Loaders() []ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]ImageLoader, len(r.loaders))
	copy(out, r.loaders)
	return out
}

// Decode runs the loader chain for path. A file no loader can decode yields
// a failed result carrying every loader's reason.
func (r *ImageLoaderRegistry) Decode(path string) DecodeResult {
	var reasons []error

	for _, loader := range r.Loaders() {
		if !loader.CanLoad(path) {
			continue
		}

		img, err := safeLoad(loader, path)
		if err == nil {
			logging.DebugLog("Decoded %s with %s loader", path, loader.Name())
			return Decoded(img)
		}
		reasons = append(reasons, err)
	}

	if len(reasons) == 0 {
		return Failed(newImageLoadError("not a regular file", path))
	}
	return Failed(errors.Join(reasons...))
}

// safeLoad calls the loader, turning a panic inside the image libraries into an error
func safeLoad(loader ImageLoader, path string) (img gocv.Mat, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.LogError("Panic during image loading: %v, file: %s\nStack trace: %s\n", rec, path, string(debug.Stack()))
			img = gocv.Mat{}
			err = fmt.Errorf("panic during %s image loading: %v", loader.Name(), rec)
		}
	}()

	return loader.LoadImage(path)
}
