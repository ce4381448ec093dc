// Package imageprocessor decodes dataset images into pixel buffers and
// computes content digests over the decoded pixels.
package imageprocessor

import "gocv.io/x/gocv"

// DecodeResult is the outcome of decoding one file: either a pixel buffer
// or the reason decoding failed. A successful result owns its Mat and must
// be closed by the caller.
type DecodeResult struct {
	mat gocv.Mat
	err error
	ok  bool
}

// Decoded wraps a successfully decoded, non-empty image
func Decoded(mat gocv.Mat) DecodeResult {
	return DecodeResult{mat: mat, ok: true}
}

// Failed records why a file could not be decoded
func Failed(err error) DecodeResult {
	return DecodeResult{err: err}
}

// OK reports whether the file was decoded
func (r DecodeResult) OK() bool {
	return r.ok
}

// Mat returns the decoded pixel buffer. Only valid when OK is true.
func (r DecodeResult) Mat() gocv.Mat {
	return r.mat
}

// Err returns the decode failure reason, nil on success
func (r DecodeResult) Err() error {
	return r.err
}

// Close releases the pixel buffer of a successful result
func (r DecodeResult) Close() {
	if r.ok {
		r.mat.Close()
	}
}
