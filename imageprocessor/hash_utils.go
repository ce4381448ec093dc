package imageprocessor

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"gocv.io/x/gocv"
)

// ComputeContentHash returns the hex MD5 digest of the raw decoded pixel
// buffer. Two files holding the same pixels hash identically regardless of
// how they were encoded.
func ComputeContentHash(img gocv.Mat) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("cannot compute hash for empty image")
	}

	sum := md5.Sum(img.ToBytes())
	return hex.EncodeToString(sum[:]), nil
}
