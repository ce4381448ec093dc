package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"datasetprep/fingerprint"
	"datasetprep/imageprocessor"
	"datasetprep/logging"
	"datasetprep/types"
	"datasetprep/utils"
)

// ScanClassDirectory fingerprints every decodable entry of a class directory
// in sorted name order. Entries that cannot be decoded are skipped.
func ScanClassDirectory(ctx context.Context, options ScanOptions) (*ScanResult, error) {
	if err := utils.RequireDir(options.ClassDir); err != nil {
		return nil, err
	}

	class := options.Class
	if class == "" {
		class = filepath.Base(filepath.Clean(options.ClassDir))
	}
	registry := options.Registry
	if registry == nil {
		registry = imageprocessor.NewImageLoaderRegistry()
	}

	names, err := utils.ListEntries(options.ClassDir)
	if err != nil {
		return nil, fmt.Errorf("cannot list class %s: %w", class, err)
	}

	logging.DebugLog("Starting fingerprint scan of class %s (%d entries)", class, len(names))

	result := &ScanResult{Class: class, Entries: len(names)}
	progress := utils.NewProgress(options.ProgressOutput, "Hashing "+class, len(names))
	defer progress.Finish()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan of class %s interrupted: %w", class, err)
		}

		res := processImage(registry, class, filepath.Join(options.ClassDir, name))
		progress.Increment()

		if !res.Success {
			result.Skipped++
			logging.LogImageProcessed(res.Path, false, res.Error.Error())
			if imageprocessor.IsImageFile(res.Path) {
				logging.LogWarning("skipping unreadable image %s\n", res.Path)
			}
			continue
		}
		logging.LogImageProcessed(res.Path, true, "")

		if err := storeIfIndexed(options.DB, res.Info); err != nil {
			return nil, err
		}
		result.Records = append(result.Records, types.FingerprintRecord{
			Filename: res.Info.Filename,
			Hash:     res.Info.Hash,
		})
	}

	logging.DebugLog("Class %s: %d fingerprints, %d entries skipped", class, len(result.Records), result.Skipped)
	return result, nil
}

// ScanAndStoreClass fingerprints a class directory and writes its table to tablePath
func ScanAndStoreClass(ctx context.Context, options ScanOptions, tablePath string) (*ScanResult, error) {
	result, err := ScanClassDirectory(ctx, options)
	if err != nil {
		return nil, err
	}

	if err := fingerprint.WriteTable(tablePath, result.Records); err != nil {
		return nil, fmt.Errorf("class %s: %w", result.Class, err)
	}

	logging.LogInfo("Wrote %d fingerprints for class %s to %s", len(result.Records), result.Class, tablePath)
	return result, nil
}

// processImage decodes and hashes a single entry
func processImage(registry *imageprocessor.ImageLoaderRegistry, class, path string) ProcessImageResult {
	result := ProcessImageResult{Path: path}

	decoded := registry.Decode(path)
	if !decoded.OK() {
		result.Error = decoded.Err()
		return result
	}
	defer decoded.Close()

	img := decoded.Mat()
	hash, err := imageprocessor.ComputeContentHash(img)
	if err != nil {
		result.Error = fmt.Errorf("cannot compute hash for %s: %w", path, err)
		return result
	}

	info := types.ImageInfo{
		Class:    class,
		Filename: filepath.Base(path),
		Hash:     hash,
		Format:   string(imageprocessor.GetFileFormat(path)),
		Width:    img.Cols(),
		Height:   img.Rows(),
	}
	if fileInfo, err := os.Stat(path); err == nil {
		info.Size = fileInfo.Size()
		info.ModifiedAt = fileInfo.ModTime().Format(time.RFC3339)
	}

	result.Info = info
	result.Success = true
	return result
}
