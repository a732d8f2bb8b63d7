// Package clustering groups downloaded logos by visual similarity. Images are
// fingerprinted with a DCT perceptual hash, linked when their fingerprints are
// close in Hamming distance, and the connected components of that graph are
// copied into one directory per group.
package clustering

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"logogrouper/pkg/domain"
	"logogrouper/pkg/logger"
	"logogrouper/pkg/serrors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp" // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// rasterExtensions lists the file extensions the indexer decodes.
var rasterExtensions = map[string]struct{}{ //nolint: gochecknoglobals
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".bmp":  {},
	".gif":  {},
	".webp": {},
}

// maxImagePixels caps the decoded size of an image. Larger images are
// rejected from their header, before any pixel memory is allocated.
const maxImagePixels = 4096 * 4096

// Index fingerprints every raster image directly inside dir, in file name
// order. Files that cannot be decoded are logged and left out of the result;
// they are never removed from disk.
func Index(ctx context.Context, dir string) ([]domain.ImageAsset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "logo directory %s does not exist", dir)
		}

		return nil, fmt.Errorf("could not read logo directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	assets, err := IndexFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "images indexed", zap.String("dir", dir), zap.Int("count", len(assets)))

	return assets, nil
}

// IndexFiles fingerprints the raster images among paths, sorted and without
// duplicates. Other files are ignored; images that cannot be decoded are
// logged and left out of the result.
func IndexFiles(ctx context.Context, paths []string) ([]domain.ImageAsset, error) {
	paths = slices.Clone(paths)
	slices.Sort(paths)
	paths = slices.Compact(paths)

	assets := make([]domain.ImageAsset, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("could not finish indexing: %w", err)
		}
		if !IsRaster(path) {
			continue
		}

		fingerprint, err := Fingerprint(path)
		if err != nil {
			fields := []zap.Field{zap.String("path", path), zap.Error(err)}
			if mtype, mErr := mimetype.DetectFile(path); mErr == nil {
				fields = append(fields, zap.String("mimetype", mtype.String()))
			}
			logger.Warn(ctx, "skipping image", fields...)

			continue
		}

		assets = append(assets, domain.ImageAsset{Path: path, Fingerprint: fingerprint})
	}

	return assets, nil
}

// IsRaster reports whether name has one of the decodable image extensions.
func IsRaster(name string) bool {
	_, ok := rasterExtensions[strings.ToLower(filepath.Ext(name))]

	return ok
}

// Fingerprint decodes the image at path and returns its perceptual hash.
// Images larger than maxImagePixels fail with serrors.ErrImageDecode.
func Fingerprint(path string) (domain.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, serrors.Wrap(serrors.ErrImageDecode, err, "could not open image")
	}
	defer func() {
		_ = f.Close()
	}()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, serrors.Wrap(serrors.ErrImageDecode, err, "could not decode image header")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return 0, serrors.With(serrors.ErrImageDecode, "image size %dx%d out of range", cfg.Width, cfg.Height)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("could not rewind image: %w", err)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, serrors.Wrap(serrors.ErrImageDecode, err, "could not decode image")
	}

	hash, err := goimagehash.PerceptionHash(flatten(img))
	if err != nil {
		return 0, serrors.Wrap(serrors.ErrImageDecode, err, "could not hash image")
	}

	return domain.Fingerprint(hash.GetHash()), nil
}

// flatten composites img over an opaque white background, so that transparent
// regions hash like the white page they are usually shown on.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)

	return dst
}
