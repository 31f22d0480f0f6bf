package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
)

const (
	// Feed images are downscaled to this box before upload.
	MaxWidth  = 1200
	MaxHeight = 1200
	// JPEGQuality is the re-encode quality for optimized images.
	JPEGQuality = 80

	minDimension = 200
)

// Validation is the verdict for an image file about to be uploaded.
type Validation struct {
	Valid      bool   `json:"valid"`
	Format     string `json:"format,omitempty"`
	Dimensions string `json:"dimensions,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Validate sniffs the file type and decodes the image header. Images
// smaller than 200x200 are rejected, matching the platform's minimum.
func Validate(path string) Validation {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Validation{Error: err.Error()}
	}

	kind, err := filetype.Match(buf)
	if err != nil || !filetype.IsImage(buf) {
		return Validation{Error: "Invalid image format"}
	}

	f, err := os.Open(path)
	if err != nil {
		return Validation{Error: err.Error()}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Validation{Error: "Invalid image format"}
	}
	if cfg.Width < minDimension || cfg.Height < minDimension {
		return Validation{Error: fmt.Sprintf("Image too small (minimum %dx%d)", minDimension, minDimension)}
	}

	return Validation{
		Valid:      true,
		Format:     kind.Extension,
		Dimensions: fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
	}
}

// Optimize fit-resizes the image into maxW x maxH (never enlarging) and
// re-encodes it as JPEG in place via a temp file. A failure is logged and
// the original file is kept; the upload continues with the unoptimized
// bytes, matching the reference behavior.
func Optimize(path string, maxW, maxH, quality int) {
	img, err := imaging.Open(path)
	if err != nil {
		slog.Warn("image optimization skipped", "path", path, "error", err)
		return
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxW || bounds.Dy() > maxH {
		img = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	}

	tmp := path + ".optimized"
	out, err := os.Create(tmp)
	if err != nil {
		slog.Warn("image optimization skipped", "path", path, "error", err)
		return
	}
	if err := imaging.Encode(out, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		out.Close()
		os.Remove(tmp)
		slog.Warn("image optimization failed", "path", path, "error", err)
		return
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		slog.Warn("image optimization failed", "path", path, "error", err)
		return
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		slog.Warn("image optimization failed", "path", path, "error", err)
		return
	}

	if info, err := os.Stat(path); err == nil {
		slog.Info("image optimized", "path", path, "size_kb", info.Size()/1024)
	}
}
