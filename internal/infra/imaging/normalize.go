package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/apex/log"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/bryanwahyu/photo-critic/internal/domain/photos"
	"github.com/bryanwahyu/photo-critic/internal/metrics"
)

// Options tunes the size-reduction loop and the thumbnail.
type Options struct {
	TargetBytes      int
	InitialQuality   int
	QualityStep      int
	MinQuality       int
	ThumbnailSize    int
	ThumbnailQuality int
	SkipOrientation  bool
}

// DefaultOptions: 1 MiB bound, quality 85 stepping by 5 down to 10, 100px thumbnails at 70.
func DefaultOptions() Options {
	return Options{
		TargetBytes:      1024 * 1024,
		InitialQuality:   85,
		QualityStep:      5,
		MinQuality:       10,
		ThumbnailSize:    100,
		ThumbnailQuality: 70,
	}
}

// Normalizer converts arbitrary uploads into bounded JPEG bytes plus a thumbnail.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	opts Options
}

// New fills zero-valued options with defaults.
func New(opts Options) *Normalizer {
	def := DefaultOptions()
	if opts.TargetBytes <= 0 {
		opts.TargetBytes = def.TargetBytes
	}
	if opts.InitialQuality <= 0 {
		opts.InitialQuality = def.InitialQuality
	}
	if opts.QualityStep <= 0 {
		opts.QualityStep = def.QualityStep
	}
	if opts.MinQuality <= 0 {
		opts.MinQuality = def.MinQuality
	}
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = def.ThumbnailSize
	}
	if opts.ThumbnailQuality <= 0 {
		opts.ThumbnailQuality = def.ThumbnailQuality
	}
	return &Normalizer{opts: opts}
}

// Normalize returns the storable JPEG and its thumbnail data URI.
func (n *Normalizer) Normalize(raw []byte) (photos.Normalized, error) {
	img, err := n.decode(raw)
	if err != nil {
		return photos.Normalized{}, err
	}

	data, err := n.compress(flatten(img))
	if err != nil {
		return photos.Normalized{}, err
	}

	thumb, err := n.Thumbnail(data)
	if err != nil {
		return photos.Normalized{}, err
	}

	return photos.Normalized{Bytes: data, Thumbnail: thumb}, nil
}

// Thumbnail fits the image inside the thumbnail box (never upscaling) and
// returns it as a JPEG data URI.
func (n *Normalizer) Thumbnail(raw []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", photos.ErrInvalidImage, err)
	}
	src := flatten(img)

	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), n.opts.ThumbnailSize)
	var out image.Image = src
	if w != src.Bounds().Dx() || h != src.Bounds().Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		out = dst
	}

	data, err := encodeJPEG(out, n.opts.ThumbnailQuality)
	if err != nil {
		return "", err
	}
	return photos.JPEGDataURI(data), nil
}

// Metadata reports dimensions, format, colour model and EXIF orientation.
// The boolean is false when the bytes are not a readable image.
func (n *Normalizer) Metadata(raw []byte) (photos.ImageMeta, bool) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return photos.ImageMeta{}, false
	}
	return photos.ImageMeta{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      format,
		ColorModel:  colorModelName(cfg.ColorModel),
		Orientation: readOrientation(raw),
	}, true
}

func (n *Normalizer) decode(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", photos.ErrInvalidImage, err)
	}
	if n.opts.SkipOrientation {
		return img, nil
	}
	if o := readOrientation(raw); o != 1 {
		img = orient(img, o)
		log.WithField("orientation", o).Debug("applied exif orientation")
	}
	return img, nil
}

// compress runs the quality loop and, if the floor is not enough, one
// corrective resize. The resized encode is not re-checked against the bound.
func (n *Normalizer) compress(img *image.RGBA) ([]byte, error) {
	target := n.opts.TargetBytes
	quality := n.opts.InitialQuality

	data, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}
	if len(data) <= target {
		return data, nil
	}

	for len(data) > target && quality > n.opts.MinQuality {
		quality -= n.opts.QualityStep
		if data, err = encodeJPEG(img, quality); err != nil {
			return nil, err
		}
	}

	if len(data) > target {
		before := len(data)
		scale := math.Sqrt(float64(target) / float64(before))
		b := img.Bounds()
		w := max(1, int(float64(b.Dx())*scale))
		h := max(1, int(float64(b.Dy())*scale))

		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		if data, err = encodeJPEG(dst, quality); err != nil {
			return nil, err
		}
		metrics.ImagesResizedTotal.Inc()
		log.WithFields(log.Fields{
			"quality":  quality,
			"scale":    fmt.Sprintf("%.3f", scale),
			"original": fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
			"resized":  fmt.Sprintf("%dx%d", w, h),
			"before":   before,
			"after":    len(data),
		}).Info("image resized to fit size bound")
	}

	return data, nil
}

// flatten converts any colour model to truecolor RGBA. Images with
// transparency are composited onto opaque white first.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if hasAlpha(src) {
		draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
		return dst
	}
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales (w, h) down to fit a size×size box, keeping aspect ratio.
func fitWithin(w, h, size int) (int, int) {
	if w <= size && h <= size {
		return w, h
	}
	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := min(size, max(1, int(math.Round(float64(w)*scale))))
	nh := min(size, max(1, int(math.Round(float64(h)*scale))))
	return nw, nh
}
