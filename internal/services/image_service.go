package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"path"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	// register the WebP decoder with image.Decode
	_ "golang.org/x/image/webp"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrHEICUnsupported = errors.New("HEIC/HEIF images are not supported, please convert to JPEG")
	ErrEmptyFile       = errors.New("empty file")
	ErrDecodeImage     = errors.New("cannot decode image")
)

var acceptedMIME = []string{"image/jpeg", "image/png", "image/webp"}

var heicMIME = []string{"image/heic", "image/heif", "image/heic-sequence", "image/heif-sequence"}

type ImageOptions struct {
	MaxSize      int64
	MaxDimension int
	Quality      int
}

type ProcessedImage struct {
	Path       string `json:"path"`
	URL        string `json:"url"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Size       int64  `json:"size"`
	SourceMIME string `json:"source_mime"`
}

// ImageService normalizes uploaded photos: EXIF orientation applied,
// bounded to MaxDimension on the longer side, re-encoded as JPEG.
type ImageService struct {
	store *FileStore
	opts  ImageOptions
}

func NewImageService(store *FileStore, opts ImageOptions) *ImageService {
	return &ImageService{store: store, opts: opts}
}

// Process reads at most MaxSize bytes from r, converts them and stores the
// result as <subdir>/<uuid>.jpg. size is the client-declared size, checked
// before reading; -1 means unknown.
func (s *ImageService) Process(ctx context.Context, r io.Reader, size int64, subdir string) (*ProcessedImage, error) {
	if size > s.opts.MaxSize {
		return nil, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxSize {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	mtype := mimetype.Detect(data)
	if mimetype.EqualsAny(mtype.String(), heicMIME...) {
		return nil, ErrHEICUnsupported
	}
	if !mimetype.EqualsAny(mtype.String(), acceptedMIME...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeImage, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img = s.bound(img)
	if mtype.String() != "image/jpeg" {
		img = flatten(img)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := path.Join(subdir, uuid.New().String()+".jpg")
	written, err := s.store.WriteAtomic(rel, func(w io.Writer) error {
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(s.opts.Quality))
	})
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	bounds := img.Bounds()
	result := &ProcessedImage{
		Path:       rel,
		URL:        s.store.PublicURL(rel),
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Size:       written,
		SourceMIME: mtype.String(),
	}
	logrus.WithFields(logrus.Fields{
		"path":        result.Path,
		"source_mime": result.SourceMIME,
		"source_size": len(data),
		"size":        result.Size,
		"width":       result.Width,
		"height":      result.Height,
	}).Info("image processed")
	return result, nil
}

// Discard removes a processed file that ended up unused.
func (s *ImageService) Discard(rel string) {
	if err := s.store.Remove(rel); err != nil {
		logrus.WithError(err).WithField("path", rel).Warn("failed to discard processed image")
	}
}

func (s *ImageService) bound(img image.Image) image.Image {
	limit := s.opts.MaxDimension
	b := img.Bounds()
	if limit <= 0 || (b.Dx() <= limit && b.Dy() <= limit) {
		return img
	}
	return imaging.Fit(img, limit, limit, imaging.Lanczos)
}

// flatten draws img over white so transparent areas don't turn black in JPEG.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
