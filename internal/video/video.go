// Package video encodes rendered frames into video files.
package video

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
)

// Params describes the frame stream handed to an encoder.
type Params struct {
	Width, Height int
	FPS           int
	Codec         string // ffmpeg encoder name, e.g. libx264
	Quality       int    // CRF, CQ or bitrate step depending on Codec
}

func (p Params) validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", p.Width, p.Height)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %d", p.FPS)
	}
	return nil
}

// Stream accepts frames in presentation order.
type Stream interface {
	WriteFrame(img image.Image) error
	Close() error
}

// Encoder opens a stream writing to a file.
type Encoder interface {
	Open(ctx context.Context, path string, p Params) (Stream, error)
}

// ForPath picks an encoder from the output file extension.
func ForPath(path string) (Encoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gif":
		return &GIFEncoder{}, nil
	case ".mp4", ".mov", ".mkv", ".webm":
		return &FFmpegEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", ext)
	}
}

func checkFrame(img image.Image, p Params) error {
	if b := img.Bounds(); b.Dx() != p.Width || b.Dy() != p.Height {
		return fmt.Errorf("frame is %dx%d, stream is %dx%d", b.Dx(), b.Dy(), p.Width, p.Height)
	}
	return nil
}
