package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"

	"golang.org/x/image/draw"
)

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	Binary string // Defaults to "ffmpeg"
}

func (e *FFmpegEncoder) Open(ctx context.Context, path string, p Params) (Stream, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.Codec == "" {
		p.Codec = "libx264"
	}
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin, buildFFmpegArgs(path, p)...)
	s := &ffmpegStream{cmd: cmd, params: p}
	cmd.Stderr = &s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	s.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return s, nil
}

func buildFFmpegArgs(path string, p Params) []string {
	args := []string{
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", p.Codec,
	}

	// Quality depends on the encoder
	switch p.Codec {
	case "h264_videotoolbox":
		bitrate := p.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
	case "libx264":
		args = append(args, "-crf", fmt.Sprintf("%d", p.Quality), "-preset", "medium")
	default:
		args = append(args, "-q:v", fmt.Sprintf("%d", max(1, p.Quality/8)))
	}

	args = append(args, "-movflags", "+faststart", path)
	return args
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	params Params
	closed bool
}

func (s *ffmpegStream) WriteFrame(img image.Image) error {
	if err := checkFrame(img, s.params); err != nil {
		return err
	}
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	return nil
}

// Close ends the input and waits for ffmpeg to finish the file.
func (s *ffmpegStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w: %s", err, bytes.TrimSpace(tail(s.stderr.Bytes(), 512)))
	}
	return nil
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix[:bounds.Dx()*bounds.Dy()*4])
	return err
}

func tail(b []byte, n int) []byte {
	if len(b) > n {
		return b[len(b)-n:]
	}
	return b
}
