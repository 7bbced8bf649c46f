package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path"
	"path/filepath"

	"github.com/ivlev/promoreel/internal/storage"
)

// Sink receives finished frames. Implementations must accept frames in any
// order and from several goroutines.
type Sink interface {
	WriteFrame(ctx context.Context, frame int, img image.Image) error
}

// FrameName is the file name of a frame, sortable by frame number.
func FrameName(frame int) string {
	return fmt.Sprintf("frame_%05d.png", frame)
}

// DirSink writes PNG files into a directory.
type DirSink struct {
	Dir string
}

func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DirSink{Dir: dir}, nil
}

func (s *DirSink) WriteFrame(_ context.Context, frame int, img image.Image) error {
	f, err := os.Create(filepath.Join(s.Dir, FrameName(frame)))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// S3Sink uploads PNG frames under Prefix. With SkipExisting a rerun only
// uploads the frames that are missing.
type S3Sink struct {
	Blob         *storage.S3
	Prefix       string
	SkipExisting bool
}

func (s *S3Sink) WriteFrame(ctx context.Context, frame int, img image.Image) error {
	key := path.Join(s.Prefix, FrameName(frame))
	if s.SkipExisting {
		ok, err := s.Blob.Exists(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return s.Blob.Put(ctx, key, &buf, "image/png")
}
