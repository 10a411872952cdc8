package export

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// Format of an exported archive
type Format string

const (
	FormatZip    Format = "zip"
	FormatRWMod  Format = "rwmod"
	FormatTarGz  Format = "tar.gz"
	FormatTarZst Format = "tar.zst"
)

// ErrUnknownFormat is returned for an unsupported archive format
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts a format name, defaulting to zip for an empty string
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatZip:
		return FormatZip, nil
	case FormatRWMod, FormatTarGz, FormatTarZst:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
	}
}

// Extension is the file extension without the dot
func (f Format) Extension() string {
	return string(f)
}

// ContentType for HTTP downloads
func (f Format) ContentType() string {
	switch f {
	case FormatTarGz:
		return "application/gzip"
	case FormatTarZst:
		return "application/zstd"
	default:
		return "application/zip"
	}
}

// FileName is the download name for a project
func FileName(project string, f Format) string {
	return project + "." + f.Extension()
}

type archiveWriter interface {
	Dir(rel string) error
	File(rel string, data []byte) error
	Close() error
}

func newArchiveWriter(w io.Writer, f Format, modified time.Time) (archiveWriter, error) {
	switch f {
	case FormatZip, FormatRWMod:
		return &zipWriter{zw: zip.NewWriter(w), modified: modified}, nil
	case FormatTarGz:
		gz := gzip.NewWriter(w)
		return &tarWriter{tw: tar.NewWriter(gz), compressor: gz, modified: modified}, nil
	case FormatTarZst:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return &tarWriter{tw: tar.NewWriter(zw), compressor: zw, modified: modified}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

type zipWriter struct {
	zw       *zip.Writer
	modified time.Time
}

func (z *zipWriter) Dir(rel string) error {
	_, err := z.zw.CreateHeader(&zip.FileHeader{Name: rel + "/", Modified: z.modified})
	return err
}

func (z *zipWriter) File(rel string, data []byte) error {
	w, err := z.zw.CreateHeader(&zip.FileHeader{Name: rel, Method: zip.Deflate, Modified: z.modified})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (z *zipWriter) Close() error {
	return z.zw.Close()
}

type tarWriter struct {
	tw         *tar.Writer
	compressor io.WriteCloser
	modified   time.Time
}

func (t *tarWriter) Dir(rel string) error {
	return t.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     rel + "/",
		Mode:     0o755,
		ModTime:  t.modified,
	})
}

func (t *tarWriter) File(rel string, data []byte) error {
	if err := t.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     rel,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  t.modified,
	}); err != nil {
		return err
	}
	_, err := t.tw.Write(data)
	return err
}

func (t *tarWriter) Close() error {
	if err := t.tw.Close(); err != nil {
		t.compressor.Close()
		return err
	}
	return t.compressor.Close()
}
