package output

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/micromag/internal/fsutil"
)

// Encoder writes a record in one format.
type Encoder func(w io.Writer, rec *Record) error

var encoders = map[string]Encoder{
	FormatText:   WriteText,
	FormatBinary: WriteBinary,
	FormatPNG:    WritePNG,
	FormatHTML:   WriteHTML,
}

// Formats lists the formats FileWriter handles.
func Formats() []string { return []string{FormatText, FormatBinary, FormatPNG, FormatHTML} }

// FileWriter persists records as files. Relative record paths are resolved
// against Dir.
type FileWriter struct {
	Dir string
	FS  fsutil.FileSystem
}

// NewFileWriter returns a writer rooted at dir. A nil fs selects the OS
// filesystem.
func NewFileWriter(dir string, fs fsutil.FileSystem) *FileWriter {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &FileWriter{Dir: dir, FS: fs}
}

// Resolve returns the file path a record path is written to.
func (w *FileWriter) Resolve(path string) string {
	if filepath.IsAbs(path) || w.Dir == "" {
		return path
	}
	return filepath.Join(w.Dir, path)
}

// Persist encodes rec in rec.Format and writes it to rec.Path.
func (w *FileWriter) Persist(rec *Record) error {
	enc, ok := encoders[rec.Format]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, rec.Format)
	}
	if rec.Field == nil {
		return fmt.Errorf("save %s: no data", rec.Name)
	}
	if rec.Path == "" {
		return fmt.Errorf("save %s: empty path", rec.Name)
	}
	path := w.Resolve(rec.Path)
	if dir := filepath.Dir(path); dir != "." {
		if err := w.FS.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	f, err := w.FS.Create(path)
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.Name, err)
	}
	if err := enc(f, rec); err != nil {
		f.Close()
		return fmt.Errorf("save %s as %s: %w", rec.Name, rec.Format, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save %s: %w", rec.Name, err)
	}
	return nil
}
