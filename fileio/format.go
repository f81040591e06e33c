package fileio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hengadev/serdx"
)

var (
	// ErrCannotInferFormat is returned when neither an explicit format nor
	// a recognized file extension is available.
	ErrCannotInferFormat = errors.New("cannot infer format from path")

	// ErrAppendNotSupported is returned when Append is requested on a
	// format that writes a single whole document.
	ErrAppendNotSupported = errors.New("append requires a line-mode format")

	// ErrLineModeOnly is returned when an operation and the format
	// disagree about line orientation, for example Lines on a
	// whole-document format.
	ErrLineModeOnly = errors.New("operation does not fit the format's line mode")

	// ErrFileExists is returned by Dump when the path exists and
	// WithExistsOK(false) was set.
	ErrFileExists = errors.New("file already exists")

	// ErrDataExpected is returned when a format that operates on
	// serialized data receives a raw value because serialization was
	// switched off.
	ErrDataExpected = errors.New("format expects serialized data")

	// ErrSequenceExpected is returned when a line-mode dump receives a
	// value that does not expose items to write per line.
	ErrSequenceExpected = errors.New("line-mode dump expects a sequence")
)

// Format describes one entry of the format catalog: how a value is
// written to and read from a file, whether the content is binary or
// line oriented, and whether values pass through serialization on the
// way in and out.
type Format struct {
	// Name identifies the format in errors and CLI output.
	Name string

	// Exts lists the file extensions (without the dot) recognized during
	// inference. The first one is the canonical extension for output.
	Exts []string

	// Binary marks formats whose on-disk content is not text.
	Binary bool

	// LineMode marks formats that store one item per line and support
	// appending and line iteration.
	LineMode bool

	// Serialize reports whether Dump serializes values before writing and
	// Load deserializes after reading, unless overridden per call.
	Serialize bool

	// StringKeysOnly marks formats whose mappings admit only string keys.
	// Dump forwards this to the serializer as a format hint.
	StringKeysOnly bool

	write     func(w io.Writer, v any) error
	read      func(r io.Reader) (any, error)
	readInto  func(r io.Reader, target any) error
	writeLine func(v any) (string, error)
	readLine  func(line string) (any, error)
}

func (f *Format) String() string { return f.Name }

// Write writes v as a whole document. For formats with Serialize set, v
// must be a serdx.Data value.
func (f *Format) Write(w io.Writer, v any) error {
	if f.write == nil {
		return fmt.Errorf("%w: %s is line oriented", ErrLineModeOnly, f.Name)
	}
	return f.write(w, v)
}

// Read reads a whole document and returns the decoded value, a
// serdx.Data for formats with Serialize set.
func (f *Format) Read(r io.Reader) (any, error) {
	if f.read == nil {
		return nil, fmt.Errorf("%w: %s is line oriented", ErrLineModeOnly, f.Name)
	}
	return f.read(r)
}

// WriteLine renders one item as a single line without the trailing
// newline. Only valid for line-mode formats.
func (f *Format) WriteLine(v any) (string, error) {
	if f.writeLine == nil {
		return "", fmt.Errorf("%w: %s", ErrLineModeOnly, f.Name)
	}
	return f.writeLine(v)
}

// ReadLine decodes one line previously produced by WriteLine.
func (f *Format) ReadLine(line string) (any, error) {
	if f.readLine == nil {
		return nil, fmt.Errorf("%w: %s", ErrLineModeOnly, f.Name)
	}
	return f.readLine(line)
}

// asData checks that a value reaching a serialized format really went
// through serialization.
func asData(v any) (serdx.Data, error) {
	d, ok := v.(serdx.Data)
	if !ok {
		return serdx.Data{}, fmt.Errorf("%w: got %T", ErrDataExpected, v)
	}
	return d, nil
}

// Formats returns the catalog in inference order. Formats sharing an
// extension resolve to the earlier entry, so ".json" infers JSON and
// ".txt" infers Text.
func Formats() []*Format {
	return []*Format{Text, Gob, JSON, JSONFlexible, JSONPretty, JSONNoSort, JSONLines, TextLines, YAML, CSV}
}

// FormatNamed looks a format up by its catalog name.
func FormatNamed(name string) (*Format, bool) {
	for _, f := range Formats() {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Infer resolves the format and compressor from the trailing extensions
// of path. A compressor extension, when present, is stripped first and
// the format extension is taken from what remains. Either result may be
// nil when no extension matches.
func Infer(path string) (*Format, *Compressor) {
	name := filepath.Base(path)

	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return nil, nil
	}

	var compressor *Compressor
	for _, c := range Compressors() {
		if containsExt(c.Exts, ext) {
			compressor = c
			name = strings.TrimSuffix(name, "."+ext)
			ext = strings.TrimPrefix(filepath.Ext(name), ".")
			break
		}
	}
	if ext == "" {
		return nil, compressor
	}

	for _, f := range Formats() {
		if containsExt(f.Exts, ext) {
			return f, compressor
		}
	}
	return nil, compressor
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
