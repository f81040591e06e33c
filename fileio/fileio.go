// Package fileio saves and loads values through the format catalog.
//
// The format is inferred from the file extension unless given
// explicitly, compression wraps transparently, and formats that work on
// serialized data route values through a serdx registry on the way in
// and out:
//
//	err := fileio.Dump("out/users.json.gz", users)
//	back, err := fileio.Load("out/users.json.gz", fileio.WithTarget(reflect.TypeFor[[]User]()))
package fileio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/hengadev/errsx"

	"github.com/hengadev/serdx"
)

type config struct {
	format        *Format
	compressor    *Compressor
	registry      *serdx.Registry
	serialization *bool
	formatAware   bool
	appendMode    bool
	existsOK      bool
	parents       bool
	target        any
	mode          serdx.ErrorMode
}

// Option adjusts how Dump, Load and Lines handle a file.
type Option func(*config) error

// WithFormat selects a format explicitly instead of inferring it from
// the file extension.
func WithFormat(f *Format) Option {
	return func(cfg *config) error {
		if f == nil {
			return errors.New("format must not be nil")
		}
		cfg.format = f
		return nil
	}
}

// WithCompressor selects a compressor explicitly instead of inferring
// it from the file extension.
func WithCompressor(c *Compressor) Option {
	return func(cfg *config) error {
		if c == nil {
			return errors.New("compressor must not be nil")
		}
		cfg.compressor = c
		return nil
	}
}

// WithRegistry routes serialization and deserialization through reg
// instead of the default registry.
func WithRegistry(reg *serdx.Registry) Option {
	return func(cfg *config) error {
		if reg == nil {
			return errors.New("registry must not be nil")
		}
		cfg.registry = reg
		return nil
	}
}

// WithSerialization overrides the format's default: true always
// serializes, false never does.
func WithSerialization(on bool) Option {
	return func(cfg *config) error {
		cfg.serialization = &on
		return nil
	}
}

// WithFormatAware controls whether the serializer receives format
// constraints such as string-only mapping keys. On by default.
func WithFormatAware(on bool) Option {
	return func(cfg *config) error {
		cfg.formatAware = on
		return nil
	}
}

// Append makes Dump add to an existing file. Only line-mode formats
// support appending.
func Append() Option {
	return func(cfg *config) error {
		cfg.appendMode = true
		return nil
	}
}

// WithExistsOK(false) makes Dump fail when the file already exists.
// Existing files are overwritten by default.
func WithExistsOK(ok bool) Option {
	return func(cfg *config) error {
		cfg.existsOK = ok
		return nil
	}
}

// WithParents controls creation of missing parent directories on Dump.
// On by default.
func WithParents(on bool) Option {
	return func(cfg *config) error {
		cfg.parents = on
		return nil
	}
}

// WithTarget sets the deserialization target for Load and Lines: a
// reflect.Type, a type name registered with RegisterName, or a
// descriptor such as serdx.Union. Without a target, loaded data is
// returned as is.
func WithTarget(target any) Option {
	return func(cfg *config) error {
		if target == nil {
			return errors.New("target must not be nil")
		}
		cfg.target = target
		return nil
	}
}

// Strict makes deserialization failures surface as errors instead of
// returning the raw data.
func Strict() Option {
	return func(cfg *config) error {
		cfg.mode = serdx.ErrorRaise
		return nil
	}
}

func newConfig(path string, opts []Option) (*config, error) {
	cfg := &config{
		registry:    serdx.Default(),
		formatAware: true,
		existsOK:    true,
		parents:     true,
		mode:        serdx.ErrorIgnore,
	}
	var errs errsx.Map
	for i, opt := range opts {
		if err := opt(cfg); err != nil {
			errs.Set(fmt.Sprintf("option %d", i), err)
		}
	}
	if err := errs.AsError(); err != nil {
		return nil, err
	}
	if cfg.format == nil || cfg.compressor == nil {
		f, c := Infer(path)
		if cfg.format == nil {
			cfg.format = f
		}
		if cfg.compressor == nil {
			cfg.compressor = c
		}
	}
	return cfg, nil
}

func (cfg *config) serializeEnabled() bool {
	if cfg.serialization != nil {
		return *cfg.serialization
	}
	return cfg.format.Serialize
}

// Dump saves a value to a file. The format and compressor are inferred
// from the path unless set with options, and serialization is applied
// for the formats that need it.
func Dump(path string, v any, opts ...Option) error {
	cfg, err := newConfig(path, opts)
	if err != nil {
		return err
	}
	f := cfg.format
	if f == nil {
		return fmt.Errorf("%w: %s", ErrCannotInferFormat, path)
	}
	if cfg.appendMode && !f.LineMode {
		return fmt.Errorf("%w: format %s", ErrAppendNotSupported, f.Name)
	}
	if !cfg.existsOK && !cfg.appendMode {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrFileExists, path)
		}
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if cfg.parents {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		} else if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("parent directory missing: %w", err)
		}
	}

	if cfg.serializeEnabled() {
		var hints *serdx.FormatHints
		if cfg.formatAware && f.StringKeysOnly {
			hints = &serdx.FormatHints{StringKeys: true}
		}
		d, err := cfg.registry.Serialize(v, hints)
		if err != nil {
			return err
		}
		v = d
	}

	flags := os.O_WRONLY | os.O_CREATE
	if cfg.appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}

	var w io.Writer = file
	var compressed io.WriteCloser
	if cfg.compressor != nil {
		compressed, err = cfg.compressor.WrapWriter(file)
		if err != nil {
			file.Close()
			return err
		}
		w = compressed
	}

	werr := writeContent(w, f, v)
	if compressed != nil {
		if cerr := compressed.Close(); werr == nil {
			werr = cerr
		}
	}
	if cerr := file.Close(); werr == nil {
		werr = cerr
	}
	return werr
}

func writeContent(w io.Writer, f *Format, v any) error {
	if !f.LineMode {
		return f.Write(w, v)
	}
	items, err := itemsOf(v)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, item := range items {
		line, err := f.WriteLine(item)
		if err != nil {
			return err
		}
		// A line break inside an item would corrupt the line framing.
		line = strings.ReplaceAll(line, "\n", " ")
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// itemsOf exposes the per-line items of a value headed for a line-mode
// format.
func itemsOf(v any) ([]any, error) {
	switch vv := v.(type) {
	case serdx.Data:
		if vv.Kind() != serdx.KindSequence {
			return nil, fmt.Errorf("%w: got %s data", ErrSequenceExpected, vv.Kind())
		}
		items := vv.Items()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item
		}
		return out, nil
	case []any:
		return vv, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: got %T", ErrSequenceExpected, v)
}

// Load reads a value from a file. The format and compressor are
// inferred from the path unless set with options. Formats that work on
// serialized data return a serdx.Data unless WithTarget requests
// deserialization; line-mode formats return a []any with one element
// per line.
func Load(path string, opts ...Option) (any, error) {
	cfg, err := newConfig(path, opts)
	if err != nil {
		return nil, err
	}
	f := cfg.format
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrCannotInferFormat, path)
	}

	if f.LineMode {
		sc, err := newScanner(path, cfg)
		if err != nil {
			return nil, err
		}
		defer sc.Close()
		var out []any
		for sc.Scan() {
			out = append(out, sc.Data())
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return out, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if cfg.compressor != nil {
		rc, err := cfg.compressor.WrapReader(file)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		r = rc
	}

	if !cfg.serializeEnabled() && cfg.target != nil && f.readInto != nil {
		return readIntoTarget(r, f, cfg.target)
	}

	obj, err := f.Read(r)
	if err != nil {
		return nil, err
	}
	return cfg.finish(obj)
}

// finish applies the deserialization step to a decoded value when the
// configuration asks for it.
func (cfg *config) finish(obj any) (any, error) {
	if !cfg.serializeEnabled() || cfg.target == nil {
		return obj, nil
	}
	d, ok := obj.(serdx.Data)
	if !ok {
		return obj, nil
	}
	return cfg.registry.Deserialize(d, cfg.target, cfg.mode)
}

func readIntoTarget(r io.Reader, f *Format, target any) (any, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("target for %s must be a non-nil pointer, got %T", f.Name, target)
	}
	if err := f.readInto(r, target); err != nil {
		return nil, err
	}
	return rv.Elem().Interface(), nil
}

// Scanner iterates over a line-mode file one item at a time, the way
// bufio.Scanner walks lines.
type Scanner struct {
	file       *os.File
	compressed io.ReadCloser
	lines      *bufio.Scanner
	cfg        *config
	cur        any
	err        error
}

// Lines opens a line-mode file for iteration:
//
//	sc, err := fileio.Lines("events.jsonl")
//	defer sc.Close()
//	for sc.Scan() {
//		use(sc.Data())
//	}
//	err = sc.Err()
func Lines(path string, opts ...Option) (*Scanner, error) {
	cfg, err := newConfig(path, opts)
	if err != nil {
		return nil, err
	}
	if cfg.format == nil {
		return nil, fmt.Errorf("%w: %s", ErrCannotInferFormat, path)
	}
	if !cfg.format.LineMode {
		return nil, fmt.Errorf("%w: format %s", ErrLineModeOnly, cfg.format.Name)
	}
	return newScanner(path, cfg)
}

func newScanner(path string, cfg *config) (*Scanner, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var r io.Reader = file
	var compressed io.ReadCloser
	if cfg.compressor != nil {
		compressed, err = cfg.compressor.WrapReader(file)
		if err != nil {
			file.Close()
			return nil, err
		}
		r = compressed
	}
	return &Scanner{
		file:       file,
		compressed: compressed,
		lines:      bufio.NewScanner(r),
		cfg:        cfg,
	}, nil
}

// Scan advances to the next item. It returns false at the end of the
// file or on the first error, which Err reports.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	if !s.lines.Scan() {
		s.err = s.lines.Err()
		return false
	}
	v, err := s.cfg.format.ReadLine(s.lines.Text())
	if err != nil {
		s.err = err
		return false
	}
	v, err = s.cfg.finish(v)
	if err != nil {
		s.err = err
		return false
	}
	s.cur = v
	return true
}

// Data returns the item decoded by the last successful Scan.
func (s *Scanner) Data() any { return s.cur }

// Err returns the first error hit during scanning, if any.
func (s *Scanner) Err() error { return s.err }

// Close releases the decompressor, if any, and the underlying file.
func (s *Scanner) Close() error {
	var err error
	if s.compressed != nil {
		err = s.compressed.Close()
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
