package fileio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/serdx"
)

type person struct {
	Name string `serdx:"name"`
	Age  int    `serdx:"age"`
}

func TestDumpAndLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "person.json")

	require.NoError(t, Dump(path, person{Name: "Ada", Age: 36}))

	t.Run("file is compact with sorted keys", func(t *testing.T) {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, `{"age":36,"name":"Ada"}`, string(raw))
	})
	t.Run("load without target returns data", func(t *testing.T) {
		v, err := Load(path)
		require.NoError(t, err)
		d, ok := v.(serdx.Data)
		require.True(t, ok)
		age, ok := d.Get("age")
		require.True(t, ok)
		i, _ := age.AsInt()
		assert.Equal(t, int64(36), i)
	})
	t.Run("load with target deserializes", func(t *testing.T) {
		v, err := Load(path, WithTarget(reflect.TypeFor[person]()), Strict())
		require.NoError(t, err)
		assert.Equal(t, person{Name: "Ada", Age: 36}, v)
	})
}

func TestJSONNumbersKeepTheirKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nums.json")

	require.NoError(t, Dump(path, []any{1, 2.0, 2.5}))

	v, err := Load(path)
	require.NoError(t, err)
	items := v.(serdx.Data).Items()
	require.Len(t, items, 3)
	assert.Equal(t, serdx.KindInt, items[0].Kind())
	assert.Equal(t, serdx.KindFloat, items[1].Kind(), "whole floats stay floats through the file")
	assert.Equal(t, serdx.KindFloat, items[2].Kind())
}

func TestDumpJSONVariants(t *testing.T) {
	dir := t.TempDir()
	in := map[string]int{"b": 2, "a": 1}

	t.Run("pretty is indented", func(t *testing.T) {
		path := filepath.Join(dir, "pretty.json")
		require.NoError(t, Dump(path, in, WithFormat(JSONPretty)))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "\n    ")
	})
	t.Run("noSort keeps serializer order", func(t *testing.T) {
		// The serializer emits map entries sorted, so dump an explicit
		// mapping to observe the writer leaving order alone.
		d := serdx.Mapping(serdx.Field("z", serdx.Int(1)), serdx.Field("a", serdx.Int(2)))
		path := filepath.Join(dir, "nosort.json")
		require.NoError(t, Dump(path, d, WithFormat(JSONNoSort)))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Less(t, strings.Index(string(raw), `"z"`), strings.Index(string(raw), `"a"`))
	})
	t.Run("flexible reads json with comments", func(t *testing.T) {
		path := filepath.Join(dir, "flex.json")
		require.NoError(t, os.WriteFile(path, []byte("{\"a\": 1} # trailing comment\n"), 0o644))
		v, err := Load(path, WithFormat(JSONFlexible))
		require.NoError(t, err)
		a, ok := v.(serdx.Data).Get("a")
		require.True(t, ok)
		i, _ := a.AsInt()
		assert.Equal(t, int64(1), i)
	})
}

func TestStringKeyCoercionPerFormat(t *testing.T) {
	dir := t.TempDir()
	in := map[int]string{1: "one"}

	t.Run("json coerces keys", func(t *testing.T) {
		path := filepath.Join(dir, "m.json")
		require.NoError(t, Dump(path, in))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, `{"1":"one"}`, string(raw))
	})
	t.Run("yaml keeps integer keys", func(t *testing.T) {
		path := filepath.Join(dir, "m.yaml")
		require.NoError(t, Dump(path, in))
		v, err := Load(path)
		require.NoError(t, err)
		entries := v.(serdx.Data).Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, serdx.KindInt, entries[0].Key.Kind())
	})
}

func TestDumpAndLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "person.yaml")

	require.NoError(t, Dump(path, person{Name: "Ada", Age: 36}))

	t.Run("entry order survives", func(t *testing.T) {
		v, err := Load(path)
		require.NoError(t, err)
		entries := v.(serdx.Data).Entries()
		require.Len(t, entries, 2)
		k0, _ := entries[0].Key.AsString()
		assert.Equal(t, "name", k0, "struct field order is kept, not sorted")
	})
	t.Run("round trip with target", func(t *testing.T) {
		v, err := Load(path, WithTarget(reflect.TypeFor[person]()), Strict())
		require.NoError(t, err)
		assert.Equal(t, person{Name: "Ada", Age: 36}, v)
	})
}

func TestDumpAndLoadText(t *testing.T) {
	dir := t.TempDir()

	t.Run("whole document", func(t *testing.T) {
		path := filepath.Join(dir, "note.txt")
		require.NoError(t, Dump(path, "hello there"))
		v, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "hello there", v)
	})
	t.Run("lines", func(t *testing.T) {
		path := filepath.Join(dir, "list.txt")
		require.NoError(t, Dump(path, []string{"one", "two"}, WithFormat(TextLines)))
		v, err := Load(path, WithFormat(TextLines))
		require.NoError(t, err)
		assert.Equal(t, []any{"one", "two"}, v)
	})
}

func TestDumpAndLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.csv")

	require.NoError(t, Dump(path, [][]string{{"name", "age"}, {"Ada", "36"}}))

	v, err := Load(path, WithTarget(reflect.TypeFor[[][]string]()), Strict())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"name", "age"}, {"Ada", "36"}}, v)
}

func TestDumpAndLoadGob(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counts.gob")

	in := map[string]int{"a": 1, "b": 2}
	require.NoError(t, Dump(path, in))

	var out map[string]int
	v, err := Load(path, WithTarget(&out))
	require.NoError(t, err)
	assert.Equal(t, in, v)
	assert.Equal(t, in, out)
}

func TestJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.jsonl")

	require.NoError(t, Dump(path, []person{{Name: "Ada", Age: 36}, {Name: "Alan", Age: 41}}))

	t.Run("one document per line", func(t *testing.T) {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
		assert.Len(t, lines, 2)
	})
	t.Run("append extends the file", func(t *testing.T) {
		require.NoError(t, Dump(path, []person{{Name: "Grace", Age: 45}}, Append()))
		v, err := Load(path, WithTarget(reflect.TypeFor[person]()), Strict())
		require.NoError(t, err)
		require.Len(t, v.([]any), 3)
		assert.Equal(t, person{Name: "Grace", Age: 45}, v.([]any)[2])
	})
	t.Run("scanner iterates", func(t *testing.T) {
		sc, err := Lines(path, WithTarget(reflect.TypeFor[person]()), Strict())
		require.NoError(t, err)
		defer sc.Close()

		var names []string
		for sc.Scan() {
			names = append(names, sc.Data().(person).Name)
		}
		require.NoError(t, sc.Err())
		assert.Equal(t, []string{"Ada", "Alan", "Grace"}, names)
	})
	t.Run("append to a whole-document format is rejected", func(t *testing.T) {
		err := Dump(filepath.Join(dir, "x.json"), person{}, Append())
		assert.ErrorIs(t, err, ErrAppendNotSupported)
	})
	t.Run("lines on a whole-document format is rejected", func(t *testing.T) {
		_, err := Lines(filepath.Join(dir, "x.json"))
		assert.ErrorIs(t, err, ErrLineModeOnly)
	})
}

func TestCompression(t *testing.T) {
	dir := t.TempDir()
	in := person{Name: "Ada", Age: 36}

	t.Run("gzip", func(t *testing.T) {
		path := filepath.Join(dir, "person.json.gz")
		require.NoError(t, Dump(path, in))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(raw), 2)
		assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2], "gzip magic bytes")

		v, err := Load(path, WithTarget(reflect.TypeFor[person]()), Strict())
		require.NoError(t, err)
		assert.Equal(t, in, v)
	})
	t.Run("zstd", func(t *testing.T) {
		path := filepath.Join(dir, "person.json.zst")
		require.NoError(t, Dump(path, in))
		v, err := Load(path, WithTarget(reflect.TypeFor[person]()), Strict())
		require.NoError(t, err)
		assert.Equal(t, in, v)
	})
	t.Run("compressed line mode", func(t *testing.T) {
		path := filepath.Join(dir, "people.jsonl.gz")
		require.NoError(t, Dump(path, []person{{Name: "Ada"}, {Name: "Alan"}}))
		v, err := Load(path, WithTarget(reflect.TypeFor[person]()), Strict())
		require.NoError(t, err)
		assert.Len(t, v.([]any), 2)
	})
	t.Run("scanner close reports the decompressor error", func(t *testing.T) {
		path := filepath.Join(dir, "people.jsonl")
		require.NoError(t, Dump(path, []person{{Name: "Ada"}}))

		closeErr := errors.New("flush failed")
		leaky := &Compressor{
			Name: "leaky",
			Exts: []string{"leaky"},
			wrapReader: func(r io.Reader) (io.ReadCloser, error) {
				return errOnCloseReader{r, closeErr}, nil
			},
		}
		sc, err := Lines(path, WithFormat(JSONLines), WithCompressor(leaky))
		require.NoError(t, err)
		require.True(t, sc.Scan())
		require.NoError(t, sc.Err())
		assert.ErrorIs(t, sc.Close(), closeErr)
	})
}

type errOnCloseReader struct {
	io.Reader
	err error
}

func (r errOnCloseReader) Close() error { return r.err }

func TestDumpPathHandling(t *testing.T) {
	dir := t.TempDir()

	t.Run("parents are created by default", func(t *testing.T) {
		path := filepath.Join(dir, "a", "b", "deep.json")
		require.NoError(t, Dump(path, 1))
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})
	t.Run("missing parents error when disabled", func(t *testing.T) {
		path := filepath.Join(dir, "missing", "deep.json")
		err := Dump(path, 1, WithParents(false))
		assert.Error(t, err)
	})
	t.Run("existing file is rejected with exists_ok off", func(t *testing.T) {
		path := filepath.Join(dir, "once.json")
		require.NoError(t, Dump(path, 1))
		err := Dump(path, 2, WithExistsOK(false))
		assert.ErrorIs(t, err, ErrFileExists)
	})
	t.Run("existing file is overwritten by default", func(t *testing.T) {
		path := filepath.Join(dir, "twice.json")
		require.NoError(t, Dump(path, 1))
		require.NoError(t, Dump(path, 2))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "2", string(raw))
	})
	t.Run("unknown extension cannot be inferred", func(t *testing.T) {
		err := Dump(filepath.Join(dir, "data.xyz"), 1)
		assert.ErrorIs(t, err, ErrCannotInferFormat)

		_, err = Load(filepath.Join(dir, "data.xyz"))
		assert.ErrorIs(t, err, ErrCannotInferFormat)
	})
}

func TestWithSerializationOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	// Handing the writer a raw value without serialization fails loudly.
	err := Dump(path, person{Name: "Ada"}, WithSerialization(false))
	assert.ErrorIs(t, err, ErrDataExpected)

	// Pre-serialized data passes through untouched.
	d := serdx.Mapping(serdx.Field("k", serdx.Int(1)))
	require.NoError(t, Dump(path, d, WithSerialization(false)))

	v, err := Load(path)
	require.NoError(t, err)
	assert.True(t, d.Equal(v.(serdx.Data)))
}

func TestLoadWithIsolatedRegistry(t *testing.T) {
	type tagged struct {
		Value string `serdx:"value"`
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "tagged.json")

	reg := serdx.NewRegistry()
	serdx.RegisterFor(reg,
		func(v tagged) (serdx.Data, error) { return serdx.String("T:" + v.Value), nil },
		func(d serdx.Data) (tagged, error) {
			s, _ := d.AsString()
			return tagged{Value: strings.TrimPrefix(s, "T:")}, nil
		},
	)

	require.NoError(t, Dump(path, tagged{Value: "x"}, WithRegistry(reg)))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `"T:x"`, string(raw))

	v, err := Load(path, WithRegistry(reg), WithTarget(reflect.TypeFor[tagged]()), Strict())
	require.NoError(t, err)
	assert.Equal(t, tagged{Value: "x"}, v)
}

func TestOptionValidation(t *testing.T) {
	err := Dump("x.json", 1, WithFormat(nil))
	assert.Error(t, err)

	_, err = Load("x.json", WithRegistry(nil), WithTarget(nil))
	assert.Error(t, err)
}
