package fileio

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/hengadev/serdx"
)

var (
	jsonCompact = jsoniter.Config{EscapeHTML: false}.Froze()
	jsonIndent  = jsoniter.Config{EscapeHTML: false, IndentionStep: 4}.Froze()
)

// JSON writes serialized data as compact JSON with object keys sorted,
// so equal values produce byte-identical files.
var JSON = &Format{
	Name:           "json",
	Exts:           []string{"json"},
	Serialize:      true,
	StringKeysOnly: true,
	write:          jsonWriter(jsonCompact, true),
	read:           jsonReader,
}

// JSONPretty is JSON with sorted keys and indentation.
var JSONPretty = &Format{
	Name:           "jsonPretty",
	Exts:           []string{"json"},
	Serialize:      true,
	StringKeysOnly: true,
	write:          jsonWriter(jsonIndent, true),
	read:           jsonReader,
}

// JSONNoSort is indented JSON that keeps mapping entries in their
// original order.
var JSONNoSort = &Format{
	Name:           "jsonNoSort",
	Exts:           []string{"json"},
	Serialize:      true,
	StringKeysOnly: true,
	write:          jsonWriter(jsonIndent, false),
	read:           jsonReader,
}

// JSONFlexible writes plain JSON but reads through the YAML parser,
// which accepts JSON with trailing commas, comments and other relaxed
// syntax.
var JSONFlexible = &Format{
	Name:           "jsonFlexible",
	Exts:           []string{"json"},
	Serialize:      true,
	StringKeysOnly: true,
	write:          jsonWriter(jsonCompact, true),
	read:           yamlReader,
}

// JSONLines stores one compact JSON document per line.
var JSONLines = &Format{
	Name:           "jsonl",
	Exts:           []string{"jsonl"},
	LineMode:       true,
	Serialize:      true,
	StringKeysOnly: true,
	writeLine:      jsonWriteLine,
	readLine:       jsonReadLine,
}

func jsonWriter(cfg jsoniter.API, sortKeys bool) func(io.Writer, any) error {
	return func(w io.Writer, v any) error {
		d, err := asData(v)
		if err != nil {
			return err
		}
		stream := cfg.BorrowStream(w)
		defer cfg.ReturnStream(stream)
		if err := writeJSONData(stream, d, sortKeys); err != nil {
			return err
		}
		stream.Flush()
		return stream.Error
	}
}

func jsonWriteLine(v any) (string, error) {
	d, err := asData(v)
	if err != nil {
		return "", err
	}
	stream := jsonCompact.BorrowStream(nil)
	defer jsonCompact.ReturnStream(stream)
	if err := writeJSONData(stream, d, true); err != nil {
		return "", err
	}
	if stream.Error != nil {
		return "", stream.Error
	}
	return string(stream.Buffer()), nil
}

func jsonReader(r io.Reader) (any, error) {
	iter := jsoniter.Parse(jsonCompact, r, 4096)
	return readJSONData(iter)
}

func jsonReadLine(line string) (any, error) {
	iter := jsoniter.ParseString(jsonCompact, line)
	return readJSONData(iter)
}

func writeJSONData(stream *jsoniter.Stream, d serdx.Data, sortKeys bool) error {
	switch d.Kind() {
	case serdx.KindNull:
		stream.WriteNil()
	case serdx.KindBool:
		b, _ := d.AsBool()
		stream.WriteBool(b)
	case serdx.KindInt:
		i, _ := d.AsInt()
		stream.WriteInt64(i)
	case serdx.KindFloat:
		f, _ := d.AsFloat()
		s, err := jsonFloat(f)
		if err != nil {
			return err
		}
		stream.WriteRaw(s)
	case serdx.KindString:
		s, _ := d.AsString()
		stream.WriteString(s)
	case serdx.KindSequence:
		stream.WriteArrayStart()
		for i, item := range d.Items() {
			if i > 0 {
				stream.WriteMore()
			}
			if err := writeJSONData(stream, item, sortKeys); err != nil {
				return err
			}
		}
		stream.WriteArrayEnd()
	case serdx.KindMapping:
		entries := d.Entries()
		keys := make([]string, len(entries))
		for i, e := range entries {
			if s, ok := e.Key.AsString(); ok {
				keys[i] = s
			} else {
				keys[i] = e.Key.String()
			}
		}
		order := make([]int, len(entries))
		for i := range order {
			order[i] = i
		}
		if sortKeys {
			sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })
		}
		stream.WriteObjectStart()
		for n, i := range order {
			if n > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(keys[i])
			if err := writeJSONData(stream, entries[i].Value, sortKeys); err != nil {
				return err
			}
		}
		stream.WriteObjectEnd()
	default:
		return fmt.Errorf("cannot encode %s data as JSON", d.Kind())
	}
	return stream.Error
}

// jsonFloat renders a float so it reads back as a float, keeping a
// decimal point on values that would otherwise print as integers.
func jsonFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("cannot encode %v as JSON", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

func readJSONData(iter *jsoniter.Iterator) (any, error) {
	d, err := readJSONValue(iter)
	if err != nil {
		return nil, err
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, iter.Error
	}
	return d, nil
}

func readJSONValue(iter *jsoniter.Iterator) (serdx.Data, error) {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return serdx.Null(), nil
	case jsoniter.BoolValue:
		return serdx.Bool(iter.ReadBool()), nil
	case jsoniter.NumberValue:
		num := iter.ReadNumber()
		if i, err := num.Int64(); err == nil {
			return serdx.Int(i), nil
		}
		f, err := num.Float64()
		if err != nil {
			return serdx.Data{}, fmt.Errorf("invalid JSON number %q: %w", num.String(), err)
		}
		return serdx.Float(f), nil
	case jsoniter.StringValue:
		return serdx.String(iter.ReadString()), nil
	case jsoniter.ArrayValue:
		var items []serdx.Data
		var innerErr error
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			item, err := readJSONValue(it)
			if err != nil {
				innerErr = err
				return false
			}
			items = append(items, item)
			return true
		})
		if innerErr != nil {
			return serdx.Data{}, innerErr
		}
		return serdx.Sequence(items...), nil
	case jsoniter.ObjectValue:
		var entries []serdx.Entry
		var innerErr error
		iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			value, err := readJSONValue(it)
			if err != nil {
				innerErr = err
				return false
			}
			entries = append(entries, serdx.Field(field, value))
			return true
		})
		if innerErr != nil {
			return serdx.Data{}, innerErr
		}
		return serdx.Mapping(entries...), nil
	default:
		if iter.Error != nil && iter.Error != io.EOF {
			return serdx.Data{}, iter.Error
		}
		return serdx.Data{}, fmt.Errorf("invalid JSON input")
	}
}
