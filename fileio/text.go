package fileio

import (
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/hengadev/serdx"
)

// Text writes the plain text rendering of a value as the whole file and
// reads the file back as a string. Values are not serialized.
var Text = &Format{
	Name: "txt",
	Exts: []string{"txt"},
	write: func(w io.Writer, v any) error {
		_, err := fmt.Fprint(w, v)
		return err
	},
	read: func(r io.Reader) (any, error) {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	},
}

// TextLines stores one item per line, rendered as plain text.
var TextLines = &Format{
	Name:     "txtList",
	Exts:     []string{"txt"},
	LineMode: true,
	writeLine: func(v any) (string, error) {
		return fmt.Sprint(v), nil
	},
	readLine: func(line string) (any, error) {
		return line, nil
	},
}

// CSV writes a sequence of sequences as comma separated rows. Cells
// read back as strings.
var CSV = &Format{
	Name:      "csv",
	Exts:      []string{"csv"},
	Serialize: true,
	write:     csvWriter,
	read:      csvReader,
}

// Gob stores native Go values in binary form without serialization.
// Loading into an untyped destination requires the concrete type to be
// registered with encoding/gob; prefer WithTarget with a typed pointer.
var Gob = &Format{
	Name:   "gob",
	Exts:   []string{"gob"},
	Binary: true,
	write: func(w io.Writer, v any) error {
		return gob.NewEncoder(w).Encode(v)
	},
	read: func(r io.Reader) (any, error) {
		var v any
		if err := gob.NewDecoder(r).Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	},
	readInto: func(r io.Reader, target any) error {
		return gob.NewDecoder(r).Decode(target)
	},
}

func csvWriter(w io.Writer, v any) error {
	d, err := asData(v)
	if err != nil {
		return err
	}
	if d.Kind() != serdx.KindSequence {
		return fmt.Errorf("%w: csv needs a sequence of rows, got %s", ErrSequenceExpected, d.Kind())
	}
	cw := csv.NewWriter(w)
	for i, row := range d.Items() {
		if row.Kind() != serdx.KindSequence {
			return fmt.Errorf("%w: csv row %d is %s", ErrSequenceExpected, i, row.Kind())
		}
		cells := row.Items()
		record := make([]string, len(cells))
		for j, cell := range cells {
			if s, ok := cell.AsString(); ok {
				record[j] = s
			} else {
				record[j] = cell.String()
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvReader(r io.Reader) (any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	rows := make([]serdx.Data, len(records))
	for i, record := range records {
		cells := make([]serdx.Data, len(record))
		for j, cell := range record {
			cells[j] = serdx.String(cell)
		}
		rows[i] = serdx.Sequence(cells...)
	}
	return serdx.Sequence(rows...), nil
}
