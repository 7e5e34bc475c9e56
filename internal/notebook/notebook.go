// Package notebook models a Jupyter-style notebook document as an ordered
// sequence of cells plus opaque top-level fields. Everything a pass does not
// touch is kept as raw JSON in its original key order so a load/save round
// trip leaves it structurally unchanged.
package notebook

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	cellsKey         = "cells"
	nbformatKey      = "nbformat"
	nbformatMinorKey = "nbformat_minor"

	defaultPerm os.FileMode = 0o644
)

// ErrMalformed reports a document whose shape cannot be interpreted as a
// notebook (top level not an object, cells not an array, a cell not an object).
var ErrMalformed = errors.New("notebook: malformed document")

// Fields is an ordered open mapping of JSON members.
type Fields = orderedmap.OrderedMap[string, json.RawMessage]

// Notebook is a whole document loaded into memory.
type Notebook struct {
	// Cells is the ordered cell sequence. Passes reorder, insert and replace
	// entries directly.
	Cells []*Cell

	fields   *Fields
	hasCells bool
}

// New returns an empty notebook holding the provided cells.
func New(cells ...*Cell) *Notebook {
	return &Notebook{
		Cells:    cells,
		fields:   orderedmap.New[string, json.RawMessage](),
		hasCells: true,
	}
}

// Load reads and parses the notebook stored at path.
func Load(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "notebook: read %s", path)
	}
	nb, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "notebook: parse %s", path)
	}
	return nb, nil
}

// Parse decodes a notebook document. A document without a cells member is
// treated as having no cells.
func Parse(data []byte) (*Notebook, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.Wrap(ErrMalformed, "top level is not an object")
	}
	fields := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(trimmed, fields); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "decode: %v", err)
	}
	nb := &Notebook{fields: fields}
	raw, ok := fields.Get(cellsKey)
	if !ok {
		return nb, nil
	}
	nb.hasCells = true
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "cells is not an array: %v", err)
	}
	nb.Cells = make([]*Cell, 0, len(items))
	for i, item := range items {
		cell, err := parseCell(item)
		if err != nil {
			return nil, errors.Wrapf(err, "cells[%d]", i)
		}
		nb.Cells = append(nb.Cells, cell)
	}
	return nb, nil
}

// Field returns a raw top-level member.
func (nb *Notebook) Field(key string) (json.RawMessage, bool) {
	if nb.fields == nil {
		return nil, false
	}
	return nb.fields.Get(key)
}

// Insert places cell at index i, shifting later cells back.
func (nb *Notebook) Insert(i int, cell *Cell) {
	if i < 0 {
		i = 0
	}
	if i > len(nb.Cells) {
		i = len(nb.Cells)
	}
	nb.Cells = append(nb.Cells, nil)
	copy(nb.Cells[i+1:], nb.Cells[i:])
	nb.Cells[i] = cell
}

// UsesCellIDs reports whether new cells should carry an nbformat 4.5 id.
func (nb *Notebook) UsesCellIDs() bool {
	for _, cell := range nb.Cells {
		if cell.ID() != "" {
			return true
		}
	}
	var major, minor int
	if raw, ok := nb.Field(nbformatKey); !ok || json.Unmarshal(raw, &major) != nil {
		return false
	}
	if raw, ok := nb.Field(nbformatMinorKey); !ok || json.Unmarshal(raw, &minor) != nil {
		return false
	}
	return major > 4 || (major == 4 && minor >= 5)
}

// Encode serializes the notebook with one-space indentation and a trailing
// newline. Strings are not HTML-escaped.
func (nb *Notebook) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	wrote := 0
	writeCells := func() error {
		if wrote > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, cellsKey); err != nil {
			return err
		}
		buf.WriteByte(':')
		buf.WriteByte('[')
		for i, cell := range nb.Cells {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeObject(&buf, cell.fields); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		wrote++
		return nil
	}
	if nb.fields != nil {
		for pair := nb.fields.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Key == cellsKey {
				if err := writeCells(); err != nil {
					return nil, errors.Wrap(err, "notebook: encode cells")
				}
				continue
			}
			if wrote > 0 {
				buf.WriteByte(',')
			}
			if err := writeMember(&buf, pair.Key, pair.Value); err != nil {
				return nil, errors.Wrapf(err, "notebook: encode %s", pair.Key)
			}
			wrote++
		}
	}
	if !nb.hasCells && len(nb.Cells) > 0 {
		if err := writeCells(); err != nil {
			return nil, errors.Wrap(err, "notebook: encode cells")
		}
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", " "); err != nil {
		return nil, errors.Wrap(err, "notebook: indent")
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Save writes the notebook to path atomically, keeping the file mode of an
// existing file.
func Save(nb *Notebook, path string) error {
	data, err := nb.Encode()
	if err != nil {
		return err
	}
	perm := defaultPerm
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}
	if err := atomicWriteFile(path, data, perm); err != nil {
		return errors.Wrapf(err, "notebook: write %s", path)
	}
	return nil
}
