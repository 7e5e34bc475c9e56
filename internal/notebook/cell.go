package notebook

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the cell_type tag of a cell.
type Kind string

const (
	KindCode     Kind = "code"
	KindMarkdown Kind = "markdown"
)

const (
	cellTypeKey       = "cell_type"
	executionCountKey = "execution_count"
	idKey             = "id"
	metadataKey       = "metadata"
	outputsKey        = "outputs"
	sourceKey         = "source"
	tagsKey           = "tags"
)

// Cell is a single notebook cell. Its members are held as raw JSON in their
// original order; accessors decode the few members the passes inspect.
type Cell struct {
	fields *Fields
}

func parseCell(data json.RawMessage) (*Cell, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.Wrap(ErrMalformed, "cell is not an object")
	}
	fields := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(trimmed, fields); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "decode cell: %v", err)
	}
	return &Cell{fields: fields}, nil
}

// CellOption customizes a cell built by NewCell.
type CellOption func(*cellSpec)

type cellSpec struct {
	id   string
	tags []string
}

// WithID sets the nbformat cell id.
func WithID(id string) CellOption {
	return func(s *cellSpec) {
		s.id = id
	}
}

// WithTags records metadata.tags on the new cell.
func WithTags(tags ...string) CellOption {
	return func(s *cellSpec) {
		s.tags = append([]string{}, tags...)
	}
}

// NewCell builds a fresh cell. Code cells get a null execution_count and an
// empty outputs list.
func NewCell(kind Kind, lines []string, opts ...CellOption) *Cell {
	var spec cellSpec
	for _, opt := range opts {
		opt(&spec)
	}
	if lines == nil {
		lines = []string{}
	}
	meta := orderedmap.New[string, json.RawMessage]()
	if len(spec.tags) > 0 {
		meta.Set(tagsKey, rawValue(spec.tags))
	}

	fields := orderedmap.New[string, json.RawMessage]()
	fields.Set(cellTypeKey, rawValue(string(kind)))
	if kind == KindCode {
		fields.Set(executionCountKey, rawValue(nil))
	}
	if spec.id != "" {
		fields.Set(idKey, rawValue(spec.id))
	}
	fields.Set(metadataKey, rawValue(meta))
	if kind == KindCode {
		fields.Set(outputsKey, json.RawMessage("[]"))
	}
	fields.Set(sourceKey, rawValue(lines))
	return &Cell{fields: fields}
}

// Kind returns the cell_type tag.
func (c *Cell) Kind() Kind {
	var kind string
	c.decode(cellTypeKey, &kind)
	return Kind(kind)
}

// IsCode reports whether the cell is a code cell.
func (c *Cell) IsCode() bool {
	return c.Kind() == KindCode
}

// IsMarkdown reports whether the cell is a markdown cell.
func (c *Cell) IsMarkdown() bool {
	return c.Kind() == KindMarkdown
}

// ID returns the nbformat cell id, or "" when absent.
func (c *Cell) ID() string {
	var id string
	c.decode(idKey, &id)
	return id
}

// Lines returns the source lines. A source stored as a single string comes
// back as a one-element slice.
func (c *Cell) Lines() []string {
	raw, ok := c.field(sourceKey)
	if !ok {
		return nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return lines
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil && text != "" {
		return []string{text}
	}
	return nil
}

// Text concatenates the source lines.
func (c *Cell) Text() string {
	return strings.Join(c.Lines(), "")
}

// Metadata returns a copy of the metadata mapping; absent or non-object
// metadata yields an empty mapping.
func (c *Cell) Metadata() *Fields {
	meta := orderedmap.New[string, json.RawMessage]()
	raw, ok := c.field(metadataKey)
	if !ok {
		return meta
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return meta
	}
	if err := json.Unmarshal(trimmed, meta); err != nil {
		return orderedmap.New[string, json.RawMessage]()
	}
	return meta
}

// Tags returns metadata.tags, ignoring entries that are not strings.
func (c *Cell) Tags() []string {
	raw, ok := c.Metadata().Get(tagsKey)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		var tag string
		if json.Unmarshal(item, &tag) == nil {
			tags = append(tags, tag)
		}
	}
	return tags
}

// HasTag reports whether metadata.tags contains tag.
func (c *Cell) HasTag(tag string) bool {
	for _, t := range c.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

// keys lists member names in order.
func (c *Cell) keys() []string {
	if c.fields == nil {
		return nil
	}
	keys := make([]string, 0, c.fields.Len())
	for pair := c.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// MarshalJSON encodes the cell compactly with members in order.
func (c *Cell) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeObject(&buf, c.fields); err != nil {
		return nil, err
	}
	return compact(buf.Bytes()), nil
}

// Equal reports whether two cells encode to the same JSON.
func (c *Cell) Equal(other *Cell) bool {
	if c == nil || other == nil {
		return c == other
	}
	a, errA := c.MarshalJSON()
	b, errB := other.MarshalJSON()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func (c *Cell) field(key string) (json.RawMessage, bool) {
	if c == nil || c.fields == nil {
		return nil, false
	}
	return c.fields.Get(key)
}

func (c *Cell) decode(key string, dst any) {
	raw, ok := c.field(key)
	if !ok {
		return
	}
	_ = json.Unmarshal(raw, dst)
}
