package notebook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

const sampleNotebook = `{"metadata": {"kernelspec": {"name": "python3"}}, "cells": [{"source": ["a <b> & c\n", "second"], "cell_type": "markdown", "metadata": {"custom": 1}}, {"cell_type": "code", "execution_count": 3, "metadata": {"tags": ["keep", 7]}, "outputs": [{"output_type": "stream", "text": ["hi\n"]}], "source": "print(1)"}], "nbformat": 4, "nbformat_minor": 2}`

const sampleEncoded = `{
 "metadata": {
  "kernelspec": {
   "name": "python3"
  }
 },
 "cells": [
  {
   "source": [
    "a <b> & c\n",
    "second"
   ],
   "cell_type": "markdown",
   "metadata": {
    "custom": 1
   }
  },
  {
   "cell_type": "code",
   "execution_count": 3,
   "metadata": {
    "tags": [
     "keep",
     7
    ]
   },
   "outputs": [
    {
     "output_type": "stream",
     "text": [
      "hi\n"
     ]
    }
   ],
   "source": "print(1)"
  }
 ],
 "nbformat": 4,
 "nbformat_minor": 2
}
`

func TestParseReadsCells(t *testing.T) {
	nb, err := Parse([]byte(sampleNotebook))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(nb.Cells) != 2 {
		t.Fatalf("len(cells) = %d, want 2", len(nb.Cells))
	}
	md, code := nb.Cells[0], nb.Cells[1]
	if !md.IsMarkdown() || md.IsCode() {
		t.Fatalf("cell 0 kind = %q, want markdown", md.Kind())
	}
	if md.Text() != "a <b> & c\nsecond" {
		t.Fatalf("cell 0 text = %q", md.Text())
	}
	if !code.IsCode() {
		t.Fatalf("cell 1 kind = %q, want code", code.Kind())
	}
	if diff := cmp.Diff([]string{"print(1)"}, code.Lines()); diff != "" {
		t.Fatalf("string source lines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"keep"}, code.Tags()); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if !code.HasTag("keep") || code.HasTag("auto-inserted") {
		t.Fatalf("HasTag gave wrong answers for %v", code.Tags())
	}
}

func TestEncodeRoundTripKeepsOrderAndContent(t *testing.T) {
	nb, err := Parse([]byte(sampleNotebook))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := nb.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff(sampleEncoded, string(out)); diff != "" {
		t.Fatalf("encoded notebook mismatch (-want +got):\n%s", diff)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(encoded): %v", err)
	}
	second, err := again.Encode()
	if err != nil {
		t.Fatalf("Encode(again): %v", err)
	}
	if string(second) != string(out) {
		t.Fatalf("second round trip changed the document:\n%s", second)
	}
}

func TestParseWithoutCellsIsEmpty(t *testing.T) {
	nb, err := Parse([]byte(`{"metadata": {}, "nbformat": 4}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(nb.Cells) != 0 {
		t.Fatalf("len(cells) = %d, want 0", len(nb.Cells))
	}
	out, err := nb.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(out), "cells") {
		t.Fatalf("encode invented a cells member:\n%s", out)
	}
}

func TestParseRejectsMalformedShapes(t *testing.T) {
	cases := map[string]string{
		"array top level":   `[1, 2]`,
		"empty input":       ``,
		"cells not array":   `{"cells": {"a": 1}}`,
		"cell not object":   `{"cells": ["text"]}`,
		"truncated object":  `{"cells": [`,
		"string top level":  `"notebook"`,
		"cell number entry": `{"cells": [{"cell_type": "code"}, 4]}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			if err == nil {
				t.Fatalf("expected error for %q", input)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("error %v does not wrap ErrMalformed", err)
			}
		})
	}
}

func TestNewCellFieldOrder(t *testing.T) {
	cell := NewCell(KindCode, []string{"x = 1\n"}, WithID("abcd1234"), WithTags("auto-inserted"))
	if diff := cmp.Diff([]string{"cell_type", "execution_count", "id", "metadata", "outputs", "source"}, cell.keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}
	data, err := cell.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `{"cell_type":"code","execution_count":null,"id":"abcd1234","metadata":{"tags":["auto-inserted"]},"outputs":[],"source":["x = 1\n"]}`
	if string(data) != want {
		t.Fatalf("cell json = %s, want %s", data, want)
	}
	md := NewCell(KindMarkdown, []string{"# Title"})
	if diff := cmp.Diff([]string{"cell_type", "metadata", "source"}, md.keys()); diff != "" {
		t.Fatalf("markdown key order mismatch (-want +got):\n%s", diff)
	}
	if md.ID() != "" || len(md.Tags()) != 0 {
		t.Fatalf("markdown cell carries unexpected id %q or tags %v", md.ID(), md.Tags())
	}
}

func TestCellEqualIgnoresWhitespace(t *testing.T) {
	nb, err := Parse([]byte(`{"cells": [{"cell_type": "code",   "source": ["a"]}, {"cell_type":"code","source":["a"]}, {"cell_type":"code","source":["b"]}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !nb.Cells[0].Equal(nb.Cells[1]) {
		t.Fatalf("cells differing only in whitespace should be equal")
	}
	if nb.Cells[0].Equal(nb.Cells[2]) {
		t.Fatalf("cells with different source should differ")
	}
}

func TestInsertClampsIndex(t *testing.T) {
	a := NewCell(KindMarkdown, []string{"a"})
	b := NewCell(KindMarkdown, []string{"b"})
	c := NewCell(KindMarkdown, []string{"c"})
	nb := New(a)
	nb.Insert(5, c)
	nb.Insert(-1, b)
	var got []string
	for _, cell := range nb.Cells {
		got = append(got, cell.Text())
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, got); diff != "" {
		t.Fatalf("insert order mismatch (-want +got):\n%s", diff)
	}
}

func TestUsesCellIDs(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"legacy minor", `{"cells": [], "nbformat": 4, "nbformat_minor": 4}`, false},
		{"minor five", `{"cells": [], "nbformat": 4, "nbformat_minor": 5}`, true},
		{"cell carries id", `{"cells": [{"cell_type": "code", "id": "x1"}], "nbformat": 4, "nbformat_minor": 2}`, true},
		{"no version", `{"cells": []}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			nb, err := Parse([]byte(tc.input))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := nb.UsesCellIDs(); got != tc.want {
				t.Fatalf("UsesCellIDs() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSaveAndLoadPreserveMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analysis.ipynb")
	if err := os.WriteFile(path, []byte(sampleNotebook), 0o600); err != nil {
		t.Fatalf("seed notebook: %v", err)
	}
	nb, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Save(nb, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved notebook: %v", err)
	}
	if string(data) != sampleEncoded {
		t.Fatalf("saved notebook mismatch:\n%s", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.ipynb"))
	if err == nil {
		t.Fatalf("expected error for missing notebook")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error %v does not wrap os.ErrNotExist", err)
	}
}
