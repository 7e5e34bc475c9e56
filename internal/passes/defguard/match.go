package defguard

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/kingrea/nbtidy/internal/notebook"
)

// matcher holds the recognizers compiled for one symbol. RE2's \b only knows
// ASCII word characters, so candidate matches are rechecked with isolated.
type matcher struct {
	symbol  string
	use     *regexp.Regexp
	assign  *regexp.Regexp
	literal *regexp.Regexp
}

func newMatcher(symbol string) matcher {
	quoted := regexp.QuoteMeta(symbol)
	return matcher{
		symbol:  symbol,
		use:     regexp.MustCompile(`\b` + quoted + `\b`),
		assign:  regexp.MustCompile(`(?m)^\s*` + quoted + `\s*=(?:[^=]|$)`),
		literal: regexp.MustCompile(`(?s)\b` + quoted + `\s*=\s*\[(.*?)\]`),
	}
}

// analysable reports whether a cell takes part in the scans. Cells carrying
// the sentinel tag are output of this pass, not input.
func analysable(cell *notebook.Cell, sentinel string) bool {
	return cell.IsCode() && !cell.HasTag(sentinel)
}

// firstUse returns the index of the first code cell mentioning the symbol as
// a whole word, or -1.
func (m matcher) firstUse(cells []*notebook.Cell, sentinel string) int {
	for i, cell := range cells {
		if !analysable(cell, sentinel) {
			continue
		}
		if m.mentions(cell.Text()) {
			return i
		}
	}
	return -1
}

// mentions reports whether text contains the symbol as a whole word.
func (m matcher) mentions(text string) bool {
	for _, loc := range m.use.FindAllStringIndex(text, -1) {
		if isolated(text, loc[0], loc[1]) {
			return true
		}
	}
	return false
}

// firstLiteral returns the body of the first list literal assigned to the
// symbol in text.
func (m matcher) firstLiteral(text string) (string, bool) {
	for _, loc := range m.literal.FindAllStringSubmatchIndex(text, -1) {
		if isolated(text, loc[0], loc[0]+len(m.symbol)) {
			return text[loc[2]:loc[3]], true
		}
	}
	return "", false
}

// isolated reports whether text[start:end] has no letter, digit or
// underscore on either side.
func isolated(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); wordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); wordRune(r) {
			return false
		}
	}
	return true
}

func wordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// definedBefore returns the index of the first code cell before end that
// assigns the symbol at the start of a line, or -1.
func (m matcher) definedBefore(cells []*notebook.Cell, end int, sentinel string) int {
	if end > len(cells) {
		end = len(cells)
	}
	for i := 0; i < end; i++ {
		cell := cells[i]
		if !analysable(cell, sentinel) {
			continue
		}
		if m.assign.MatchString(cell.Text()) {
			return i
		}
	}
	return -1
}

// sentinelCell returns the index of the first code cell tagged with the
// sentinel, or -1.
func sentinelCell(cells []*notebook.Cell, sentinel string) int {
	for i, cell := range cells {
		if cell.IsCode() && cell.HasTag(sentinel) {
			return i
		}
	}
	return -1
}

// literalMatch is one list literal assigned to the symbol.
type literalMatch struct {
	cell   int
	values []string
	err    error
}

// literals yields the first list literal of every analysable code cell, in
// document order, until yield returns false.
func (m matcher) literals(cells []*notebook.Cell, sentinel string, yield func(literalMatch) bool) {
	for i, cell := range cells {
		if !analysable(cell, sentinel) {
			continue
		}
		body, ok := m.firstLiteral(cell.Text())
		if !ok {
			continue
		}
		values, err := parseStringList(body)
		if !yield(literalMatch{cell: i, values: values, err: err}) {
			return
		}
	}
}

// parseStringList reads the inside of a bracketed list literal. Single quotes
// are turned into double quotes and the result is decoded as a JSON array,
// which must hold only strings.
func parseStringList(body string) ([]string, error) {
	normalized := "[" + strings.ReplaceAll(body, "'", `"`) + "]"
	var items []any
	if err := json.Unmarshal([]byte(normalized), &items); err != nil {
		return nil, errors.Wrap(err, "decode list literal")
	}
	values := make([]string, 0, len(items))
	for i, item := range items {
		value, ok := item.(string)
		if !ok {
			return nil, errors.Errorf("entry %d is %T, not a string", i, item)
		}
		values = append(values, value)
	}
	return values, nil
}
