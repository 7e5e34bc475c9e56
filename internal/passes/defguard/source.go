package defguard

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/kingrea/nbtidy/internal/config"
)

// guardSource renders the guarded definition cell, one newline-terminated
// line per entry:
//
//	# Ensure game_type_order and labels are defined early for downstream cells
//	try:
//	    game_type_order
//	except NameError:
//	    game_type_order = ["human", ...]
//	try:
//	    game_type_labels
//	except NameError:
//	    _pretty = {
//	        'human': 'Human',
//	    }
//	    game_type_labels = [_pretty.get(gt, gt) for gt in game_type_order]
func guardSource(cfg config.DefineConfig, order []string) []string {
	lines := []string{
		fmt.Sprintf("# Ensure %s and labels are defined early for downstream cells", cfg.Symbol),
		"try:",
		"    " + cfg.Symbol,
		"except NameError:",
		fmt.Sprintf("    %s = %s", cfg.Symbol, jsonList(order)),
		"try:",
		"    " + cfg.LabelsSymbol,
		"except NameError:",
		"    _pretty = {",
	}
	for _, entry := range cfg.Labels {
		lines = append(lines, fmt.Sprintf("        %s: %s,", pyString(entry.Key), pyString(entry.Label)))
	}
	lines = append(lines,
		"    }",
		fmt.Sprintf("    %s = [_pretty.get(gt, gt) for gt in %s]", cfg.LabelsSymbol, cfg.Symbol),
	)
	for i := range lines {
		lines[i] += "\n"
	}
	return lines
}

// jsonList writes values as a JSON array with ", " separators and every
// non-printable or non-ASCII rune escaped, which is also a valid Python list.
func jsonList(values []string) string {
	quoted := make([]string, len(values))
	for i, value := range values {
		quoted[i] = jsonString(value)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func jsonString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				b.WriteRune(r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
			default:
				fmt.Fprintf(&b, `\u%04x`, r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// pyString writes s as a single-quoted Python string literal.
func pyString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
