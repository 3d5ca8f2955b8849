package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// jsonHighlighter colors formatted JSON line by line. Input is expected to be
// the indented output of the codec, so tokens never span lines.
type jsonHighlighter struct {
	key     lipgloss.Style
	str     lipgloss.Style
	number  lipgloss.Style
	boolean lipgloss.Style
	null    lipgloss.Style
	punct   lipgloss.Style
	gutter  lipgloss.Style
}

func newJSONHighlighter(t Theme) jsonHighlighter {
	color := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return jsonHighlighter{
		key:     color(t.JSON.Key),
		str:     color(t.JSON.String),
		number:  color(t.JSON.Number),
		boolean: color(t.JSON.Bool),
		null:    color(t.JSON.Null),
		punct:   color(t.JSON.Punct),
		gutter:  color(t.Faint),
	}
}

// Render highlights text, optionally prefixing line numbers.
func (h jsonHighlighter) Render(text string, lineNumbers bool) string {
	lines := strings.Split(text, "\n")
	width := len(fmt.Sprint(len(lines)))
	out := make([]string, len(lines))
	for i, line := range lines {
		hl := h.line(line)
		if lineNumbers {
			hl = h.gutter.Render(fmt.Sprintf("%*d ", width, i+1)) + hl
		}
		out[i] = hl
	}
	return strings.Join(out, "\n")
}

func (h jsonHighlighter) line(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return line
	}

	var b strings.Builder
	b.WriteString(line[:len(line)-len(trimmed)])

	chars := []rune(trimmed)
	for i := 0; i < len(chars); {
		ch := chars[i]
		switch {
		case ch == '"':
			end := stringEnd(chars, i)
			tok := string(chars[i:end])
			if isKey(chars, end) {
				b.WriteString(h.key.Render(tok))
			} else {
				b.WriteString(h.str.Render(tok))
			}
			i = end

		case ch == '{' || ch == '}' || ch == '[' || ch == ']' || ch == ':' || ch == ',':
			b.WriteString(h.punct.Render(string(ch)))
			i++

		case ch == '-' || (ch >= '0' && ch <= '9'):
			end := numberEnd(chars, i)
			b.WriteString(h.number.Render(string(chars[i:end])))
			i = end

		case ch >= 'a' && ch <= 'z':
			end := i
			for end < len(chars) && chars[end] >= 'a' && chars[end] <= 'z' {
				end++
			}
			word := string(chars[i:end])
			switch word {
			case "true", "false":
				b.WriteString(h.boolean.Render(word))
			case "null":
				b.WriteString(h.null.Render(word))
			default:
				b.WriteString(word)
			}
			i = end

		default:
			b.WriteRune(ch)
			i++
		}
	}
	return b.String()
}

// stringEnd returns the index just past the closing quote of the string that
// starts at start, honoring backslash escapes.
func stringEnd(chars []rune, start int) int {
	i := start + 1
	for i < len(chars) {
		switch chars[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return i + 1
		}
		i++
	}
	return len(chars)
}

func isKey(chars []rune, after int) bool {
	for j := after; j < len(chars); j++ {
		switch chars[j] {
		case ' ', '\t':
			continue
		case ':':
			return true
		}
		return false
	}
	return false
}

func numberEnd(chars []rune, start int) int {
	i := start
	for i < len(chars) {
		c := chars[i]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			i++
			continue
		}
		break
	}
	return i
}
