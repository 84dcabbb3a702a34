package search

import (
	"bufio"
	"io"
	"strings"
)

// ParseMarkdown reads a knowledge file. A level-two heading ("## order_status")
// sets the intent for the entries below it; text before the first heading has
// no intent. Entries are paragraphs separated by blank lines, and every table
// row becomes its own entry with cells joined by spaces. Level-one headings
// and table separator rows are ignored.
func ParseMarkdown(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		out    []Entry
		intent string
		para   []string
	)
	flush := func() {
		if len(para) == 0 {
			return
		}
		out = append(out, Entry{Intent: intent, Text: strings.Join(para, " ")})
		para = para[:0]
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "## "):
			flush()
			intent = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "## ")))
		case strings.HasPrefix(line, "# "):
			flush()
		case strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|"):
			flush()
			if fact := tableRow(line); fact != "" {
				out = append(out, Entry{Intent: intent, Text: fact})
			}
		default:
			para = append(para, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

// tableRow flattens "| a | b |" to "a b"; separator rows yield "".
func tableRow(line string) string {
	cols := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, 0, len(cols))
	for _, c := range cols {
		cell := strings.TrimSpace(c)
		if strings.Trim(cell, ":- ") == "" {
			continue
		}
		cells = append(cells, cell)
	}
	return strings.Join(cells, " ")
}
