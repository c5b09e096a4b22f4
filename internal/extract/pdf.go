package extract

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const maxCapsHeadingRunes = 60

// FromPDF reads the text layer of a PDF. Besides the line forms FromText
// accepts, short all-caps lines are taken as section headings. Scanned PDFs
// without a text layer yield no candidates.
func FromPDF(r io.ReaderAt, size int64, limit int) (out []string, err error) {
	// The parser panics on some malformed streams.
	defer func() {
		if v := recover(); v != nil {
			out, err = nil, fmt.Errorf("parse pdf: %v", v)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	text, err := doc.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	c := newCollector(limit)
	sc := bufio.NewScanner(text)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() && !c.full() {
		line := sc.Text()
		if c.addLine(line) {
			continue
		}
		if line = strings.TrimSpace(line); isCapsHeading(line) {
			c.add(strings.ToLower(line))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}
	return c.out, nil
}

func isCapsHeading(line string) bool {
	letters, n := 0, 0
	for _, r := range line {
		n++
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsLetter(r):
			letters++
		}
	}
	return letters >= minRunes && n <= maxCapsHeadingRunes
}
