// Package extract pulls candidate study topics out of uploaded documents.
package extract

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/p-n-ai/pai-progress/internal/progress"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

// ErrUnsupported is returned for document types that cannot be parsed.
var ErrUnsupported = errors.New("unsupported document type")

// Format is a supported document format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatXLSX     Format = "xlsx"
	FormatPDF      Format = "pdf"
)

const (
	// DefaultMaxCandidates caps how many topics one document yields.
	DefaultMaxCandidates = 50

	minRunes = 3
	maxRunes = 120
)

// ImportTags are attached to every extracted topic.
var ImportTags = []string{"Imported", "DSA"}

// DetectFormat picks the parser for an upload from its file name, falling
// back to the declared content type.
func DetectFormat(filename, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text":
		return FormatText, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".pdf":
		return FormatPDF, nil
	}

	mediaType, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	switch strings.TrimSpace(mediaType) {
	case "text/plain":
		return FormatText, nil
	case "text/markdown", "text/x-markdown":
		return FormatMarkdown, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, nil
	case "application/pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%q (%s): %w", filename, contentType, ErrUnsupported)
}

// Extract parses r as format and returns at most limit candidate topic names.
// A non-positive limit means DefaultMaxCandidates.
func Extract(r io.Reader, format Format, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}
	switch format {
	case FormatText, FormatMarkdown:
		return FromText(r, limit)
	case FormatXLSX:
		return FromXLSX(r, limit)
	case FormatPDF:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		return FromPDF(bytes.NewReader(data), int64(len(data)), limit)
	default:
		return nil, fmt.Errorf("format %q: %w", format, ErrUnsupported)
	}
}

var (
	headingRe = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	listRe    = regexp.MustCompile(`^(?:[-*+•]|\d{1,3}[.)])\s+(.+)$`)
	chapterRe = regexp.MustCompile(`(?i)^(?:chapter|module|unit|topic|section|week)\s+[0-9ivx]+\s*[:.)–-]\s*(.+)$`)
)

// FromText collects headings, list items and numbered chapter lines.
func FromText(r io.Reader, limit int) ([]string, error) {
	c := newCollector(limit)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() && !c.full() {
		c.addLine(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return c.out, nil
}

// addLine adds the topic named by a heading, chapter or list line. It reports
// whether line matched any of them.
func (c *collector) addLine(line string) bool {
	line = strings.TrimSpace(line)
	for _, re := range []*regexp.Regexp{headingRe, chapterRe, listRe} {
		if m := re.FindStringSubmatch(line); m != nil {
			c.add(m[1])
			return true
		}
	}
	return false
}

// collector normalizes and deduplicates candidates up to a limit.
type collector struct {
	limit int
	seen  map[string]bool
	out   []string
	title cases.Caser
}

func newCollector(limit int) *collector {
	return &collector{
		limit: limit,
		seen:  make(map[string]bool),
		out:   []string{},
		title: cases.Title(language.English, cases.NoLower),
	}
}

func (c *collector) full() bool {
	return len(c.out) >= c.limit
}

func (c *collector) add(raw string) {
	if c.full() {
		return
	}
	name := Normalize(raw, c.title)
	if name == "" {
		return
	}
	key := strings.ToLower(name)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.out = append(c.out, name)
}

// Normalize cleans one candidate: NFKC, stripped markup, collapsed spaces and
// title case. It returns "" when the result is too short or too long.
func Normalize(raw string, title cases.Caser) string {
	s := norm.NFKC.String(raw)
	s = strings.Trim(s, " \t*_`#:.-")
	s = strings.Join(strings.Fields(s), " ")
	if n := utf8.RuneCountInString(s); n < minRunes || n > maxRunes {
		return ""
	}
	return title.String(s)
}

// ToTopics converts candidates into new, not-started DSA topics.
func ToTopics(candidates []string, source string) []tracker.Topic {
	topics := make([]tracker.Topic, len(candidates))
	for i, name := range candidates {
		topics[i] = tracker.Topic{
			Name:        name,
			Description: "Extracted from " + source,
			Category:    progress.CategoryDSA,
			Priority:    tracker.PriorityMedium,
			Status:      progress.StatusNotStarted,
			Tags:        append([]string(nil), ImportTags...),
		}
	}
	return topics
}
