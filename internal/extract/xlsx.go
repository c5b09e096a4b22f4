package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FromXLSX reads the first column of every sheet. A first row reading "topic"
// or "name" is treated as a header.
func FromXLSX(r io.Reader, limit int) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	c := newCollector(limit)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.Rows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		first := true
		for rows.Next() && !c.full() {
			cols, err := rows.Columns()
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("read row in %s: %w", sheet, err)
			}
			if len(cols) == 0 {
				first = false
				continue
			}
			cell := strings.TrimSpace(cols[0])
			if first && isHeader(cell) {
				first = false
				continue
			}
			first = false
			c.add(cell)
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close rows in %s: %w", sheet, err)
		}
		if c.full() {
			break
		}
	}
	return c.out, nil
}

func isHeader(cell string) bool {
	switch strings.ToLower(cell) {
	case "topic", "topics", "name":
		return true
	}
	return false
}
