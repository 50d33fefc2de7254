package fetcher

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	// Delimiter defaults to auto-detection between ',' and ';'.
	Delimiter rune
	Comment   rune
}

// ReadCSV reads every row of r, trimming fields and skipping blank lines.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([][]string, error) {
	br := bufio.NewReader(r)
	delim := opts.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(br, opts.Comment)
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.Comment = opts.Comment
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "fetcher: csv cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: csv read row")
		}
		blank := true
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
			if record[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, record)
		}
	}
}

// sniffDelimiter picks ';' when the first data line has more semicolons
// than commas, as spreadsheet exports with decimal commas do. Blank lines
// and lines starting with comment are skipped.
func sniffDelimiter(br *bufio.Reader, comment rune) rune {
	peek, _ := br.Peek(4096)
	for _, line := range strings.Split(string(peek), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
		if line == "" || (comment != 0 && strings.HasPrefix(line, string(comment))) {
			continue
		}
		if strings.Count(line, ";") > strings.Count(line, ",") {
			return ';'
		}
		return ','
	}
	return ','
}
