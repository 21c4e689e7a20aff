package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Export file names inside a league directory.
const (
	roundsFile      = "rounds.csv"
	competitorsFile = "competitors.csv"
	submissionsFile = "submissions.csv"
	votesFile       = "votes.csv"
)

// Export column headers.
const (
	colID        = "ID"
	colName      = "Name"
	colRoundID   = "Round ID"
	colSubmitter = "Submitter ID"
	colURI       = "Spotify URI"
	colTitle     = "Title"
	colArtist    = "Artist(s)"
	colVoter     = "Voter ID"
	colPoints    = "Points Assigned"
	colComment   = "Comment"
)

// table is a parsed CSV file addressed by header name.
type table struct {
	file   string
	header map[string]int
	rows   [][]string
}

// readTable parses path. A missing file is an empty table.
func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &table{file: path, header: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return parseTable(path, f)
}

func parseTable(name string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	t := &table{file: name, header: map[string]int{}}
	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	for i, h := range head {
		// Exports sometimes carry a UTF-8 BOM on the first header.
		t.header[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if blank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// require fails unless every named column is present. Empty tables pass.
func (t *table) require(cols ...string) error {
	if len(t.rows) == 0 {
		return nil
	}
	for _, c := range cols {
		if _, ok := t.header[c]; !ok {
			return fmt.Errorf("%w: %s has no %q column", ErrMissingColumn, t.file, c)
		}
	}
	return nil
}

// get returns the trimmed value of col in row, or "" when absent.
func (t *table) get(row []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
