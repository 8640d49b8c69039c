package batchflashadapter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
)

// LoadList parses a batch list. Each non-blank line holds a partition and a
// path separated by "|", or failing that ",", or failing that whitespace.
//
// Lines that cannot be parsed are reported in the returned error; every
// parsable row is still returned.
func LoadList(r io.Reader) ([]*Row, error) {
	var (
		rows []*Row
		err  error
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		part, path, ok := splitLine(line)
		if !ok {
			err = multierr.Append(err, fmt.Errorf("line %d: no separator in %q", lineNo, line))
			continue
		}

		rows = append(rows, NewRow(part, path))
	}

	return rows, multierr.Append(err, scanner.Err())
}

func splitLine(line string) (string, string, bool) {
	for _, sep := range []string{"|", ","} {
		if part, path, ok := strings.Cut(line, sep); ok {
			return strings.TrimSpace(part), strings.TrimSpace(path), true
		}
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}

	return fields[0], strings.Join(fields[1:], " "), true
}

// SaveList writes rows as "partition|path" lines. Rows with neither field
// set are omitted. Enabled flags and results are not saved.
func SaveList(w io.Writer, rows []*Row) error {
	bw := bufio.NewWriter(w)

	for _, r := range rows {
		part := strings.TrimSpace(r.Partition)
		path := strings.TrimSpace(r.Source)

		if part == "" && path == "" {
			continue
		}

		if _, err := fmt.Fprintf(bw, "%s|%s\n", part, path); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// LoadListFile reads a batch list from a file.
func LoadListFile(name string) ([]*Row, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch list: %w", err)
	}
	defer f.Close()

	return LoadList(f)
}

// SaveListFile writes a batch list to a file, replacing it.
func SaveListFile(name string, rows []*Row) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create batch list: %w", err)
	}

	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	return SaveList(f, rows)
}
