package store

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/o1-security/gumd/pkg/errs"
)

// parsedFile is the result of reading and parsing a table file: its lines
// (in original order, comments and blanks interleaved with records), the
// file's mode (preserved across rewrite), and whether the original content
// ended in a trailing newline.
type parsedFile struct {
	lines          []Line
	mode           os.FileMode
	trailingNewline bool
}

// parseFile reads path and splits it into lines, classifying each as blank,
// comment, or record. Record lines are split on ':'; a record with fewer
// than width fields is rejected as errs.FileCorrupt, while extra fields are
// kept. A missing file parses as an empty
// file with mode 0644 so a first-ever Append can create it.
func parseFile(path string, width int) (*parsedFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &parsedFile{mode: 0644, trailingNewline: true}, nil
	}
	if err != nil {
		return nil, errs.FileIO("read", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.FileIO("stat", path, err)
	}

	pf := &parsedFile{mode: info.Mode().Perm()}
	pf.trailingNewline = len(data) == 0 || data[len(data)-1] == '\n'

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		kind := classify(raw)
		line := Line{Kind: kind, Raw: raw}
		if kind == LineRecord {
			fields := strings.Split(raw, ":")
			if len(fields) < width {
				return nil, errs.FileCorrupt(path, lineNo, nil)
			}
			line.Record = Record{Fields: fields}
		}
		pf.lines = append(pf.lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.FileIO("read", path, err)
	}
	return pf, nil
}

// serialize renders lines back into file content, preserving comment/blank
// text verbatim and re-joining record fields with ':'.
func serialize(lines []Line, trailingNewline bool) []byte {
	var buf bytes.Buffer
	for i, l := range lines {
		switch l.Kind {
		case LineRecord:
			buf.WriteString(l.Record.serialize())
		default:
			buf.WriteString(l.Raw)
		}
		if i < len(lines)-1 || trailingNewline {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}
