package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Reader reads records across the active journal and its rotated segments.
type Reader struct {
	dir string
}

// NewReader creates a Reader for the journal directory.
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// ReadAll returns every record, oldest first. A missing journal directory
// yields no records.
func (r *Reader) ReadAll() ([]Record, error) {
	files, err := LogFiles(r.dir)
	if err != nil {
		return nil, err
	}

	var all []Record
	for _, f := range files {
		records, err := readFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read records from %s: %w", f, err)
		}
		all = append(all, records...)
	}
	return all, nil
}

// Tail returns the last n records of the given types, oldest first. With no
// types, rename records of both outcomes are returned. n <= 0 returns all
// matching records.
func (r *Reader) Tail(n int, types ...EventType) ([]Record, error) {
	if len(types) == 0 {
		types = []EventType{EventRename, EventRenameFailed}
	}
	want := make(map[EventType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var matched []Record
	for _, rec := range all {
		if want[rec.EventType] {
			matched = append(matched, rec)
		}
	}
	if n > 0 && len(matched) > n {
		matched = matched[len(matched)-n:]
	}
	return matched, nil
}

// Run returns the records of one run.
func (r *Reader) Run(runID RunID) ([]Record, error) {
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	var records []Record
	for _, rec := range all {
		if rec.RunID == runID {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return records, nil
}

// LogFiles returns the rotated segments followed by the active log, oldest
// first.
func LogFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	var segments []string
	active := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case name == activeLogName:
			active = true
		case strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, segmentSuffix):
			segments = append(segments, name)
		}
	}
	sort.Strings(segments)

	files := make([]string, 0, len(segments)+1)
	for _, s := range segments {
		files = append(files, filepath.Join(dir, s))
	}
	if active {
		files = append(files, filepath.Join(dir, activeLogName))
	}
	return files, nil
}

func segmentName(t time.Time) string {
	return fmt.Sprintf("%s%s-%03d%s", segmentPrefix, t.Format("20060102-150405"), t.Nanosecond()/1000000, segmentSuffix)
}

func readFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse line %d: %w", lineNum, err)
		}
		records = append(records, *rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading journal file: %w", err)
	}
	return records, nil
}
