package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Line is one non-blank line of a file. No is its 1-based line number.
type Line struct {
	No   int64
	Text string
}

// Version identifies a file's contents well enough to notice appends and
// rewrites.
type Version struct {
	Size    int64
	ModTime time.Time
}

// Stat returns the current version of the file at path. A missing file has
// the zero version.
func Stat(path string) (Version, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Version{}, nil
		}
		return Version{}, fmt.Errorf("stat log: %w", err)
	}
	return Version{Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Read returns at most maxLines non-blank lines from the end of the file at
// path, or every line when maxLines <= 0. A missing file reads as empty.
func Read(path string, maxLines int) ([]Line, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	var ring []Line
	if maxLines > 0 {
		ring = make([]Line, maxLines)
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var (
		no    int64
		count int
		idx   int
		all   []Line
	)
	for scanner.Scan() {
		no++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		line := Line{No: no, Text: text}
		if maxLines <= 0 {
			all = append(all, line)
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	if maxLines <= 0 {
		return all, nil
	}

	lines := make([]Line, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}
