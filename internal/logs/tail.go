package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const maxLine = 1024 * 1024

// PollInterval is how often Follow checks the file for growth.
var PollInterval = 250 * time.Millisecond

// Last returns up to limit trailing lines of path and the end offset. A
// limit <= 0 returns no lines, only the offset.
func Last(path string, limit int) ([]string, int64, error) {
	file, err := openLog(path)
	if err != nil || file == nil {
		return nil, 0, err
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	ring := make([]string, 0, limit)
	next := 0
	end, err := scan(file, func(line string) {
		if len(ring) < limit {
			ring = append(ring, line)
			return
		}
		ring[next] = line
		next = (next + 1) % limit
	})
	if err != nil {
		return nil, 0, err
	}
	lines := append(ring[next:len(ring):len(ring)], ring[:next]...)
	return lines, end, nil
}

// Follow delivers each line appended after offset to fn until ctx is done.
// A file truncated below offset is read again from the start.
func Follow(ctx context.Context, path string, offset int64, fn func(string)) error {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		next, err := readFrom(path, offset, fn)
		if err != nil {
			return err
		}
		offset = next
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Matching wraps fn to pass only lines containing every term.
func Matching(fn func(string), terms ...string) func(string) {
	return func(line string) {
		for _, term := range terms {
			if term != "" && !strings.Contains(line, term) {
				return
			}
		}
		fn(line)
	}
}

func readFrom(path string, offset int64, fn func(string)) (int64, error) {
	file, err := openLog(path)
	if err != nil || file == nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return offset, nil
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	var partial int64
	end, err := scanComplete(file, offset, fn, &partial)
	if err != nil {
		return offset, err
	}
	return end - partial, nil
}

func openLog(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("log path %q is a directory", path)
	}
	return file, nil
}

func scan(file *os.File, fn func(string)) (int64, error) {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	return end, nil
}

// scanComplete is scan for a growing file: a trailing line without a newline
// is held back and its length reported through partial.
func scanComplete(file *os.File, start int64, fn func(string), partial *int64) (int64, error) {
	reader := bufio.NewReaderSize(file, 64*1024)
	pos := start
	for {
		line, err := reader.ReadString('\n')
		pos += int64(len(line))
		if errors.Is(err, io.EOF) {
			*partial = int64(len(line))
			return pos, nil
		}
		if err != nil {
			return pos, fmt.Errorf("read log file: %w", err)
		}
		fn(strings.TrimRight(line, "\r\n"))
	}
}
