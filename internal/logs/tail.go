package logs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	maxLineBytes     = 1 << 20
	tailBlockSize    = 8 << 10
	followChunkSize  = 32 << 10
	defaultPollEvery = 250 * time.Millisecond
)

// Last returns up to n trailing lines of path and the file size, which is the
// offset to Follow from. A missing file yields no lines and offset zero.
func Last(path string, n int) ([]string, int64, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	size := info.Size()
	if n <= 0 || size == 0 {
		return nil, size, nil
	}

	data, fromStart, err := readTail(file, size, n)
	if err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if !fromStart {
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, size, nil
}

// readTail reads backwards from size in blocks until it holds more than n
// line breaks (ignoring a final one) or reaches the start of the file.
// fromStart reports whether data begins at offset zero.
func readTail(r io.ReaderAt, size int64, n int) (data []byte, fromStart bool, err error) {
	pos := size
	breaks := 0
	for pos > 0 && breaks <= n && int64(len(data)) < maxLineBytes*int64(n+1) {
		step := min(int64(tailBlockSize), pos)
		pos -= step
		chunk := make([]byte, step)
		if _, err := r.ReadAt(chunk, pos); err != nil && !errors.Is(err, io.EOF) {
			return nil, false, err
		}
		breaks += bytes.Count(chunk, []byte{'\n'})
		if pos+step == size && chunk[len(chunk)-1] == '\n' {
			breaks--
		}
		data = append(chunk, data...)
	}
	return data, pos == 0, nil
}

// Follow emits every complete line appended to path after offset until ctx
// ends, and returns nil on cancellation. A truncated or replaced file is
// read again from the beginning.
func Follow(ctx context.Context, path string, offset int64, pollEvery time.Duration, emit func(line string)) error {
	if pollEvery <= 0 {
		pollEvery = defaultPollEvery
	}
	f := &follower{path: path, offset: offset}
	defer f.close()

	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()
	for {
		if err := f.poll(emit); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

type follower struct {
	path    string
	file    *os.File
	offset  int64
	partial []byte
}

func (f *follower) poll(emit func(string)) error {
	if err := f.sync(); err != nil {
		return err
	}
	if f.file == nil {
		return nil
	}
	buf := make([]byte, followChunkSize)
	for {
		nr, err := f.file.ReadAt(buf, f.offset)
		if nr > 0 {
			f.offset += int64(nr)
			f.consume(buf[:nr], emit)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read log file: %w", err)
		}
	}
}

// sync opens path on first use and starts over when the file on disk is no
// longer the one held open or has shrunk below the read offset.
func (f *follower) sync() error {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.close()
		f.offset = 0
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if f.file != nil {
		held, statErr := f.file.Stat()
		if statErr == nil && os.SameFile(held, info) && info.Size() >= f.offset {
			return nil
		}
		f.close()
		f.offset = 0
	}
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if info.Size() < f.offset {
		f.offset = 0
	}
	f.file = file
	return nil
}

// consume emits complete lines and keeps a trailing partial line. Lines
// longer than maxLineBytes are emitted in pieces.
func (f *follower) consume(data []byte, emit func(string)) {
	pending := append(f.partial, data...)
	for {
		idx := bytes.IndexByte(pending, '\n')
		if idx < 0 {
			break
		}
		emit(strings.TrimSuffix(string(pending[:idx]), "\r"))
		pending = pending[idx+1:]
	}
	if len(pending) >= maxLineBytes {
		emit(string(pending))
		pending = nil
	}
	f.partial = append([]byte(nil), pending...)
}

func (f *follower) close() {
	if f.file != nil {
		_ = f.file.Close()
		f.file = nil
	}
	f.partial = nil
}
