package sse

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

// MaxFrameSize caps one frame's data. Larger frames are skipped whole and
// the stream keeps going.
const MaxFrameSize = 4 * 1024 * 1024

// Event is one decoded data frame.
type Event struct {
	Name string
	Data []byte
}

// Reader decodes frames from a stream. Comment frames are skipped.
type Reader struct {
	br      *bufio.Reader
	maxSize int
	// Skipped counts frames dropped for exceeding the size cap.
	Skipped int
}

func NewReader(r io.Reader) *Reader {
	return newReaderSize(r, MaxFrameSize)
}

func newReaderSize(r io.Reader, maxSize int) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024), maxSize: maxSize}
}

// Next returns the next data frame. It returns io.EOF when the stream ends
// cleanly; a trailing frame without its blank line is still returned first.
func (r *Reader) Next() (Event, error) {
	var (
		name     string
		data     bytes.Buffer
		hasData  bool
		oversize bool
	)

	for {
		line, tooLong, err := r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) && hasData && !oversize {
				return Event{Name: name, Data: bytes.Clone(data.Bytes())}, nil
			}
			return Event{}, err
		}
		if tooLong {
			oversize = true
			continue
		}

		if len(line) == 0 {
			if oversize {
				r.Skipped++
			} else if hasData {
				return Event{Name: name, Data: bytes.Clone(data.Bytes())}, nil
			}
			name, hasData, oversize = "", false, false
			data.Reset()
			continue
		}
		if oversize || line[0] == ':' {
			continue
		}

		text := string(line)
		if rest, ok := strings.CutPrefix(text, "event:"); ok {
			name = strings.TrimSpace(rest)
			continue
		}
		if segment, ok := strings.CutPrefix(text, "data:"); ok {
			segment = strings.TrimPrefix(segment, " ")
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(segment)
			hasData = true
			if data.Len() > r.maxSize {
				oversize = true
				data.Reset()
			}
		}
	}
}

// readLine returns one line without its terminator. A line longer than the
// size cap is consumed and reported as tooLong with no content.
func (r *Reader) readLine() (line []byte, tooLong bool, err error) {
	for {
		chunk, isPrefix, err := r.br.ReadLine()
		if err != nil {
			// a partial line cut off by EOF still counts as a line
			if errors.Is(err, io.EOF) && (len(line) > 0 || tooLong) {
				return line, tooLong, nil
			}
			return nil, false, err
		}
		if !tooLong {
			if len(line)+len(chunk) > r.maxSize {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}
