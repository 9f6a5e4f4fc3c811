// Package sse implements the text framing used on the realtime stream:
// "data:" frames terminated by a blank line, and ":" comment frames used for
// the connect marker and heartbeats.
package sse

import (
	"bytes"
	"strings"
)

const (
	// ContentType is the media type of the stream response.
	ContentType = "text/event-stream"

	// ConnectedComment is written once when a connection is registered.
	ConnectedComment = "connected"
	// HeartbeatComment is written on idle connections to keep proxies open.
	HeartbeatComment = "heartbeat"
)

// Data frames payload as one or more data lines followed by a blank line.
func Data(payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(payload) + 8)
	for line := range bytes.SplitSeq(payload, []byte{'\n'}) {
		buf.WriteString("data: ")
		buf.Write(bytes.TrimSuffix(line, []byte{'\r'}))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// Comment frames text as a comment line. Clients ignore comments.
func Comment(text string) []byte {
	text = strings.ReplaceAll(text, "\n", " ")
	return []byte(": " + text + "\n\n")
}
