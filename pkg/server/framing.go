package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxHeaderBytes bounds the head (request line plus headers) of one
// message so a misbehaving peer cannot grow the buffer without limit.
const maxHeaderBytes = 1 << 20

// ErrHeaderTooLarge is returned when a message head exceeds maxHeaderBytes.
var ErrHeaderTooLarge = errors.New("message header exceeds size limit")

// ReadMessage reads one full HTTP/1.1 message off r: the head line by line
// through the blank-line boundary, then exactly Content-Length further
// body bytes. This is the continuation strategy for messages larger than
// a single transport read; nothing here assumes one-shot delivery.
//
// A connection that closes mid-head yields whatever arrived, leaving the
// parser to degrade to its sentinel values.
func ReadMessage(r *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	contentLength := 0

	for {
		line, err := r.ReadString('\n')
		buf.WriteString(line)
		if err != nil {
			if errors.Is(err, io.EOF) && buf.Len() > 0 {
				return buf.Bytes(), nil
			}
			return nil, err
		}
		if buf.Len() > maxHeaderBytes {
			return nil, ErrHeaderTooLarge
		}
		if line == "\r\n" {
			break
		}
		if key, value, ok := strings.Cut(strings.TrimRight(line, "\r\n"), ": "); ok {
			if strings.EqualFold(key, "content-length") {
				if n, convErr := strconv.Atoi(strings.TrimSpace(value)); convErr == nil && n >= 0 {
					contentLength = n
				}
			}
		}
	}

	if contentLength > 0 {
		body := make([]byte, contentLength)
		n, err := io.ReadFull(r, body)
		buf.Write(body[:n])
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return buf.Bytes(), fmt.Errorf("failed to read message body: %w", err)
		}
	}

	return buf.Bytes(), nil
}
