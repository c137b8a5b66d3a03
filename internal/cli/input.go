package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
)

type inputLine struct {
	text string
	err  error
}

// lineSource reads input on its own goroutine so the attempt loop can wait
// on a line and a countdown event at the same time.
type lineSource struct {
	lines chan inputLine
}

func newLineSource(in io.Reader) *lineSource {
	source := &lineSource{lines: make(chan inputLine)}
	go source.pump(bufio.NewReader(in))
	return source
}

func (s *lineSource) pump(reader *bufio.Reader) {
	defer close(s.lines)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			s.lines <- inputLine{text: strings.TrimRight(line, "\r\n")}
		}
		if err != nil {
			s.lines <- inputLine{err: err}
			return
		}
	}
}

func (s *lineSource) Lines() <-chan inputLine {
	return s.lines
}

func (s *lineSource) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return line.text, line.err
	}
}
