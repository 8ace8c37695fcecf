package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers from stdin, hiding secrets when stdin is a terminal.
type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, reader: bufio.NewReader(in), out: out}
}

// line reads one trimmed line.
func (p *prompter) line(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.out, prompt)
	raw, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	if errors.Is(err, io.EOF) && raw == "" {
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(raw), nil
}

// secret reads one line without echo on a terminal.
func (p *prompter) secret(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		raw, err := p.line(prompt)
		return raw, err
	}
	_, _ = fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
