// Package iocli читает ответы пользователя в терминале.
package iocli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

//go:generate moq -out prompter_mock.go . Prompter

// Prompter asks the user for input.
type Prompter interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}

var ErrEmptyInput = errors.New("empty input")

// Terminal читает из in и пишет подсказки в out. Если in - терминал,
// пароль читается без эха, иначе (pipe, тесты) как обычная строка.
type Terminal struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
	fd     int
	isTTY  bool
}

// NewTerminal wraps the process stdin and stderr.
func NewTerminal() *Terminal {
	return NewTerminalFrom(os.Stdin, os.Stderr)
}

// NewTerminalFrom builds a Terminal over arbitrary streams.
func NewTerminalFrom(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{in: in, out: out, reader: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.fd = int(f.Fd())
		t.isTTY = true
	}
	return t
}

func (t *Terminal) ReadLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrEmptyInput
	}
	return line, nil
}

func (t *Terminal) ReadPassword(prompt string) (string, error) {
	if !t.isTTY {
		return t.ReadLine(prompt)
	}

	fmt.Fprint(t.out, prompt)
	pw, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	if len(pw) == 0 {
		return "", ErrEmptyInput
	}
	return string(pw), nil
}
