// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for input. Commands take one so tests can
// script the answers.
type Prompter interface {
	Password(prompt string) (string, error)
	Confirm(prompt string) (bool, error)
}

// TerminalPrompter reads from In and writes prompts to Out. When In is
// a terminal the password is read without echo; otherwise one line is
// read as-is, which is what scripts piping a password expect.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	reader *bufio.Reader
}

// Password prompts for a secret.
func (p *TerminalPrompter) Password(prompt string) (string, error) {
	fmt.Fprint(p.Out, prompt)
	if term.IsTerminal(int(p.In.Fd())) {
		secret, err := term.ReadPassword(int(p.In.Fd()))
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(secret), nil
	}
	return p.line()
}

// Confirm asks a yes/no question. Anything but "y" or "yes" is no.
func (p *TerminalPrompter) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(p.Out, "%s [y/N] ", prompt)
	answer, err := p.line()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *TerminalPrompter) line() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
