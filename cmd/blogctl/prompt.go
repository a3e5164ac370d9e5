package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

func (e *env) promptString(label string) (string, error) {
	fmt.Fprint(e.out, label)
	line, err := e.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo on a terminal and falls back to a plain
// line when stdin is piped.
func (e *env) promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return e.promptString(label)
	}
	fmt.Fprint(e.out, label)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(e.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (e *env) promptConfirm(question string) (bool, error) {
	answer, err := e.promptString(question + " (y/n) ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}
