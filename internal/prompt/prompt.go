// Package prompt asks the user questions on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter reads answers from In and writes questions to Out
type Prompter struct {
	In        *bufio.Reader
	Out       io.Writer
	AssumeYes bool
}

// New returns a prompter on the given streams
func New(in io.Reader, out io.Writer, assumeYes bool) *Prompter {
	return &Prompter{In: bufio.NewReader(in), Out: out, AssumeYes: assumeYes}
}

// Stdio returns a prompter on stdin and stdout
func Stdio(assumeYes bool) *Prompter {
	return New(os.Stdin, os.Stdout, assumeYes)
}

// Confirm asks a yes or no question until it gets an answer. An empty
// answer, or the end of input, picks defaultValue.
func (p *Prompter) Confirm(question string, defaultValue bool) (bool, error) {
	choices := "[y/N]"
	if defaultValue {
		choices = "[Y/n]"
	}

	if p.AssumeYes {
		fmt.Fprintf(p.Out, "%s %s y\n", question, choices)
		return true, nil
	}

	for {
		fmt.Fprintf(p.Out, "%s %s ", question, choices)

		line, err := p.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.Out)
				return defaultValue, nil
			}
			return false, err
		}

		switch strings.ToLower(line) {
		case "":
			return defaultValue, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.Out, "This is a yes and no question!")
	}
}

// Ask reads a line of text. An empty answer picks defaultValue; with
// AssumeYes a non-empty default is taken without asking. When validate is
// set, the question is repeated until the answer passes it.
func (p *Prompter) Ask(question, defaultValue string, validate func(string) error) (string, error) {
	label := question
	if defaultValue != "" {
		label = fmt.Sprintf("%s [%s]", question, defaultValue)
	}

	if p.AssumeYes && defaultValue != "" {
		fmt.Fprintf(p.Out, "%s: %s\n", label, defaultValue)
		return defaultValue, nil
	}

	for {
		fmt.Fprintf(p.Out, "%s: ", label)

		line, err := p.readLine()
		if err != nil && !(errors.Is(err, io.EOF) && defaultValue != "") {
			return "", err
		}
		if line == "" {
			line = defaultValue
		}

		if validate == nil {
			return line, nil
		}
		if err := validate(line); err != nil {
			fmt.Fprintln(p.Out, err)
			if line == defaultValue {
				return "", err
			}
			continue
		}
		return line, nil
	}
}

// Pause waits for the user to press enter
func (p *Prompter) Pause(message string) error {
	fmt.Fprintf(p.Out, "%s\nPress enter to continue...", message)
	if p.AssumeYes {
		fmt.Fprintln(p.Out)
		return nil
	}
	_, err := p.readLine()
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// readLine returns io.EOF only when the input ended without an answer
func (p *Prompter) readLine() (string, error) {
	line, err := p.In.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line != "" && errors.Is(err, io.EOF) {
		return line, nil
	}
	return line, err
}
