package consolepromptadapter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	promptport "github.com/chitacloud/droidflash/ports/prompt-port"
)

var _ promptport.Prompter = (*ConsolePrompter)(nil)

// ConsolePrompter asks questions on a line-oriented terminal. It is safe for
// concurrent use; questions are asked one at a time.
type ConsolePrompter struct {
	// AssumeYes answers every Confirm with yes without reading input.
	AssumeYes bool

	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// New returns a prompter reading answers from in and writing questions to
// out.
func New(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm asks a yes/no question. Anything other than "y" or "yes" is no.
func (p *ConsolePrompter) Confirm(message string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s [y/N]: ", message)

	if p.AssumeYes {
		fmt.Fprintln(p.out, "y")
		return true
	}

	line, ok := p.readLine()
	if !ok {
		return false
	}

	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// PromptText asks for a line of text. An empty answer selects def. End of
// input counts as cancellation.
func (p *ConsolePrompter) PromptText(message, def string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.promptText(message, def)
}

func (p *ConsolePrompter) promptText(message, def string) (string, bool) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", message, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", message)
	}

	line, ok := p.readLine()
	if !ok {
		return "", false
	}
	if line == "" {
		return def, true
	}

	return line, true
}

// ChooseFile asks for the path of an existing file.
func (p *ConsolePrompter) ChooseFile(message string) (string, bool) {
	return p.choosePath(message, false)
}

// ChooseFolder asks for the path of an existing directory.
func (p *ConsolePrompter) ChooseFolder(message string) (string, bool) {
	return p.choosePath(message, true)
}

func (p *ConsolePrompter) choosePath(message string, dir bool) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	path, ok := p.promptText(message, "")
	if !ok || path == "" {
		return "", false
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(p.out, "Not found: %s\n", path)
		return "", false
	}
	if info.IsDir() != dir {
		kind := "file"
		if dir {
			kind = "folder"
		}
		fmt.Fprintf(p.out, "Not a %s: %s\n", kind, path)
		return "", false
	}

	return path, true
}

// readLine returns the next line without its terminator. ok is false at
// end of input when nothing was read.
func (p *ConsolePrompter) readLine() (string, bool) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", false
	}

	return strings.TrimSpace(line), true
}
