package interactiveconsoleadapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	androidtoolsetadapter "github.com/chitacloud/droidflash/adapters/android-toolset-adapter"
	defaultdispatchadapter "github.com/chitacloud/droidflash/adapters/default-dispatch-adapter"
	zaploggeradapter "github.com/chitacloud/droidflash/adapters/zap-logger-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
	outputport "github.com/chitacloud/droidflash/ports/output-port"
	registryport "github.com/chitacloud/droidflash/ports/registry-port"
)

// LogTimestampLayout names saved transcripts.
const LogTimestampLayout = "20060102_150405"

const helpText = `Commands:
  adb <args...>        run an adb command
  fastboot <args...>   run a fastboot command
  jobs                 list commands still running
  stop                 terminate every running process
  dry-run on|off       toggle dry-run mode
  save [file]          write the transcript to a file
  help                 show this help
  quit                 leave the console
`

// Snapshotter exposes the accumulated transcript.
type Snapshotter interface {
	String() string
}

// Console reads command lines and dispatches them without waiting for the
// previous command to finish.
type Console struct {
	toolset    *androidtoolsetadapter.Toolset
	dispatcher *defaultdispatchadapter.Dispatcher
	registry   registryport.Registry
	output     outputport.Publisher

	// Transcript is saved by the "save" command. It may be nil.
	Transcript Snapshotter

	Logger loggerport.Logger

	// LogDir holds transcripts saved without an explicit name. Empty means
	// the working directory.
	LogDir string

	// Now is used to name saved transcripts. If nil, time.Now is used.
	Now func() time.Time

	mu      sync.RWMutex
	nextJob int
	pending map[int]commandport.Invocation
	wg      sync.WaitGroup
}

// ConsoleFactory creates consoles.
type ConsoleFactory struct{}

// NewConsole creates a Console. Every dependency is required.
func (f *ConsoleFactory) NewConsole(toolset *androidtoolsetadapter.Toolset, dispatcher *defaultdispatchadapter.Dispatcher, registry registryport.Registry, output outputport.Publisher) (*Console, error) {
	if toolset == nil {
		return nil, fmt.Errorf("toolset cannot be nil")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if output == nil {
		return nil, fmt.Errorf("output cannot be nil")
	}

	return &Console{
		toolset:    toolset,
		dispatcher: dispatcher,
		registry:   registry,
		output:     output,
		pending:    make(map[int]commandport.Invocation),
	}, nil
}

// Run reads lines from in until EOF, a quit command or ctx is canceled.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	logger := zaploggeradapter.OrNop(c.Logger)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit, err := c.HandleLine(ctx, line)
		if err != nil {
			logger.Warn("failed to handle console line", "line", line, "error", err)
			c.output.Publish(fmt.Sprintf("Error: %v\n", err))
		}
		if quit {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading console input: %w", err)
	}

	return nil
}

// HandleLine processes a single console line. quit is true if the operator
// asked to leave.
func (c *Console) HandleLine(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "adb":
		return false, c.dispatch(ctx, false, fields[1:])
	case "fastboot":
		return false, c.dispatch(ctx, true, fields[1:])
	case "jobs":
		c.listJobs()
	case "stop":
		if c.registry.TerminateAll(ctx) {
			c.output.Publish("Stopped running processes.\n")
		} else {
			c.output.Publish("Nothing to stop.\n")
		}
	case "dry-run":
		return false, c.setDryRun(fields[1:])
	case "save":
		return false, c.save(fields[1:])
	case "help", "?":
		c.output.Publish(helpText)
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (type help)", fields[0])
	}

	return false, nil
}

// Pending returns the invocations that have not finished, oldest first.
func (c *Console) Pending() []commandport.Invocation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]int, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	invs := make([]commandport.Invocation, 0, len(ids))
	for _, id := range ids {
		invs = append(invs, c.pending[id])
	}
	return invs
}

// Wait blocks until every dispatched command has finished.
func (c *Console) Wait() {
	c.wg.Wait()
}

func (c *Console) dispatch(ctx context.Context, bootloader bool, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments")
	}

	c.mu.Lock()
	inv := c.toolset.Raw(bootloader, args...)
	c.nextJob++
	id := c.nextJob
	c.pending[id] = inv
	c.mu.Unlock()

	results := c.dispatcher.Submit(ctx, inv)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		res, ok := <-results

		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()

		if ok {
			zaploggeradapter.OrNop(c.Logger).Debug("console job finished", "job", id, "request", res.ID, "status", int(res.Status))
		}
	}()

	return nil
}

func (c *Console) listJobs() {
	c.mu.RLock()
	ids := make([]int, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "[%d] %s\n", id, c.pending[id].Display())
	}
	c.mu.RUnlock()

	if b.Len() == 0 {
		c.output.Publish("No jobs running.\n")
		return
	}
	c.output.Publish(b.String())
}

func (c *Console) setDryRun(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dry-run on|off")
	}

	var on bool
	switch strings.ToLower(args[0]) {
	case "on":
		on = true
	case "off":
	default:
		return fmt.Errorf("usage: dry-run on|off")
	}

	c.mu.Lock()
	c.toolset.DryRun = on
	c.mu.Unlock()

	if on {
		c.output.Publish("Dry-run enabled.\n")
	} else {
		c.output.Publish("Dry-run disabled.\n")
	}
	return nil
}

func (c *Console) save(args []string) error {
	if c.Transcript == nil {
		return fmt.Errorf("no transcript to save")
	}

	content := c.Transcript.String()
	if strings.TrimSpace(content) == "" {
		c.output.Publish("No output to save.\n")
		return nil
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	} else {
		now := time.Now
		if c.Now != nil {
			now = c.Now
		}
		name = filepath.Join(c.LogDir, fmt.Sprintf("droidflash_log_%s.txt", now().Format(LogTimestampLayout)))
	}

	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	c.output.Publish(fmt.Sprintf("Saved log to %s\n", name))
	return nil
}
