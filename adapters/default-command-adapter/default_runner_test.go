package defaultcommandadapter

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	defaultoutputadapter "github.com/chitacloud/droidflash/adapters/default-output-adapter"
	defaultregistryadapter "github.com/chitacloud/droidflash/adapters/default-registry-adapter"
	commandport "github.com/chitacloud/droidflash/ports/command-port"
)

// recordingRegistry wraps the default registry and records every call so
// tests can assert exactly-once registration.
type recordingRegistry struct {
	*defaultregistryadapter.DefaultRegistry

	mu           sync.Mutex
	registered   int
	deregistered int
	onRegister   func(h commandport.ProcessHandle)
}

func (r *recordingRegistry) Register(h commandport.ProcessHandle) {
	r.DefaultRegistry.Register(h)
	r.mu.Lock()
	r.registered++
	cb := r.onRegister
	r.mu.Unlock()
	if cb != nil {
		cb(h)
	}
}

func (r *recordingRegistry) Deregister(h commandport.ProcessHandle) {
	r.DefaultRegistry.Deregister(h)
	r.mu.Lock()
	r.deregistered++
	r.mu.Unlock()
}

func newRecordingRegistry() *recordingRegistry {
	return &recordingRegistry{DefaultRegistry: &defaultregistryadapter.DefaultRegistry{}}
}

func transcript(q *defaultoutputadapter.Queue) string {
	return strings.Join(q.Drain(), "")
}

func TestDefaultRunner_Run_StreamsOutput(t *testing.T) {
	q := defaultoutputadapter.NewQueue()
	reg := newRecordingRegistry()
	runner := &DefaultRunner{Output: q, Registry: reg}

	status := runner.Run(context.Background(), commandport.NewInvocation(false, "sh", "-c", "echo hello; echo world 1>&2"))
	if status != 0 {
		t.Fatalf("Expected exit status 0, got %d", status)
	}

	chunks := q.Drain()
	out := strings.Join(chunks, "")

	if !strings.HasPrefix(out, "\n$ sh -c echo hello; echo world 1>&2\n") {
		t.Errorf("Expected command header, got %q", out)
	}
	if !strings.Contains(out, "hello\n") || !strings.Contains(out, "world\n") {
		t.Errorf("Expected merged stdout and stderr, got %q", out)
	}
	if !strings.HasSuffix(out, "\n[Process exited with code 0]\n") {
		t.Errorf("Expected exit annotation, got %q", out)
	}

	// Each line is published as its own chunk, newline included.
	found := false
	for _, c := range chunks {
		if c == "hello\n" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a verbatim line chunk, got %q", chunks)
	}
}

func TestDefaultRunner_Run_NonZeroExit(t *testing.T) {
	q := defaultoutputadapter.NewQueue()
	runner := &DefaultRunner{Output: q}

	status := runner.Run(context.Background(), commandport.NewInvocation(false, "sh", "-c", "exit 7"))
	if status != 7 {
		t.Errorf("Expected exit status 7, got %d", status)
	}
	if status.Success() {
		t.Error("Expected non-zero status not to be success")
	}
	if !strings.Contains(transcript(q), "[Process exited with code 7]") {
		t.Error("Expected exit code annotation")
	}
}

func TestDefaultRunner_Run_DryRun(t *testing.T) {
	q := defaultoutputadapter.NewQueue()
	reg := newRecordingRegistry()
	runner := &DefaultRunner{Output: q, Registry: reg}

	status := runner.Run(context.Background(), commandport.NewInvocation(true, "sh", "-c", "touch /should/not/exist"))
	if status != commandport.ExitNotExecuted {
		t.Errorf("Expected ExitNotExecuted, got %d", status)
	}
	if status.Executed() {
		t.Error("Expected dry-run not to be executed")
	}
	if reg.registered != 0 {
		t.Errorf("Expected no registration for dry-run, got %d", reg.registered)
	}

	out := transcript(q)
	if !strings.Contains(out, "[DRY-RUN] Command not executed.") {
		t.Errorf("Expected dry-run annotation, got %q", out)
	}
}

func TestDefaultRunner_Run_BinaryNotFound(t *testing.T) {
	q := defaultoutputadapter.NewQueue()
	reg := newRecordingRegistry()
	runner := &DefaultRunner{Output: q, Registry: reg}

	status := runner.Run(context.Background(), commandport.NewInvocation(false, "nonexistent-command-xyz"))
	if status != commandport.ExitNotStarted {
		t.Errorf("Expected ExitNotStarted, got %d", status)
	}
	if reg.registered != 0 {
		t.Errorf("Expected no registration, got %d", reg.registered)
	}
	if !strings.Contains(transcript(q), "Error: binary not found: nonexistent-command-xyz") {
		t.Error("Expected not-found annotation")
	}
}

func TestDefaultRunner_Run_EmptyCommand(t *testing.T) {
	q := defaultoutputadapter.NewQueue()
	runner := &DefaultRunner{Output: q}

	if status := runner.Run(context.Background(), commandport.Invocation{}); status != commandport.ExitNotStarted {
		t.Errorf("Expected ExitNotStarted, got %d", status)
	}
}

func TestDefaultRunner_Run_RegistersExactlyOnce(t *testing.T) {
	q := defaultoutputadapter.NewQueue()
	reg := newRecordingRegistry()

	var sawRunning bool
	reg.onRegister = func(h commandport.ProcessHandle) {
		sawRunning = h.IsRunning()
	}

	runner := &DefaultRunner{Output: q, Registry: reg}

	if len(reg.Snapshot()) != 0 {
		t.Fatal("Expected empty registry before start")
	}

	runner.Run(context.Background(), commandport.NewInvocation(false, "sh", "-c", "sleep 0.1"))

	if reg.registered != 1 || reg.deregistered != 1 {
		t.Errorf("Expected exactly one register/deregister, got %d/%d", reg.registered, reg.deregistered)
	}
	if !sawRunning {
		t.Error("Expected process to be running while registered")
	}
	if len(reg.Snapshot()) != 0 {
		t.Error("Expected empty registry after completion")
	}
}

func TestDefaultRunner_Run_VisibleInRegistryWhileRunning(t *testing.T) {
	q := defaultoutputadapter.NewQueue()
	reg := &defaultregistryadapter.DefaultRegistry{}
	runner := &DefaultRunner{Output: q, Registry: reg}

	done := make(chan commandport.ExitStatus, 1)
	go func() {
		done <- runner.Run(context.Background(), commandport.NewInvocation(false, "sleep", "10"))
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(reg.Snapshot()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Process never appeared in registry")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !reg.Busy() {
		t.Error("Expected registry to report busy")
	}

	if !reg.TerminateAll(context.Background()) {
		t.Error("Expected TerminateAll to stop the process")
	}

	select {
	case status := <-done:
		if status.Success() {
			t.Errorf("Expected terminated process not to succeed, got %d", status)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after TerminateAll")
	}

	if len(reg.Snapshot()) != 0 {
		t.Error("Expected registry to be empty after termination")
	}
}

func TestDefaultRunner_Run_ContextCancelTerminates(t *testing.T) {
	q := defaultoutputadapter.NewQueue()
	runner := &DefaultRunner{Output: q}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	status := runner.Run(ctx, commandport.NewInvocation(false, "sleep", "10"))

	if time.Since(start) > 5*time.Second {
		t.Error("Expected canceled run to return promptly")
	}
	if status.Success() {
		t.Errorf("Expected canceled process not to succeed, got %d", status)
	}
	if status != commandport.ExitTerminated {
		t.Errorf("Expected ExitTerminated, got %d", status)
	}
	if !status.Failed() {
		t.Error("Expected a terminated process to count as failed")
	}

	out := transcript(q)
	if !strings.Contains(out, "[Process terminated by signal: ") {
		t.Errorf("Expected termination notice, got:\n%s", out)
	}
	if strings.Contains(out, "[Process exited with code") {
		t.Errorf("Expected no exit code notice for a signalled process, got:\n%s", out)
	}
}

func TestDefaultRunnerFactory_NewRunner(t *testing.T) {
	factory := &DefaultRunnerFactory{}

	if _, err := factory.NewRunner(nil); err == nil {
		t.Error("Expected error for nil output")
	}

	runner, err := factory.NewRunner(defaultoutputadapter.NewQueue())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if runner == nil {
		t.Fatal("Expected runner to be created")
	}
}
