package runner

import (
	"context"
	"strings"
	"sync"
)

// Call records a single invocation of a command.
type Call struct {
	Name string
	Args []string
}

func (c Call) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Response is a pre-configured response for a command pattern.
type Response struct {
	Stdout string
	Stderr string
	Err    error
}

// FakeRunner records command calls and returns pre-configured responses.
// A key may hold a sequence of responses; each call consumes one and the
// last one repeats.
type FakeRunner struct {
	mu        sync.Mutex
	Calls     []Call
	responses map[string][]Response // key: "name arg1 arg2..."
	fallback  Response
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string][]Response),
	}
}

// SetResponse configures the response for a command string.
func (f *FakeRunner) SetResponse(cmd string, resp Response) {
	f.SetSequence(cmd, resp)
}

// SetSequence configures successive responses for a command string.
func (f *FakeRunner) SetSequence(cmd string, resps ...Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmd] = resps
}

// SetFallback sets the default response for unmatched commands.
func (f *FakeRunner) SetFallback(resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = resp
}

// Run records the call and returns the most specific matching response:
// the full command line, then name plus first argument, then name alone.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := Call{Name: name, Args: args}
	f.Calls = append(f.Calls, call)

	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	keys := []string{call.String()}
	if len(args) > 0 {
		keys = append(keys, name+" "+args[0])
	}
	keys = append(keys, name)

	for _, key := range keys {
		if resp, ok := f.next(key); ok {
			return resp.Stdout, resp.Stderr, resp.Err
		}
	}
	return f.fallback.Stdout, f.fallback.Stderr, f.fallback.Err
}

func (f *FakeRunner) next(key string) (Response, bool) {
	seq, ok := f.responses[key]
	if !ok || len(seq) == 0 {
		return Response{}, false
	}
	resp := seq[0]
	if len(seq) > 1 {
		f.responses[key] = seq[1:]
	}
	return resp, true
}

// Called returns true if a command matching the prefix was recorded.
func (f *FakeRunner) Called(prefix string) bool {
	return f.CallCount(prefix) > 0
}

// CallCount returns the number of times a command matching the prefix was called.
func (f *FakeRunner) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if strings.HasPrefix(c.String(), prefix) {
			n++
		}
	}
	return n
}

// Reset clears all recorded calls.
func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

var _ CommandRunner = (*FakeRunner)(nil)
var _ CommandRunner = (*OSRunner)(nil)
