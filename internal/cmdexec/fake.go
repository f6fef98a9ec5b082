package cmdexec

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake is a scripted Runner for tests. Keyed by the command name plus args
// joined with spaces; unscripted commands report "not found" like a host
// without the tool installed.
type Fake struct {
	mu      sync.Mutex
	Outputs map[string]Output
	Errs    map[string]error
	Paths   map[string]string // LookPath answers; missing key means not installed
	Calls   []string
}

func NewFake() *Fake {
	return &Fake{
		Outputs: make(map[string]Output),
		Errs:    make(map[string]error),
		Paths:   make(map[string]string),
	}
}

func (f *Fake) key(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

func (f *Fake) Run(_ context.Context, name string, args ...string) (Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(name, args)
	f.Calls = append(f.Calls, k)
	if err, ok := f.Errs[k]; ok {
		return Output{}, err
	}
	if out, ok := f.Outputs[k]; ok {
		return out, nil
	}
	return Output{}, fmt.Errorf("run %s: executable file not found in $PATH", name)
}

func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Paths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}

// CallCount returns how many commands were issued, for asserting that a code
// path never touched the host.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
