package sources

import (
	"context"
	"fmt"
	"strings"
)

// call is one recorded fake command invocation.
type call struct {
	dir  string
	name string
	args []string
}

func (c call) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// fakeRunner scripts CommandRunner responses keyed by the joined command
// line and records every invocation.
type fakeRunner struct {
	responses map[string]fakeResponse
	calls     []call
}

type fakeResponse struct {
	out string
	err error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]fakeResponse{}}
}

func (f *fakeRunner) on(cmdline, out string, err error) {
	f.responses[cmdline] = fakeResponse{out: out, err: err}
}

func (f *fakeRunner) run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	c := call{dir: dir, name: name, args: args}
	f.calls = append(f.calls, c)
	if resp, ok := f.responses[c.String()]; ok {
		return []byte(resp.out), resp.err
	}
	return nil, fmt.Errorf("unscripted command: %s", c.String())
}

func (f *fakeRunner) called(cmdline string) bool {
	for _, c := range f.calls {
		if c.String() == cmdline {
			return true
		}
	}
	return false
}

// foundLook is a lookPathFunc that finds every binary.
func foundLook(name string) (string, error) { return "/usr/bin/" + name, nil }

// missingLook is a lookPathFunc that finds nothing.
func missingLook(name string) (string, error) { return "", fmt.Errorf("%s not found", name) }
