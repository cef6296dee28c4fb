package fakes

import (
	"context"
	"io"
	"strings"
)

// ExecutedCommand records one invocation through the fake executor.
type ExecutedCommand struct {
	Name  string
	Args  []string
	Input string
}

// FakeCommandExecutor scripts command execution for tests.
type FakeCommandExecutor struct {
	// Responses maps "name arg1 arg2 ..." prefixes to scripted stdout. The
	// longest matching prefix wins.
	Responses map[string]string
	// Err, when set, is returned by every call together with Stderr.
	Err    error
	Stderr string
	// Commands records every invocation in order.
	Commands []ExecutedCommand
}

// NewFakeCommandExecutor creates an executor with no scripted responses.
func NewFakeCommandExecutor() *FakeCommandExecutor {
	return &FakeCommandExecutor{Responses: make(map[string]string)}
}

func (f *FakeCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return f.ExecuteInput(ctx, nil, name, args...)
}

func (f *FakeCommandExecutor) ExecuteInput(_ context.Context, input io.Reader, name string, args ...string) ([]byte, []byte, error) {
	cmd := ExecutedCommand{Name: name, Args: args}
	if input != nil {
		data, err := io.ReadAll(input)
		if err != nil {
			return nil, nil, err
		}
		cmd.Input = string(data)
	}
	f.Commands = append(f.Commands, cmd)

	if f.Err != nil {
		return nil, []byte(f.Stderr), f.Err
	}

	full := strings.Join(append([]string{name}, args...), " ")
	var bestKey string
	for key := range f.Responses {
		if strings.HasPrefix(full, key) && len(key) > len(bestKey) {
			bestKey = key
		}
	}
	if bestKey != "" {
		return []byte(f.Responses[bestKey]), nil, nil
	}
	return nil, nil, nil
}
