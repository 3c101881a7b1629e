// Copyright Nora Vasquez, 2026. All rights reserved.

package download

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// executor abstracts external tool execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// toolAvailable reports whether an external binary exists on PATH,
// wrapping the lookup error with the tool name for the method-chain
// warning output.
func toolAvailable(exec executor, bin string) error {
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("%s not found on PATH: %w", bin, err)
	}
	return nil
}
