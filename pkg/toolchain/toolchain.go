// Package toolchain registers a compiler target with the host toolchain.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ErrRegistrationFailed matches every *RegistrationError through errors.Is.
var ErrRegistrationFailed = errors.New("toolchain: target registration failed")

// Registrar makes a target triple available to the compiler.
type Registrar interface {
	Register(ctx context.Context, target string) error
}

// RegistrationError carries the command and its output.
type RegistrationError struct {
	Target string
	Cmd    string
	Output string
	Err    error
}

func (e *RegistrationError) Error() string {
	msg := fmt.Sprintf("toolchain: %s: %v", e.Cmd, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *RegistrationError) Is(target error) bool { return target == ErrRegistrationFailed }

func (e *RegistrationError) Unwrap() error { return e.Err }

// CommandRegistrar runs Program Args... <target>.
type CommandRegistrar struct {
	Program string
	Args    []string
}

// Rustup returns the registrar running "rustup target add <target>".
func Rustup() *CommandRegistrar {
	return &CommandRegistrar{Program: "rustup", Args: []string{"target", "add"}}
}

// ParseCommand splits a command line such as "rustup target add" on white
// space.
func ParseCommand(line string) (*CommandRegistrar, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, errors.New("toolchain: empty registration command")
	}
	return &CommandRegistrar{Program: parts[0], Args: parts[1:]}, nil
}

func (r *CommandRegistrar) String() string {
	return strings.Join(append([]string{r.Program}, r.Args...), " ")
}

// Register runs the command and waits for it. A non-zero exit or a
// missing program is a *RegistrationError.
func (r *CommandRegistrar) Register(ctx context.Context, target string) error {
	if target == "" {
		return &RegistrationError{Cmd: r.String(), Err: errors.New("empty target")}
	}
	args := append(append([]string(nil), r.Args...), target)
	cmd := exec.CommandContext(ctx, r.Program, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	line := r.String() + " " + target
	glog.V(1).Infof("toolchain: running %s", line)
	if err := cmd.Run(); err != nil {
		return &RegistrationError{Target: target, Cmd: line, Output: out.String(), Err: err}
	}
	glog.V(2).Infof("toolchain: %s", strings.TrimSpace(out.String()))
	return nil
}

// Nop skips registration.
type Nop struct{}

func (Nop) Register(context.Context, string) error { return nil }
