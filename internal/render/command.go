package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single command invocation.
const DefaultTimeout = 10 * time.Second

// Command renders by running an executable that takes the TeX as its last
// argument and writes SVG to stdout, such as MathJax's tex2svg.
type Command struct {
	Name string
	Path string
	Args []string
	// InlineArgs are added for inline math.
	InlineArgs []string
	// WrapDisplay renders display math inside \displaylines so that \\
	// breaks lines.
	WrapDisplay bool
	Timeout     time.Duration
}

// MathJax is the default command backend.
func MathJax() *Command {
	return &Command{
		Name:        DefaultBackend,
		Path:        "tex2svg",
		InlineArgs:  []string{"--inline"},
		WrapDisplay: true,
	}
}

// Arguments builds the argument list for one invocation.
func (c *Command) Arguments(tex string, display bool) []string {
	args := append([]string(nil), c.Args...)
	if display {
		if c.WrapDisplay {
			tex = `\displaylines{` + tex + `}`
		}
	} else {
		args = append(args, c.InlineArgs...)
	}
	return append(args, tex)
}

func (c *Command) Render(ctx context.Context, tex string, display bool) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Path, c.Arguments(tex, display)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s: %v: %s", ErrRender, c.Name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
