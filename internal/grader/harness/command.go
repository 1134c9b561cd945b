package harness

import (
	"strings"

	appErr "autograder/pkg/errors"

	"github.com/google/shlex"
)

// Command is the program and argument list of the external test command.
type Command struct {
	Program string
	Args    []string
}

// ParseCommand tokenizes a command line with shell quoting rules.
func ParseCommand(line string) (Command, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return Command{}, appErr.Wrapf(err, appErr.InvalidCommand, "parse test command failed")
	}
	if len(tokens) == 0 {
		return Command{}, appErr.New(appErr.InvalidCommand).WithMessage("test command is empty")
	}
	return Command{Program: tokens[0], Args: tokens[1:]}, nil
}

// String renders the command for display.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}
