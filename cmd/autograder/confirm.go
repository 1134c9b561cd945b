package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	appErr "autograder/pkg/errors"

	"github.com/chzyer/readline"
)

// confirmUpload asks on the terminal before any assessment is posted.
// Interrupt and end of input count as "no".
func confirmUpload(ctx context.Context, records int, courseID, association string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, appErr.Wrapf(err, appErr.Canceled, "upload canceled")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt: fmt.Sprintf("post %d assessments to course %s, rubric association %s? [y/N] ",
			records, courseID, association),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return false, appErr.Wrapf(err, appErr.InternalError, "open prompt failed")
	}
	defer rl.Close()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, appErr.Wrapf(err, appErr.InternalError, "read answer failed")
	}
	return isYes(line), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
