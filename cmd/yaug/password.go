// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaug/yaug/pkg/secret"
)

// readPassword reads a password from the terminal without echo, asking
// twice when confirm is set. When stdin is not a terminal it reads one line
// instead, so passwords can be piped in.
func readPassword(cmd *cobra.Command, prompt string, confirm bool) (secret.Secret[string], error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return readTerminalPassword(cmd, int(f.Fd()), prompt, confirm)
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return secret.Secret[string]{}, oops.Code("CLI_READ_PASSWORD_FAILED").Wrap(err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return secret.Secret[string]{}, oops.Code("CLI_EMPTY_PASSWORD").Errorf("no password on stdin")
	}
	return secret.New(line), nil
}

func readTerminalPassword(cmd *cobra.Command, fd int, prompt string, confirm bool) (secret.Secret[string], error) {
	first, err := promptOnce(cmd, fd, prompt)
	if err != nil {
		return secret.Secret[string]{}, err
	}
	if !confirm {
		return first, nil
	}
	second, err := promptOnce(cmd, fd, "Repeat password: ")
	if err != nil {
		return secret.Secret[string]{}, err
	}
	if first.Expose() != second.Expose() {
		return secret.Secret[string]{}, oops.Code("CLI_PASSWORD_MISMATCH").Errorf("passwords do not match")
	}
	return first, nil
}

func promptOnce(cmd *cobra.Command, fd int, prompt string) (secret.Secret[string], error) {
	cmd.PrintErr(prompt)
	raw, err := term.ReadPassword(fd)
	cmd.PrintErrln()
	if err != nil {
		return secret.Secret[string]{}, oops.Code("CLI_READ_PASSWORD_FAILED").Wrap(err)
	}
	return secret.New(string(raw)), nil
}
