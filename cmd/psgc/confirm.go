package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// promptConfirm asks a yes/no question on out and reads the answer from in.
// Anything but y/yes declines, including EOF.
func promptConfirm(in io.Reader, out io.Writer) func(prompt string) bool {
	reader := bufio.NewReader(in)
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}
