package common

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"teo-client-go/internal/agent"
)

// ConsolePrompter shows the message to be signed and waits for y/N.
func ConsolePrompter(in io.Reader, out io.Writer) agent.Prompter {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, message, address string) (bool, error) {
		fmt.Fprintf(out, "\nSign this message with %s?\n\n", address)
		fmt.Fprintf(out, "  %s\n\n", strings.ReplaceAll(message, "\n", "\n  "))
		fmt.Fprint(out, "Approve [y/N]: ")

		answer := make(chan string, 1)
		errs := make(chan error, 1)
		go func() {
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				errs <- err
				return
			}
			answer <- strings.ToLower(strings.TrimSpace(line))
		}()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case err := <-errs:
			if err == io.EOF {
				return false, nil
			}
			return false, err
		case a := <-answer:
			return a == "y" || a == "yes", nil
		}
	}
}
