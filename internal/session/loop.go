package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Prompt is printed before each line of input
const Prompt = "> "

// RunLines reads commands from in until quit, end of input or ctx is done.
// Each value on reloads triggers a scene reload between commands.
func (s *Session) RunLines(ctx context.Context, in io.Reader, out io.Writer, reloads <-chan struct{}) error {
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-readCtx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprint(out, Prompt)
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return nil

		case <-reloads:
			n, err := s.Reload()
			if err != nil {
				fmt.Fprintf(out, "\nerror: %v\n%s", err, Prompt)
			} else {
				fmt.Fprintf(out, "\nscene file changed, reloaded %d scenes\n%s", n, Prompt)
			}

		case line := <-lines:
			result := s.ExecuteLine(line)
			if text := result.Text(); text != "" {
				fmt.Fprintln(out, text)
			}
			if result.Quit {
				return nil
			}
			fmt.Fprint(out, Prompt)

		case err := <-readErr:
			s.Close()
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		}
	}
}
