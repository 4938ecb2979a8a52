package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/targetedentropy/trashbag/command"
)

// console runs operator commands read line by line from in until ctx is done.
// The end of input ends only the console, not the session.
func (b *Bot) console(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- sc.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err != nil {
				return fmt.Errorf("couldn't read console: %w", err)
			}
			b.log.InfoContext(ctx, "console closed")
			return nil
		case line := <-lines:
			call := command.Invocation{Source: command.Console, Text: line, Authorized: true}
			if name := command.Do(ctx, b.robo, &call); name == "" {
				b.log.DebugContext(ctx, "no console command", slog.String("text", line))
			}
		}
	}
}
