package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"chatclone/internal/models"
	"chatclone/internal/services"
)

const (
	colorHuman = "\u001b[94m"
	colorAI    = "\u001b[93m"
	colorReset = "\u001b[0m"
)

// repl reads prompts from in until EOF or ctx is cancelled.
func repl(ctx context.Context, chat *services.ChatService, sessionID uuid.UUID, apiKey string, in io.Reader, out io.Writer) error {
	history, err := chat.History(sessionID)
	if err != nil {
		return err
	}
	printMessages(out, history)

	// stdin reader goroutine -> lines into channel
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprintf(out, "%sYou%s: ", colorHuman, colorReset)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nExiting...")
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = l
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/reset":
			history, err := chat.Reset(sessionID)
			if err != nil {
				return err
			}
			printMessages(out, history)
			continue
		case "/history":
			history, err := chat.History(sessionID)
			if err != nil {
				return err
			}
			printMessages(out, history)
			continue
		}

		resp, err := chat.Submit(ctx, sessionID, line, apiKey)
		if err != nil {
			var verr *services.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintln(out, verr.Error())
				continue
			}
			// Surface the failure and keep the session going.
			fmt.Fprintf(out, "出错了：%v\n", err)
			continue
		}
		printMessage(out, models.Message{Role: models.RoleAI, Content: resp.Reply})
	}
}

func printMessages(out io.Writer, msgs []models.Message) {
	for _, m := range msgs {
		printMessage(out, m)
	}
}

func printMessage(out io.Writer, m models.Message) {
	if m.Role == models.RoleHuman {
		fmt.Fprintf(out, "%sYou%s: %s\n", colorHuman, colorReset, m.Content)
		return
	}
	fmt.Fprintf(out, "%sAI%s: %s\n", colorAI, colorReset, m.Content)
}
