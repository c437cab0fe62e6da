package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"taskchat-backend/internal/widget"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		server string
		userID string
		token  string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the task assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			client := http.DefaultClient
			if token != "" {
				client = &http.Client{Transport: bearerTransport{token: token, next: http.DefaultTransport}}
			}

			endpoint := strings.TrimRight(server, "/") + "/api/ai/chat"
			return run(ctx, widget.New(endpoint, userID, client), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "assistant API base URL")
	cmd.Flags().StringVar(&userID, "user", os.Getenv("TASKCHAT_USER"), "user id whose tasks ground the chat")
	cmd.Flags().StringVar(&token, "token", os.Getenv("TASKCHAT_TOKEN"), "bearer token when the API requires auth")

	return cmd
}

// run reads one prompt per line and prints each reply as it streams in.
func run(ctx context.Context, w *widget.Widget, in io.Reader, out io.Writer) error {
	printer := &replyPrinter{out: out}
	w.OnChange = printer.render
	w.Open()
	defer w.Close()

	fmt.Fprintln(out, "Ask about your tasks (Ctrl+D to quit).")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		printer.reset(w.Len())
		w.SetInput(scanner.Text())
		if err := w.Submit(ctx); err != nil && !errors.Is(err, widget.ErrEmptyInput) {
			// the apology is already in the transcript
			fmt.Fprintln(os.Stderr, "chat:", err)
		}
		fmt.Fprintln(out)

		if ctx.Err() != nil {
			return nil
		}
	}
}

// replyPrinter writes only the part of the newest assistant messages not
// printed yet.
type replyPrinter struct {
	out     io.Writer
	from    int
	printed map[string]int
}

func (p *replyPrinter) reset(from int) {
	p.from = from
	p.printed = make(map[string]int)
}

func (p *replyPrinter) render(s widget.Snapshot) {
	if p.printed == nil {
		return
	}
	for i := p.from; i < len(s.Messages); i++ {
		m := s.Messages[i]
		if m.Role != widget.RoleAssistant {
			continue
		}
		done, seen := p.printed[m.ID]
		if !seen && len(p.printed) > 0 {
			fmt.Fprintln(p.out)
		}
		if len(m.Content) > done {
			fmt.Fprint(p.out, m.Content[done:])
			p.printed[m.ID] = len(m.Content)
		}
	}
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(r)
}
