// Package runner drives a dialogue session over a terminal: AI messages
// render as markdown, typing delays animate, and the waiting node decides
// which prompt the user sees (free text, numbered options, or a field by
// field form).
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/internal/runtime"
	"github.com/parleyhq/parley/internal/tui"
	"github.com/parleyhq/parley/pkg/domain"
)

var (
	aiLabel     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userLabel   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
)

// ContentRenderer transforms AI message content before output. The default
// renders markdown to ANSI; tests substitute an identity function.
type ContentRenderer func(string) (string, error)

// Runner executes the session loop using the provided IO.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Logger   *slog.Logger
	Renderer ContentRenderer

	printed int
}

// NewRunner creates a runner on Stdin/Stdout with a markdown renderer
// sized to the terminal.
func NewRunner() *Runner {
	return &Runner{
		Input:    os.Stdin,
		Output:   os.Stdout,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Renderer: tui.NewMarkdownRenderer(terminalWidth()),
	}
}

// terminalWidth reports the stdout width, falling back to 80 when not a
// terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// Run executes the conversation until it completes, following chapter
// references automatically when the session has a loader.
func (r *Runner) Run(ctx context.Context, sess *parley.Session) error {
	if err := sess.Start(ctx); err != nil {
		return err
	}
	r.flush(sess)

	scanner := bufio.NewScanner(r.Input)
	for {
		node, waiting := sess.CurrentNode()
		if !waiting {
			followed, err := sess.Continue(ctx)
			if err != nil {
				return err
			}
			if !followed {
				fmt.Fprintln(r.Output, dimStyle.Render("— end of conversation —"))
				return nil
			}
			r.flush(sess)
			continue
		}

		if err := r.prompt(ctx, sess, node, scanner); err != nil {
			return err
		}
		r.flush(sess)
	}
}

// flush prints chat entries appended since the last call.
func (r *Runner) flush(sess *parley.Session) {
	msgs := sess.Snapshot().Messages
	for ; r.printed < len(msgs); r.printed++ {
		m := msgs[r.printed]
		if m.Speaker == domain.SpeakerUser {
			// The user just typed this; do not echo it back.
			continue
		}
		content := m.Content
		if r.Renderer != nil {
			if rendered, err := r.Renderer(content); err == nil {
				content = rendered
			}
		}
		fmt.Fprintf(r.Output, "%s %s", aiLabel.Render("ai ›"), content)
		if !strings.HasSuffix(content, "\n") {
			fmt.Fprintln(r.Output)
		}
	}
}

func (r *Runner) prompt(ctx context.Context, sess *parley.Session, node domain.Node, scanner *bufio.Scanner) error {
	switch node.Kind {
	case domain.KindChoice:
		return r.promptChoice(ctx, sess, node, scanner)
	case domain.KindMultiInput:
		return r.promptForm(ctx, sess, node, scanner)
	default:
		return r.promptValue(ctx, sess, node, scanner)
	}
}

func (r *Runner) promptValue(ctx context.Context, sess *parley.Session, node domain.Node, scanner *bufio.Scanner) error {
	if node.HelperText != "" {
		fmt.Fprintln(r.Output, dimStyle.Render(node.HelperText))
	}
	for {
		fmt.Fprint(r.Output, r.inputMark(node.Placeholder))
		line, err := readLine(scanner)
		if err != nil {
			return err
		}

		err = sess.Submit(ctx, line)
		var verr *runtime.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(r.Output, errorStyle.Render(verr.Message))
			continue
		}
		return err
	}
}

func (r *Runner) promptChoice(ctx context.Context, sess *parley.Session, node domain.Node, scanner *bufio.Scanner) error {
	for i, opt := range node.Options {
		fmt.Fprintf(r.Output, "  %s %s\n", optionStyle.Render(fmt.Sprintf("%d.", i+1)), opt.Label)
	}
	for {
		fmt.Fprint(r.Output, r.inputMark("choose an option"))
		line, err := readLine(scanner)
		if err != nil {
			return err
		}

		optionID := strings.TrimSpace(line)
		if idx, convErr := strconv.Atoi(optionID); convErr == nil && idx >= 1 && idx <= len(node.Options) {
			optionID = node.Options[idx-1].ID
		}

		err = sess.Choose(ctx, optionID)
		var uerr *domain.UsageError
		if errors.As(err, &uerr) && uerr.Reason != "" {
			fmt.Fprintln(r.Output, errorStyle.Render("pick one of the listed options"))
			continue
		}
		return err
	}
}

func (r *Runner) promptForm(ctx context.Context, sess *parley.Session, node domain.Node, scanner *bufio.Scanner) error {
	values := make(map[string]any, len(node.Fields))
	for _, field := range node.Fields {
		for {
			label := field.Label
			if field.Required {
				label += " *"
			}
			fmt.Fprint(r.Output, r.inputMark(label))
			if field.InputKind == domain.InputSelect && len(field.Options) > 0 {
				var labels []string
				for _, o := range field.Options {
					labels = append(labels, o.Label)
				}
				fmt.Fprintf(r.Output, "%s ", dimStyle.Render("("+strings.Join(labels, " / ")+")"))
			}

			line, err := readLine(scanner)
			if err != nil {
				return err
			}
			if field.Required && strings.TrimSpace(line) == "" {
				fmt.Fprintln(r.Output, errorStyle.Render(field.Label+" is required"))
				continue
			}
			values[field.SetsVariable] = line
			break
		}
	}
	return sess.SubmitForm(ctx, values)
}

func (r *Runner) inputMark(hint string) string {
	mark := userLabel.Render("you ›") + " "
	if hint != "" {
		mark += dimStyle.Render("("+hint+") ")
	}
	return mark
}

func readLine(scanner *bufio.Scanner) (string, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return scanner.Text(), nil
}
