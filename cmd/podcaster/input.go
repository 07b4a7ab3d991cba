package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"podcaster/internal/config"
	"podcaster/internal/queue"
)

const thoughtPrompt = "Enter your biblical thought (end with Ctrl+D):"

var errNoThought = errors.New("no thought provided")

// thoughtInput is a thought read from a file, the arguments or stdin.
type thoughtInput struct {
	Text string
	Kind queue.SourceKind
	Ref  string
}

func readThought(cmd *cobra.Command, file string, args []string) (thoughtInput, error) {
	if file = strings.TrimSpace(file); file != "" {
		path, err := config.ExpandPath(file)
		if err != nil {
			return thoughtInput{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return thoughtInput{}, fmt.Errorf("read thought: %w", err)
		}
		return finishThought(string(data), queue.SourceFile, filepath.Base(path))
	}
	if len(args) > 0 {
		return finishThought(strings.Join(args, " "), queue.SourceStdin, "args")
	}

	in := cmd.InOrStdin()
	if isTerminal(in) {
		fmt.Fprintln(cmd.OutOrStdout(), thoughtPrompt)
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return thoughtInput{}, fmt.Errorf("read stdin: %w", err)
	}
	return finishThought(string(data), queue.SourceStdin, "stdin")
}

func finishThought(text string, kind queue.SourceKind, ref string) (thoughtInput, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return thoughtInput{}, errNoThought
	}
	return thoughtInput{Text: text, Kind: kind, Ref: ref}, nil
}

// enqueueThought stores the thought, returning the existing item for a
// duplicate. The bool reports whether the item was newly created.
func enqueueThought(cmd *cobra.Command, store *queue.Store, input thoughtInput) (*queue.Item, bool, error) {
	item, err := store.NewItem(cmd.Context(), input.Kind, input.Ref, input.Text)
	switch {
	case errors.Is(err, queue.ErrDuplicate):
		return item, false, nil
	case err != nil:
		return nil, false, err
	}
	return item, true, nil
}
