package play

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fsnotify/fsnotify"
)

var clipboardReadAll = clipboard.ReadAll

// normalize folds newlines, tabs and repeated blanks into single spaces.
func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// openSource picks the text source from params. hold is true for sources that
// never run dry on their own.
func openSource(ctx context.Context, params *Params, stdin io.Reader) (<-chan message, bool, error) {
	switch {
	case params.Watch != "":
		src, err := watchFile(ctx, params.Watch, params.Repeat)
		return src, true, err
	case params.Clip:
		text, err := clipboardReadAll()
		if err != nil {
			return nil, false, fmt.Errorf("failed to read clipboard: %w", err)
		}
		return single(message{text: normalize(text), repeat: params.Repeat, strict: true}), false, nil
	case len(params.Text) > 0:
		text := normalize(strings.Join(params.Text, " "))
		return single(message{text: text, repeat: params.Repeat, strict: true}), false, nil
	default:
		return readLines(ctx, stdin, params.Repeat), false, nil
	}
}

func single(msg message) <-chan message {
	ch := make(chan message, 1)
	ch <- msg
	close(ch)
	return ch
}

// readLines sends every non-blank line as its own message.
func readLines(ctx context.Context, r io.Reader, repeat bool) <-chan message {
	ch := make(chan message)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			text := normalize(scanner.Text())
			if text == "" {
				continue
			}
			select {
			case ch <- message{text: text, repeat: repeat}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Error("failed to read stdin", "error", err)
		}
	}()
	return ch
}

// watchFile sends the file contents now and again after every write to it.
func watchFile(ctx context.Context, path string, repeat bool) (<-chan message, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	initial, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	ch := make(chan message, 1)
	ch <- message{text: normalize(string(initial)), repeat: repeat}

	go func() {
		defer close(ch)
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				data, err := os.ReadFile(abs)
				if err != nil {
					slog.Warn("failed to read watched file", "file", abs, "error", err)
					continue
				}
				slog.Debug("watched file changed", "file", abs)
				select {
				case ch <- message{text: normalize(string(data)), repeat: repeat}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("watch error", "error", err)
			}
		}
	}()
	return ch, nil
}
