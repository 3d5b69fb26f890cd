// Command library watches a small library catalog and prints every change that reaches its top-level sections.
//
// Book copies that are lent out are held by the catalog and by the reader at the same time,
// so a change to such a copy is reported for both sections.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/AntonStoeckl/watchable-go/watchable"
)

var (
	errUnknownBookCopy = errors.New("unknown book copy")
	errUnknownReader   = errors.New("unknown reader")
)

// Config holds the command line settings.
type Config struct {
	Verbose   bool
	PrintJSON bool
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Library example failed: %v", err)
	}
}

func parseFlags() Config {
	var (
		verbose   = flag.Bool("verbose", false, "Log every watchable operation at debug level")
		printJSON = flag.Bool("json", true, "Print the final catalog as JSON")
	)

	flag.Parse()

	return Config{
		Verbose:   *verbose,
		PrintJSON: *printJSON,
	}
}

func run() error {
	cfg := parseFlags()

	w, err := newWatcher(cfg)
	if err != nil {
		return fmt.Errorf("failed to create Watcher: %w", err)
	}

	library, err := w.Watch(map[string]any{
		"circulation": map[string]any{
			"copy-1": map[string]any{"title": "Sketch of the Analytical Engine", "condition": "good"},
			"copy-2": map[string]any{"title": "On Computable Numbers", "condition": "good"},
		},
		"readers": map[string]any{
			"reader-1": map[string]any{"name": "Ada", "borrowed": map[string]any{}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to watch the catalog: %w", err)
	}

	watching := false
	for _, section := range []string{"circulation", "readers"} {
		library.AddListener(section, func(_, _ any, key watchable.Key) {
			if watching {
				log.Printf("📚 %v changed", key)
			}
		})
	}
	watching = true

	if err := lendBookCopy(library, "copy-1", "reader-1"); err != nil {
		return err
	}

	if err := markWorn(library, "copy-1"); err != nil {
		return err
	}

	if err := returnBookCopy(library, "copy-1", "reader-1"); err != nil {
		return err
	}

	if !cfg.PrintJSON {
		return nil
	}

	data, err := library.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to render the catalog: %w", err)
	}

	fmt.Println(string(data))

	return nil
}

func newWatcher(cfg Config) (*watchable.Watcher, error) {
	options := []watchable.Option{watchable.WithName("library")}

	if cfg.Verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		options = append(options, watchable.WithLogger(logger))
	}

	return watchable.NewWatcher(options...)
}

func lendBookCopy(library *watchable.Node, copyID, readerID string) error {
	bookCopy, err := find(library, errUnknownBookCopy, "circulation", copyID)
	if err != nil {
		return err
	}

	borrowed, err := find(library, errUnknownReader, "readers", readerID, "borrowed")
	if err != nil {
		return err
	}

	log.Printf("📖 lending %s to %s", copyID, readerID)

	if err := bookCopy.Set("lentTo", readerID); err != nil {
		return err
	}

	return borrowed.Set(copyID, bookCopy)
}

func markWorn(library *watchable.Node, copyID string) error {
	bookCopy, err := find(library, errUnknownBookCopy, "circulation", copyID)
	if err != nil {
		return err
	}

	log.Printf("🩹 %s got worn", copyID)

	return bookCopy.Set("condition", "worn")
}

func returnBookCopy(library *watchable.Node, copyID, readerID string) error {
	bookCopy, err := find(library, errUnknownBookCopy, "circulation", copyID)
	if err != nil {
		return err
	}

	borrowed, err := find(library, errUnknownReader, "readers", readerID, "borrowed")
	if err != nil {
		return err
	}

	log.Printf("📥 %s returned %s", readerID, copyID)

	borrowed.Delete(copyID)
	bookCopy.Delete("lentTo")

	return nil
}

// find walks down the given map keys and fails with notFound when a step is not a node.
func find(n *watchable.Node, notFound error, path ...string) (*watchable.Node, error) {
	current := n
	for _, key := range path {
		next, ok := current.Get(key).(*watchable.Node)
		if !ok {
			return nil, fmt.Errorf("%w: %s", notFound, key)
		}

		current = next
	}

	return current, nil
}
