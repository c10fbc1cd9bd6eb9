package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/szaher/pomsmith/internal/plan"
	"github.com/szaher/pomsmith/internal/pom"
	"github.com/szaher/pomsmith/internal/recipe"
	"github.com/szaher/pomsmith/internal/state"
)

// devDebounce coalesces the bursts of write events editors produce
// into a single re-plan.
const devDebounce = 300 * time.Millisecond

func newDevCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "dev [recipe.yaml]",
		Short: "Watch the recipe and POM files, re-planning on every change",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipePath, err := resolveRecipe(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer watcher.Close()

			// Watch the recipe's directory rather than the file itself:
			// editors replace files on save, which would drop a watch on
			// the file path.
			if err := watcher.Add(filepath.Dir(recipePath)); err != nil {
				return err
			}
			if err := watchPomDirs(watcher, root); err != nil {
				return err
			}

			logger := newLogger()
			fmt.Printf("Watching %s and POM files under %s (Ctrl-C to stop)\n\n", recipePath, root)
			replan(root, recipePath)

			var timer *time.Timer
			pending := make(chan struct{}, 1)
			for {
				select {
				case <-ctx.Done():
					fmt.Println("\nStopped.")
					return nil
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if !relevantEvent(ev, recipePath) {
						continue
					}
					logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(devDebounce, func() {
						select {
						case pending <- struct{}{}:
						default:
						}
					})
				case <-pending:
					replan(root, recipePath)
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Warn("watch error", "error", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Project root to scan for pom.xml files")

	return cmd
}

// watchPomDirs registers every directory that contains a pom.xml.
func watchPomDirs(watcher *fsnotify.Watcher, root string) error {
	paths, err := pom.Discover(root)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, p := range paths {
		dir := filepath.Join(root, filepath.Dir(p))
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return nil
}

// relevantEvent reports whether a filesystem event should trigger a
// re-plan: writes to the recipe or to any pom.xml.
func relevantEvent(ev fsnotify.Event, recipePath string) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	if base == "pom.xml" {
		return true
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	recAbs, err := filepath.Abs(recipePath)
	if err != nil {
		return false
	}
	return abs == recAbs
}

// replan computes and prints a fresh plan, never aborting the watch
// loop on failure.
func replan(root, recipePath string) {
	fmt.Printf("--- %s\n", time.Now().Format(time.TimeOnly))

	rec, err := recipe.Load(recipePath)
	if err != nil {
		fmt.Printf("recipe error: %s\n\n", err)
		return
	}

	current, err := state.NewLocalBackend(stateFile).Load()
	if err != nil {
		fmt.Printf("state error: %s\n\n", err)
		return
	}

	p, err := plan.Compute(root, rec, current)
	if err != nil {
		fmt.Printf("plan error: %s\n\n", err)
		return
	}

	out := plan.FormatText(p)
	fmt.Print(out)
	if !strings.HasSuffix(out, "\n\n") {
		fmt.Println()
	}
}
