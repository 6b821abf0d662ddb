package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/chaz8081/validate-marketplace/internal/engine"
	"github.com/chaz8081/validate-marketplace/internal/logger"
	"github.com/chaz8081/validate-marketplace/internal/manifest"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var watchDebounce int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run validation whenever plugin files change",
	Long: `Validate once, then watch the plugin, skills and agents directories and
validate again after every change. Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchDebounce < 0 {
			return errors.Errorf("debounce time cannot be negative: %d", watchDebounce)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cmd.OutOrStdout(), current, time.Duration(watchDebounce)*time.Millisecond)
	},
}

func init() {
	watchCmd.Flags().IntVarP(&watchDebounce, "debounce", "d", 300, "debounce time in milliseconds for file change events")
	rootCmd.AddCommand(watchCmd)
}

// runWatch validates s once and then after every debounced burst of file
// events, until ctx is done.
func runWatch(ctx context.Context, out io.Writer, s *session, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}
	defer watcher.Close()

	if err := syncWatches(ctx, watcher, s); err != nil {
		return err
	}

	runValidate(ctx, out, s)
	fmt.Fprintln(out, "\nWatching for file changes... Press Ctrl+C to stop")

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	var last string
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// new skill directories need their own watch
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, ev.Name); err != nil {
						logger.G(ctx).WithError(err).WithField("directory", ev.Name).Warn("could not watch new directory")
					}
				}
			}
			logger.G(ctx).WithField("file", ev.Name).WithField("operation", ev.Op.String()).Debug("file change detected")
			last = ev.Name
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Warn("error watching files")
		case <-timer.C:
			rel, err := filepath.Rel(s.Root, last)
			if err != nil {
				rel = last
			}
			fmt.Fprintf(out, "\nChange detected: %s\n\n", filepath.ToSlash(rel))
			runValidate(ctx, out, s)
			// plugin.json may now name another agents directory
			if err := syncWatches(ctx, watcher, s); err != nil {
				logger.G(ctx).WithError(err).Warn("could not update watched directories")
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// syncWatches adds every directory watchDirs reports for s that the
// watcher does not watch yet, including a directory-mode agents path read
// from the current plugin.json.
func syncWatches(ctx context.Context, w *fsnotify.Watcher, s *session) error {
	var extra []string
	if m, err := manifest.LoadPlugin(s.PluginPath(manifest.PluginFilename)); err == nil && m.Agents.Mode == manifest.AgentsDirectory {
		extra = append(extra, m.Agents.Dir)
	}
	dirs, err := watchDirs(s.Root, s.Config.Layout(), extra...)
	if err != nil {
		return err
	}

	watched := make(map[string]bool)
	for _, p := range w.WatchList() {
		watched[p] = true
	}
	for _, d := range dirs {
		if watched[d] {
			continue
		}
		logger.G(ctx).WithField("directory", d).Debug("adding directory to watcher")
		if err := w.Add(d); err != nil {
			return errors.Wrapf(err, "watch %s", d)
		}
	}
	return nil
}

// watchDirs returns the existing directories to watch: the plugin directory,
// every directory of the skills tree, the agents directory and any extra
// directories relative to root. The result is sorted and free of duplicates.
func watchDirs(root string, layout engine.Layout, extra ...string) ([]string, error) {
	seen := make(map[string]bool)
	add := func(rel string) {
		if rel == "" {
			return
		}
		p := filepath.Join(root, filepath.FromSlash(rel))
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			seen[p] = true
		}
	}

	add(manifest.NormalizeEntry(layout.PluginDir))
	add(manifest.NormalizeEntry(layout.AgentsDir))
	for _, e := range extra {
		add(manifest.NormalizeEntry(e))
	}

	skills := filepath.Join(root, filepath.FromSlash(manifest.NormalizeEntry(layout.SkillsDir)))
	err := filepath.WalkDir(skills, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			seen[p] = true
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walk skills")
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
