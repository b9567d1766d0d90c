package manager

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// startWatcher reloads the guard data buffer when the file changes. Events
// are debounced because editors and atomic-rename writers emit several
// events per save. The watch covers the parent directory so rename-based
// replacement keeps working after the original inode disappears.
func (g *Gatekeeper) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(g.cfg.GuardData.Path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	g.watcher = watcher

	g.wg.Add(1)
	go g.watchLoop()

	g.logger.Info("watching guard data", "path", g.cfg.GuardData.Path)
	return nil
}

func (g *Gatekeeper) watchLoop() {
	defer g.wg.Done()

	target := filepath.Clean(g.cfg.GuardData.Path)
	debounce := g.cfg.GuardData.DebounceInterval

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-g.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-g.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerCh = timer.C
			} else {
				timer.Reset(debounce)
			}

		case err, ok := <-g.watcher.Errors:
			if !ok {
				return
			}
			g.logger.Warn("guard data watcher error", "error", err)

		case <-timerCh:
			if err := g.LoadGuardData(); err != nil {
				// Keep the last good configuration.
				g.logger.Error("guard data reload failed", "error", err)
			}
		}
	}
}
