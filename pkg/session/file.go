package session

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/thinkingspace/pkg/errors"
)

// DefaultDebounce collapses the burst of events an editor produces when it
// saves a file.
const DefaultDebounce = 200 * time.Millisecond

// FileWatcher reports when a document file changes on disk.
//
// The parent directory is watched rather than the file itself so that
// editors which save by rename are still seen.
type FileWatcher struct {
	path     string
	debounce time.Duration
	logger   *log.Logger
	watcher  *fsnotify.Watcher

	changes chan string
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// WatchFile starts watching path. A non-positive debounce uses
// [DefaultDebounce].
func WatchFile(path string, debounce time.Duration, logger *log.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "watch %s", path)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "watch %s", filepath.Dir(abs))
	}
	fw := &FileWatcher{
		path:     abs,
		debounce: debounce,
		logger:   logger,
		watcher:  w,
		changes:  make(chan string, 1),
		done:     make(chan struct{}),
	}
	fw.wg.Add(1)
	go fw.loop()
	logger.Debug("watching", "path", abs)
	return fw, nil
}

// Path returns the absolute path being watched.
func (fw *FileWatcher) Path() string { return fw.path }

// Changes delivers the watched path after each settled change.
func (fw *FileWatcher) Changes() <-chan string { return fw.changes }

func (fw *FileWatcher) loop() {
	defer fw.wg.Done()
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-fw.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != fw.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fw.logger.Debug("file changed", "path", ev.Name, "op", ev.Op)
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case fw.changes <- fw.path:
			default:
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", "path", fw.path, "err", err)
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	fw.wg.Wait()
	return err
}
