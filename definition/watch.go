package definition

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// Watcher reloads one definition file whenever it changes. Bursts of events are
// coalesced so that a definition is only read once writing has settled. Errors
// are dropped while an earlier one is still unread.
type Watcher struct {
	watcher     *fsnotify.Watcher
	path        string
	Definitions chan Definition
	Errors      chan error
	closeCh     chan struct{}
	once        sync.Once
}

// Watch watches filename. Its directory is watched rather than the file itself
// so that editors replacing the file are noticed.
func Watch(filename string) (*Watcher, error) {
	path, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	watcher := &Watcher{
		watcher:     w,
		path:        path,
		Definitions: make(chan Definition, 1),
		Errors:      make(chan error, 1),
		closeCh:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Errors)
	defer close(w.Definitions)
	var settle <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			settle = time.After(debounce)
		case <-settle:
			settle = nil
			definition, err := Load(w.path)
			if err != nil {
				w.report(err)
				continue
			}
			select {
			case w.Definitions <- definition:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		case <-w.closeCh:
			return
		}
	}
}

// report drops err when the previous one has not been read yet.
func (w *Watcher) report(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}
