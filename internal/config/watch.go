package config

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch watches the config file and invokes onChange after writes settle.
// Editors often emit several events per save, so changes are debounced.
// The returned stop function releases the watcher.
func (c *Config) Watch(onChange func()) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: many editors replace the file
	// on save, which would invalidate a file-level watch.
	if err := watcher.Add(c.DataDir); err != nil {
		watcher.Close()
		return nil, err
	}

	configPath := c.ConfigFile()
	done := make(chan struct{})

	go func() {
		var timer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != configPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(200*time.Millisecond, onChange)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
