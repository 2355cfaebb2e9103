package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher rebuilds inputs whenever they change on disk.
type Watcher struct {
	Inputs  []string
	Options Options
	// OnBuild is called after every build attempt.
	OnBuild func(filename string, err error)
	// Ready, if set, is closed once the initial builds are done and the
	// watches are in place.
	Ready chan struct{}
}

// Build translates one input and writes the .c file next to it.
func (w *Watcher) Build(filename string) error {
	code, err := compileFile(filename, w.Options)
	if err == nil {
		err = os.WriteFile(outputName(filename), []byte(code), 0o644)
	}
	if w.OnBuild != nil {
		w.OnBuild(filename, err)
	}
	return err
}

// Run builds every input once and then watches their directories until
// ctx is done. Directories are watched rather than files so that editors
// that save by renaming are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	inputs := make(map[string]string, len(w.Inputs))
	dirs := make(map[string]bool)
	for _, in := range w.Inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		inputs[abs] = in
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return err
		}
	}

	for _, in := range w.Inputs {
		w.Build(in)
	}
	if w.Ready != nil {
		close(w.Ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if in, ok := inputs[abs]; ok {
				if _, err := os.Stat(abs); err == nil {
					w.Build(in)
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
