package main

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

type buildEvent struct {
	filename string
	err      error
}

func waitBuild(t *testing.T, events <-chan buildEvent) buildEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a build")
		return buildEvent{}
	}
}

func TestWatcherRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir, "w.pyast", `(module (assign (name "x") (int 1)))`)

	events := make(chan buildEvent, 64)
	w := &Watcher{
		Inputs:  []string{in},
		Options: DefaultOptions(),
		OnBuild: func(filename string, err error) {
			select {
			case events <- buildEvent{filename, err}:
			default:
			}
		},
		Ready: make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	ev := waitBuild(t, events)
	be.Equal(t, ev.filename, in)
	be.Err(t, ev.err, nil)
	<-w.Ready

	be.Err(t, os.WriteFile(in, []byte(`(module (assign (name "y") (int 2)))`), 0o644), nil)
	deadline := time.After(5 * time.Second)
	for {
		ev = waitBuild(t, events)
		data, err := os.ReadFile(outputName(in))
		be.Err(t, err, nil)
		if strings.Contains(string(data), "Value y = create_int(2);") {
			break
		}
		select {
		case <-deadline:
			t.Fatal("output was not rebuilt")
		default:
		}
	}

	cancel()
	select {
	case err := <-done:
		be.Err(t, err, nil)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherBuildReportsErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir, "bad.pyast", `(module (break))`)

	var got error
	w := &Watcher{
		Options: DefaultOptions(),
		OnBuild: func(_ string, err error) { got = err },
	}
	err := w.Build(in)
	be.True(t, IsKind(err, UnsupportedConstruct))
	be.Equal(t, got, err)

	_, statErr := os.Stat(outputName(in))
	be.True(t, os.IsNotExist(statErr))
}
