package app

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/shade/internal/adapters/watcher"
	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/zerr"
)

// Watch builds the named programs and rebuilds them whenever the project's
// files change, until ctx is done.
//
// Each rebuild reloads the configuration and starts from a new namespace; the
// previous namespace is released once the new build has finished. Build
// failures are logged and do not end the watch.
func (a *App) Watch(ctx context.Context, names []string, opts BuildOptions) error {
	project, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	fingerprint, err := a.hasher.Fingerprint([]string{project.Root})
	if err != nil {
		return zerr.Wrap(err, "failed to fingerprint project")
	}

	current := a.rebuild(ctx, nil, project, names, opts)
	defer func() { a.close(current) }()

	if err := a.watcher.Start(ctx, project.Root); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	changes := make(chan struct{}, 1)
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func([]string) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	go func() {
		for ev := range a.watcher.Events() {
			if !isStatePath(ev.Path) {
				debouncer.Add(ev.Path)
			}
		}
	}()

	a.logger.Info("watching " + project.Root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		}

		next, err := a.hasher.Fingerprint([]string{project.Root})
		if err != nil {
			a.logger.Error(err)
			continue
		}
		if next == fingerprint {
			continue
		}
		fingerprint = next

		reloaded, err := a.configLoader.Load(opts.ConfigPath)
		if err != nil {
			a.logger.Error(zerr.Wrap(err, "failed to load configuration"))
			continue
		}
		current = a.rebuild(ctx, current, reloaded, names, opts)
	}
}

// rebuild builds project in a new session and releases previous afterwards.
// It returns the session that holds the current artifacts.
func (a *App) rebuild(ctx context.Context, previous *session, project *domain.Project, names []string, opts BuildOptions) *session {
	s, err := a.open(project)
	if err != nil {
		a.logger.Error(err)
		return previous
	}
	if err := a.build(ctx, s, names, opts); err != nil {
		a.logger.Error(err)
	}
	a.close(previous)
	return s
}

func isStatePath(path string) bool {
	return slices.Contains(strings.Split(filepath.ToSlash(path), "/"), domain.ShadeDirName)
}
