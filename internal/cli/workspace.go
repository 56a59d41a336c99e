package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/modelsync/internal/engine"
	"github.com/roach88/modelsync/internal/notation"
	"github.com/roach88/modelsync/internal/store"
)

// workspace is the database and notation a command works against.
type workspace struct {
	opts     *RootOptions
	store    *store.Store
	notation *notation.Notation
}

// openWorkspace opens the database and, when needNotation is set, loads
// and validates the notation document.
func openWorkspace(opts *RootOptions, needNotation bool) (*workspace, error) {
	ws := &workspace{opts: opts}

	if needNotation {
		n, err := loadNotation(opts.Notation)
		if err != nil {
			return nil, err
		}
		ws.notation = n
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	ws.store = st
	return ws, nil
}

func (w *workspace) Close() error {
	return w.store.Close()
}

// loadNotation loads a notation document and rejects it if it has
// validation errors.
func loadNotation(path string) (*notation.Notation, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no notation given (use --notation or set notation in "+DefaultConfigFile+")")
	}
	n, err := notation.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load notation", err)
	}
	if errs := notation.Errors(notation.Validate(n)); len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("notation %s is invalid (%d error(s))", path, len(errs)), errs[0])
	}
	return n, nil
}

// restore loads the stored session key and rebuilds it against the
// workspace notation. Commits are persisted back into the store.
func (w *workspace) restore(ctx context.Context, key string) (*engine.Session, error) {
	state, err := w.store.LoadSession(ctx, key)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("session %s not found (run modelsync init)", key))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load session", err)
	}

	s, err := engine.Restore(state, w.notation.MetaModel, w.notation.Representation,
		engine.WithLogger(w.opts.logger()),
		engine.WithPersister(w.store),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to restore session", err)
	}
	return s, nil
}

// confirmPersisted waits for background persistence and checks that the
// store caught up with the session.
func (w *workspace) confirmPersisted(ctx context.Context, s *engine.Session) error {
	s.Flush()
	state, err := w.store.LoadSession(ctx, s.Key())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to reload session", err)
	}
	if state.Seq != s.Seq() {
		return NewExitError(ExitCommandError, fmt.Sprintf("session %s stored at seq %d, expected %d", s.Key(), state.Seq, s.Seq()))
	}
	return nil
}
