// Package persist stores the logged-in owner and the last watched symbol
// in a small JSON state file so both survive restarts.
//
// Storage access never fails loudly: a missing, unreadable, or corrupt
// state file reads as empty values, and write errors are reported to an
// optional error callback and otherwise swallowed. Absence is a normal
// result here, not an error condition.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	defaultFileMode = 0600
	defaultDirMode  = 0755
)

type stateFile struct {
	Owner           string `json:"owner,omitempty"`
	LastWatchSymbol string `json:"last_watch_symbol,omitempty"`
}

// State reads and writes the dashboard's durable client-side state.
type State struct {
	mu     sync.Mutex
	path   string
	onErr  func(error)
	cached *stateFile
}

// Open binds a State to path. The file does not need to exist yet.
// onErr receives non-fatal storage errors; it may be nil.
func Open(path string, onErr func(error)) (*State, error) {
	if path == "" {
		return nil, errors.New("persist: path is empty")
	}
	return &State{path: path, onErr: onErr}, nil
}

// DefaultPath returns the conventional state file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("persist: finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tradewatch", "state.json"), nil
}

func (s *State) report(err error) {
	if err != nil && s.onErr != nil {
		s.onErr(err)
	}
}

// load reads the file fresh. Any failure degrades to an empty state.
func (s *State) load() stateFile {
	if s.cached != nil {
		return *s.cached
	}

	var st stateFile
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.report(fmt.Errorf("persist: read: %w", err))
		}
		s.cached = &st
		return st
	}
	if err := json.Unmarshal(data, &st); err != nil {
		s.report(fmt.Errorf("persist: decode: %w", err))
		st = stateFile{}
	}
	s.cached = &st
	return st
}

// save writes atomically: temp file in the same directory, then rename.
func (s *State) save(st stateFile) {
	s.cached = &st

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, defaultDirMode); err != nil {
		s.report(fmt.Errorf("persist: mkdir: %w", err))
		return
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.report(fmt.Errorf("persist: encode: %w", err))
		return
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		s.report(fmt.Errorf("persist: temp file: %w", err))
		return
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		s.report(fmt.Errorf("persist: write: %w", errors.Join(werr, cerr)))
		return
	}
	if err := os.Chmod(tmpName, defaultFileMode); err != nil {
		s.report(fmt.Errorf("persist: chmod: %w", err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		s.report(fmt.Errorf("persist: rename: %w", err))
	}
}

// RememberWatch records symbol as the last watched symbol. Empty symbols
// are ignored so a cleared watch never clobbers the remembered one.
func (s *State) RememberWatch(symbol string) {
	if symbol == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	st.LastWatchSymbol = symbol
	s.save(st)
}

// RestoreWatch returns the remembered symbol, or "" if none was stored.
func (s *State) RestoreWatch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().LastWatchSymbol
}

// RememberOwner records the authenticated user identity.
func (s *State) RememberOwner(owner string) {
	if owner == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	st.Owner = owner
	s.save(st)
}

// RestoreOwner returns the remembered identity, or "" if none was stored.
func (s *State) RestoreOwner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().Owner
}

// ClearOwner removes the authenticated identity, used on logout.
// The last watched symbol is deliberately kept.
func (s *State) ClearOwner() {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	st.Owner = ""
	s.save(st)
}
