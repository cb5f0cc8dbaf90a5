// Package cache persists a built index as one compressed snapshot file so
// repeat invocations skip the switch scan. A snapshot is all-or-nothing:
// there is no incremental update, only wholesale replacement.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/camldex/camldex/internal/config"
	"github.com/camldex/camldex/internal/index"
	"github.com/klauspost/compress/zstd"
)

// FormatVersion tags the snapshot envelope. Bump it whenever the record
// shapes change; a mismatch at load time is fatal rather than silently
// misreading an incompatible cache.
const FormatVersion = 1

// ErrVersion is returned by Load when the snapshot was written by an
// incompatible index layout.
var ErrVersion = errors.New("incompatible index snapshot format")

type envelope struct {
	FormatVersion int          `json:"format_version"`
	State         *index.State `json:"state"`
}

// Save writes the state as the switch's snapshot file, replacing any
// previous snapshot.
func Save(root string, st *index.State) error {
	path := config.SnapshotPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if err := json.NewEncoder(w).Encode(envelope{FormatVersion: FormatVersion, State: st}); err != nil {
		w.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// Load reads the switch's snapshot back. The returned state is observably
// equal to the one Save was given. A version mismatch is ErrVersion.
func Load(root string) (*index.State, error) {
	f, err := os.Open(config.SnapshotPath(root))
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if env.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: snapshot is v%d, this build reads v%d", ErrVersion, env.FormatVersion, FormatVersion)
	}
	if env.State == nil {
		return nil, errors.New("snapshot has no state")
	}

	// Guard against snapshots with absent tables so queries on a loaded
	// state never hit a nil map.
	st := env.State
	if st.Packages == nil {
		st.Packages = make(map[string]*index.Package)
	}
	if st.Libraries == nil {
		st.Libraries = make(map[string]*index.Library)
	}
	if st.Modules == nil {
		st.Modules = make(map[string][]*index.Module)
	}
	return st, nil
}

// Exists reports whether the switch has a snapshot on disk.
func Exists(root string) bool {
	_, err := os.Stat(config.SnapshotPath(root))
	return err == nil
}

// Remove deletes the switch's snapshot if present.
func Remove(root string) error {
	err := os.Remove(config.SnapshotPath(root))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}
