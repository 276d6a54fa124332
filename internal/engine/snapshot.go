package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gcbaptista/go-lexicon/index"
	internalErrors "github.com/gcbaptista/go-lexicon/internal/errors"
	"github.com/gcbaptista/go-lexicon/internal/persistence"
	"github.com/gcbaptista/go-lexicon/model"
)

// ErrSnapshotsDisabled is returned by SaveSnapshot when no snapshot path is
// configured.
var ErrSnapshotsDisabled = errors.New("index snapshots are disabled")

// SaveSnapshot writes the current indexes to the snapshot file.
func (d *Dictionary) SaveSnapshot() error {
	if d.snapshotPath == "" {
		return ErrSnapshotsDisabled
	}
	ix := d.Indexes()
	if ix.Empty() {
		return internalErrors.NewUnavailableError(nil)
	}
	if err := persistence.SaveGob(d.snapshotPath, ix); err != nil {
		return err
	}
	d.log.Info("index snapshot saved", slog.String("path", d.snapshotPath), slog.Int("headwords", ix.Len()))
	return nil
}

// RestoreSnapshot publishes the indexes saved by a previous run, making the
// dictionary Ready without touching the corpus. It reports false when
// snapshots are disabled or none has been saved yet.
func (d *Dictionary) RestoreSnapshot() (bool, error) {
	if d.snapshotPath == "" {
		return false, nil
	}

	ix := index.New()
	if err := persistence.LoadGob(d.snapshotPath, ix); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := ix.Check(); err != nil {
		return false, fmt.Errorf("snapshot %s is inconsistent: %w", d.snapshotPath, err)
	}
	if ix.Empty() {
		return false, nil
	}
	ix.Metadata.Source = model.LoadSourceSnapshot

	d.buildMu.Lock()
	d.publish(ix)
	d.buildMu.Unlock()

	d.mu.Lock()
	d.state = model.StateReady
	d.lastErr = ""
	d.mu.Unlock()

	d.sink.LoadingFinished(ix.Len())
	return true, nil
}
