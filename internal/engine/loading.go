package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gcbaptista/go-lexicon/index"
	"github.com/gcbaptista/go-lexicon/model"
)

// Load brings the dictionary up. Concurrent calls share one corpus fetch.
// Once the dictionary is Ready, Load returns immediately with the cached
// corpus; use Reload to fetch again.
//
// A failed load moves an unloaded dictionary to Failed. A dictionary that
// is already Ready stays Ready and keeps serving its previous indexes.
func (d *Dictionary) Load(ctx context.Context) error {
	d.beginLoad()

	outcome, err := d.loader.Load(ctx)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			d.abandonLoad()
			return err
		}
		d.failLoad(err)
		return err
	}

	d.buildMu.Lock()
	defer d.buildMu.Unlock()

	// A concurrent caller sharing the same fetch may have built it already.
	if cur := d.Indexes(); cur != nil && cur.Metadata.Source == outcome.Source && cur.Metadata.LoadedAt.Equal(outcome.LoadedAt) {
		d.finishLoad()
		return nil
	}

	ix := d.builder.Build(outcome)
	d.publish(ix)
	d.finishLoad()

	if d.snapshotPath != "" {
		if err := d.SaveSnapshot(); err != nil {
			d.log.Warn("failed to save index snapshot", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Reload drops the cached corpus and loads it again. The previous indexes
// keep serving until the new build is published.
func (d *Dictionary) Reload(ctx context.Context) error {
	d.loader.Reset()
	return d.Load(ctx)
}

func (d *Dictionary) publish(ix *index.Indexes) {
	d.current.Store(ix)
	d.log.Info("indexes published",
		slog.Int("headwords", ix.Len()),
		slog.String("source", string(ix.Metadata.Source)),
	)
}

func (d *Dictionary) beginLoad() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.inflight++
	if d.state != model.StateReady && d.state != model.StateLoading {
		d.prevState = d.state
		d.state = model.StateLoading
	}
}

func (d *Dictionary) finishLoad() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.inflight--
	d.state = model.StateReady
	d.lastErr = ""
}

func (d *Dictionary) failLoad(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.inflight--
	d.lastErr = err.Error()
	if d.state == model.StateReady {
		d.log.Warn("reload failed, keeping previous indexes", slog.String("error", err.Error()))
		return
	}
	d.state = model.StateFailed
	d.log.Error("dictionary load failed", slog.String("error", err.Error()))
}

// abandonLoad handles a caller that stopped waiting. The shared fetch keeps
// running and its result is picked up by the next Load.
func (d *Dictionary) abandonLoad() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.inflight--
	if d.state == model.StateLoading && d.inflight == 0 {
		d.state = d.prevState
	}
}
