package engine

import (
	"github.com/sagardeyrakesh/sdpattern"
	"github.com/sagardeyrakesh/sdpattern/pkg/prefilter"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// Worker evaluates buffers for one goroutine. Its prefilter and counters
// are not safe for concurrent use.
type Worker struct {
	engine    *Engine
	prefilter *prefilter.Prefilter
	stats     map[string]*sdpattern.Stats // by option structural ID
	counts    map[string]int              // per-buffer scratch, by option structural ID
}

// Evaluate runs every candidate rule over content and returns an alert for
// each rule whose threshold is reached. An option shared by several rules
// is scanned once per buffer.
func (w *Worker) Evaluate(content []byte, prov types.Provenance) []*types.Alert {
	clear(w.counts)

	var (
		alerts []*types.Alert
		blobID types.BlobID
		hashed bool
	)
	for _, i := range w.prefilter.FilterIndexes(content) {
		ent := w.engine.entries[i]
		sid := ent.Option.StructuralID()

		count, done := w.counts[sid]
		if !done {
			count = ent.Option.SearchWithStats(content, w.statsFor(sid))
			w.counts[sid] = count
		}
		if count < ent.Option.Threshold() {
			continue
		}

		if !hashed {
			blobID, hashed = types.ComputeBlobID(content), true
		}
		alerts = append(alerts, newAlert(ent, blobID, count, prov))
	}
	return alerts
}

// Stats returns this worker's counters for the option with the given
// structural ID.
func (w *Worker) Stats(structuralID string) (sdpattern.Stats, bool) {
	st, ok := w.stats[structuralID]
	if !ok {
		return sdpattern.Stats{}, false
	}
	return *st, true
}

func (w *Worker) statsFor(sid string) *sdpattern.Stats {
	st, ok := w.stats[sid]
	if !ok {
		st = &sdpattern.Stats{}
		w.stats[sid] = st
	}
	return st
}

func newAlert(ent Entry, blobID types.BlobID, count int, prov types.Provenance) *types.Alert {
	a := &types.Alert{
		BlobID:       blobID,
		RuleID:       ent.Rule.ID,
		RuleName:     ent.Rule.Name,
		StructuralID: ent.Option.StructuralID(),
		Pattern:      ent.Option.Pattern(),
		Threshold:    ent.Option.Threshold(),
		Count:        count,
		Verdict:      types.Match,
		Provenance:   prov,
	}
	if prov != nil {
		a.Path = prov.Path()
	}
	a.ID = a.ComputeID()
	return a
}
