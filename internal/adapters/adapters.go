package adapters

import (
	"go.uber.org/zap"

	"github.com/jinwoo-dev/partywatch/internal/dates"
	"github.com/jinwoo-dev/partywatch/internal/scrape"
)

// Deps carries everything an adapter needs: the shared transport session,
// the date extractor, and the per-run context for diagnostics.
type Deps struct {
	Fetcher scrape.Fetcher
	Dates   *dates.Extractor
	Run     *scrape.RunContext
	Logger  *zap.Logger
}

// NewRegistry wires every site adapter. Adding a site means adding one
// adapter type and one Register call here; the orchestrator never changes.
func NewRegistry(deps Deps) scrape.Registry {
	r := scrape.Registry{}
	r.Register(&BasicIncome{deps})
	r.Register(&Samindang{deps})
	r.Register(&Rebuilding{deps})
	r.Register(&Jinbo{deps})
	r.Register(&Labor{deps})
	r.Register(&Kgreens{deps})
	r.Register(&Justice21{deps})
	return r
}

// debugf logs a diagnostic line when the site is in the run's debug set.
func (d Deps) debugf(site, msg string, fields ...zap.Field) {
	if d.Run.DebugEnabled(site) {
		d.Logger.Debug(msg, append([]zap.Field{zap.String("site", site)}, fields...)...)
	}
}
