package access

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/access-cli/internal/geo"
)

// ProgressFunc receives the number of processed people out of total. It may
// be called concurrently when the engine runs with more than one worker.
type ProgressFunc func(done, total int)

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers partitions the sampled population across n goroutines.
// Values below 1 are treated as 1.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// WithStrict rejects people and facilities with out-of-range coordinates.
func WithStrict() Option {
	return func(e *Engine) {
		e.strict = true
	}
}

// WithSearcher replaces the brute-force nearest-facility search.
func WithSearcher(f SearcherFactory) Option {
	return func(e *Engine) {
		e.newSearcher = f
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// Engine computes nearest-facility records. It holds configuration only;
// every call is independent.
type Engine struct {
	workers     int
	strict      bool
	newSearcher SearcherFactory
	progress    ProgressFunc
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{workers: 1, newSearcher: NewBruteForce}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeAccessibility runs a single-threaded brute-force Engine.
func ComputeAccessibility(ctx context.Context, people []Person, facilities []Facility, sampleSize int, seed int64) ([]Record, error) {
	return NewEngine().ComputeAccessibility(ctx, people, facilities, sampleSize, seed)
}

// ComputeAccessibility samples up to sampleSize people with seed and finds
// each one's nearest facility. Records follow sample order, which is stable
// for a fixed seed and input order regardless of worker count.
func (e *Engine) ComputeAccessibility(ctx context.Context, people []Person, facilities []Facility, sampleSize int, seed int64) ([]Record, error) {
	if len(facilities) == 0 {
		return nil, ErrEmptyFacilitySet
	}
	if e.strict {
		for _, f := range facilities {
			if err := f.Location.Validate(); err != nil {
				return nil, eris.Wrapf(err, "access: facility %s", f.ID)
			}
		}
	}

	searcher, err := e.newSearcher(facilities)
	if err != nil {
		return nil, eris.Wrap(err, "access: build searcher")
	}

	sample := Sample(people, sampleSize, uint64(seed))
	records := make([]Record, len(sample))
	if len(sample) == 0 {
		return records, nil
	}

	var done atomic.Int64
	process := func(ctx context.Context, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "access: compute cancelled")
			}
			rec, err := e.nearest(searcher, sample[i])
			if err != nil {
				return err
			}
			records[i] = rec
			n := done.Add(1)
			if e.progress != nil {
				e.progress(int(n), len(sample))
			}
		}
		return nil
	}

	workers := min(e.workers, len(sample))
	if workers <= 1 {
		if err := process(ctx, 0, len(sample)); err != nil {
			return nil, err
		}
		return records, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	chunk := (len(sample) + workers - 1) / workers
	for lo := 0; lo < len(sample); lo += chunk {
		hi := min(lo+chunk, len(sample))
		g.Go(func() error {
			return process(gCtx, lo, hi)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (e *Engine) nearest(s Searcher, p Person) (Record, error) {
	if e.strict {
		if err := p.Location.Validate(); err != nil {
			return Record{}, eris.Wrapf(err, "access: person %s", p.ID)
		}
	}
	f, km, err := s.Nearest(p.Location)
	if err != nil {
		return Record{}, eris.Wrapf(err, "access: nearest facility for person %s", p.ID)
	}
	return Record{
		PersonID:       p.ID,
		PersonRegion:   p.Region,
		PersonLocation: p.Location,
		FacilityID:     f.ID,
		FacilityName:   f.Name,
		FacilityRegion: f.Region,
		DistanceKM:     km,
		SameRegion:     SameRegion(p.Region, f.Region),
		Age:            p.Age,
		Gender:         p.Gender,
		EducationLevel: p.EducationLevel,
		HealthCoverage: p.HealthCoverage,
		Stratum:        p.Stratum,
	}, nil
}

// NearestFacility returns the facility nearest to p using a brute-force scan.
func NearestFacility(p geo.Point, facilities []Facility) (Facility, float64, error) {
	s, err := NewBruteForce(facilities)
	if err != nil {
		return Facility{}, 0, err
	}
	return s.Nearest(p)
}

// SameRegion reports whether two region names refer to the same region,
// ignoring case, accents, and surrounding whitespace. Empty names never match.
func SameRegion(a, b string) bool {
	ka := geo.NormalizeRegion(a)
	return ka != "" && ka == geo.NormalizeRegion(b)
}
