package sampling

import (
	"math/rand"

	"github.com/ctessum/geom"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// limiter reduces a stream of candidates to at most limit points.
//
// In shuffle mode every candidate is kept and the list is shuffled and
// truncated at the end. In reservoir mode (Algorithm R) only limit points
// are ever held; each later candidate replaces a random slot with
// probability limit/seen, which keeps the selection uniform.
type limiter struct {
	mode  model.LimitMode
	limit int
	rng   *rand.Rand
	seen  int
	pts   []geom.Point
}

func newLimiter(mode model.LimitMode, limit int, rng *rand.Rand) *limiter {
	if mode == "" {
		mode = model.LimitShuffle
	}
	return &limiter{mode: mode, limit: limit, rng: rng}
}

func (l *limiter) offer(pt geom.Point) {
	l.seen++
	if l.limit < 0 || l.mode != model.LimitReservoir || len(l.pts) < l.limit {
		l.pts = append(l.pts, pt)
		return
	}
	if j := l.rng.Intn(l.seen); j < l.limit {
		l.pts[j] = pt
	}
}

func (l *limiter) result() []geom.Point {
	if l.limit < 0 || len(l.pts) <= l.limit {
		return l.pts
	}
	l.rng.Shuffle(len(l.pts), func(i, j int) {
		l.pts[i], l.pts[j] = l.pts[j], l.pts[i]
	})
	return l.pts[:l.limit]
}

// limitPoints applies the limit to an already materialized candidate list.
func limitPoints(mode model.LimitMode, pts []geom.Point, limit int, rng *rand.Rand) []geom.Point {
	lim := newLimiter(mode, limit, rng)
	for _, pt := range pts {
		lim.offer(pt)
	}
	return lim.result()
}
