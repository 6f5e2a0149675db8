package sampling

import (
	"fmt"
	"log/slog"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// SamplerOptions selects and tunes a Sampler.
type SamplerOptions struct {
	Kind     model.SamplerKind
	Jitter   float64
	Mode     model.LimitMode
	Attempts int
	Logger   *slog.Logger
}

// NewSampler builds the sampler described by opts.
func NewSampler(opts SamplerOptions) (Sampler, error) {
	switch opts.Kind {
	case model.SamplerHex, "":
		if opts.Jitter < 0 || opts.Jitter > 1 {
			return nil, fmt.Errorf("jitter %g outside [0, 1]", opts.Jitter)
		}
		return HexGrid{Jitter: opts.Jitter, Mode: opts.Mode, Logger: opts.Logger}, nil
	case model.SamplerPoisson:
		return PoissonSampler{Attempts: opts.Attempts, Mode: opts.Mode}, nil
	default:
		return nil, fmt.Errorf("unknown sampler %q", opts.Kind)
	}
}
