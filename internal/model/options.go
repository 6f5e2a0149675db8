package model

import (
	"fmt"
	"strings"
)

// SelectionMode decides which stands a region of interest picks up.
//
//   - ModeIntersects: the stand exterior overlaps the region (canonical,
//     captures partially overlapping stands).
//   - ModeCentroid: the stand centroid lies inside the region. Partially
//     overlapping stands whose centroid falls outside are dropped.
type SelectionMode string

const (
	// ModeIntersects selects stands whose exterior overlaps the region.
	ModeIntersects SelectionMode = "intersects"

	// ModeCentroid selects stands whose centroid lies in the region.
	ModeCentroid SelectionMode = "centroid"
)

// String returns the string representation of SelectionMode.
func (m SelectionMode) String() string {
	return string(m)
}

// IsValid checks whether the SelectionMode value is one of the predefined modes.
func (m SelectionMode) IsValid() bool {
	switch m {
	case ModeIntersects, ModeCentroid:
		return true
	default:
		return false
	}
}

// ParseSelectionMode converts a string to a SelectionMode.
func ParseSelectionMode(s string) (SelectionMode, error) {
	mode := SelectionMode(strings.ToLower(s))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid selection mode: %q (valid: intersects, centroid)", s)
	}
	return mode, nil
}

// ComponentPolicy decides what happens when clipping splits a stand into
// several disjoint pieces.
type ComponentPolicy string

const (
	// PolicyLargest keeps only the largest-area component. Ties go to the
	// component whose exterior ring comes first in the clip result.
	PolicyLargest ComponentPolicy = "largest"

	// PolicyEach emits one compartment per component.
	PolicyEach ComponentPolicy = "each"
)

// String returns the string representation of ComponentPolicy.
func (p ComponentPolicy) String() string {
	return string(p)
}

// IsValid checks whether the ComponentPolicy value is one of the predefined policies.
func (p ComponentPolicy) IsValid() bool {
	switch p {
	case PolicyLargest, PolicyEach:
		return true
	default:
		return false
	}
}

// ParseComponentPolicy converts a string to a ComponentPolicy.
func ParseComponentPolicy(s string) (ComponentPolicy, error) {
	policy := ComponentPolicy(strings.ToLower(s))
	if !policy.IsValid() {
		return "", fmt.Errorf("invalid component policy: %q (valid: largest, each)", s)
	}
	return policy, nil
}

// RadiusStrategy names a radius estimation formula.
type RadiusStrategy string

const (
	// RadiusHexPacking derives the spacing from stem density with a
	// hexagonal packing correction for sparse stands.
	RadiusHexPacking RadiusStrategy = "hex-packing"

	// RadiusBasalArea uses the stratum basal area as the area proxy.
	RadiusBasalArea RadiusStrategy = "basal-area"

	// RadiusMeanHeight divides the stratum mean height by a constant.
	RadiusMeanHeight RadiusStrategy = "mean-height"

	// RadiusFixed uses a configured constant radius.
	RadiusFixed RadiusStrategy = "fixed"
)

// String returns the string representation of RadiusStrategy.
func (r RadiusStrategy) String() string {
	return string(r)
}

// IsValid checks whether the RadiusStrategy value is one of the predefined strategies.
func (r RadiusStrategy) IsValid() bool {
	switch r {
	case RadiusHexPacking, RadiusBasalArea, RadiusMeanHeight, RadiusFixed:
		return true
	default:
		return false
	}
}

// ParseRadiusStrategy converts a string to a RadiusStrategy.
func ParseRadiusStrategy(s string) (RadiusStrategy, error) {
	strategy := RadiusStrategy(strings.ToLower(s))
	if !strategy.IsValid() {
		return "", fmt.Errorf("invalid radius strategy: %q (valid: hex-packing, basal-area, mean-height, fixed)", s)
	}
	return strategy, nil
}

// SamplerKind names a point sampling algorithm.
type SamplerKind string

const (
	// SamplerHex is the jittered hexagonal lattice sampler.
	SamplerHex SamplerKind = "hex"

	// SamplerPoisson is the Poisson-disc sampler.
	SamplerPoisson SamplerKind = "poisson"
)

// String returns the string representation of SamplerKind.
func (k SamplerKind) String() string {
	return string(k)
}

// IsValid checks whether the SamplerKind value is one of the predefined kinds.
func (k SamplerKind) IsValid() bool {
	switch k {
	case SamplerHex, SamplerPoisson:
		return true
	default:
		return false
	}
}

// ParseSamplerKind converts a string to a SamplerKind.
func ParseSamplerKind(s string) (SamplerKind, error) {
	kind := SamplerKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid sampler: %q (valid: hex, poisson)", s)
	}
	return kind, nil
}

// LimitMode decides how a sampler reduces its candidates to the point limit.
type LimitMode string

const (
	// LimitShuffle materializes every candidate, shuffles and truncates.
	LimitShuffle LimitMode = "shuffle"

	// LimitReservoir keeps a uniform reservoir while candidates stream in,
	// so the full candidate set is never held in memory.
	LimitReservoir LimitMode = "reservoir"
)

// String returns the string representation of LimitMode.
func (l LimitMode) String() string {
	return string(l)
}

// IsValid checks whether the LimitMode value is one of the predefined modes.
func (l LimitMode) IsValid() bool {
	switch l {
	case LimitShuffle, LimitReservoir:
		return true
	default:
		return false
	}
}

// ParseLimitMode converts a string to a LimitMode.
func ParseLimitMode(s string) (LimitMode, error) {
	mode := LimitMode(strings.ToLower(s))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid limit mode: %q (valid: shuffle, reservoir)", s)
	}
	return mode, nil
}
