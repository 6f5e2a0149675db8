package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// TestStratum_Stems verifies that missing stem counts are reported as absent
// rather than as zero.
func TestStratum_Stems(t *testing.T) {
	n, ok := Stratum{Species: 1, StemCount: intPtr(40)}.Stems()
	assert.True(t, ok)
	assert.Equal(t, 40, n)

	_, ok = Stratum{Species: 1}.Stems()
	assert.False(t, ok)

	ba, ok := Stratum{BasalArea: floatPtr(12.5)}.Basal()
	assert.True(t, ok)
	assert.Equal(t, 12.5, ba)
}

// TestStand_LatestStrata checks that the most recent snapshot is used and
// that date ties are resolved in favour of the later entry.
func TestStand_LatestStrata(t *testing.T) {
	d := func(s string) time.Time {
		tm, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return tm
	}

	t.Run("latest date wins regardless of order", func(t *testing.T) {
		s := Stand{ID: "a", Snapshots: []Snapshot{
			{Date: d("2021-01-01"), Strata: []Stratum{{Species: 2}}},
			{Date: d("2015-01-01"), Strata: []Stratum{{Species: 1}}},
		}}
		strata, err := s.LatestStrata()
		require.NoError(t, err)
		assert.Equal(t, 2, strata[0].Species)
	})

	t.Run("tie goes to later entry", func(t *testing.T) {
		s := Stand{ID: "a", Snapshots: []Snapshot{
			{Date: d("2021-01-01"), Strata: []Stratum{{Species: 1}}},
			{Date: d("2021-01-01"), Strata: []Stratum{{Species: 3}}},
		}}
		strata, err := s.LatestStrata()
		require.NoError(t, err)
		assert.Equal(t, 3, strata[0].Species)
	})

	t.Run("no snapshots", func(t *testing.T) {
		s := Stand{ID: "empty"}
		_, err := s.LatestStrata()
		assert.True(t, errors.Is(err, ErrMissingStrata))
	})

	t.Run("latest snapshot without strata", func(t *testing.T) {
		s := Stand{ID: "a", Snapshots: []Snapshot{{Date: d("2021-01-01")}}}
		_, err := s.LatestStrata()
		assert.True(t, errors.Is(err, ErrMissingStrata))
	})
}

// TestStand_TotalStems sums only present, positive stem counts.
func TestStand_TotalStems(t *testing.T) {
	s := Stand{ID: "a", Snapshots: []Snapshot{{Strata: []Stratum{
		{Species: 1, StemCount: intPtr(50)},
		{Species: 2, StemCount: intPtr(30)},
		{Species: 3},
	}}}}
	assert.Equal(t, 80, s.TotalStems())
	assert.Equal(t, 0, (&Stand{ID: "b"}).TotalStems())
}

// TestCompartment_SpeciesCounts checks the per-species tally used by the
// CLI summaries.
func TestCompartment_SpeciesCounts(t *testing.T) {
	c := Compartment{Trees: []Tree{{Species: 1}, {Species: 2}, {Species: 1}}}
	assert.Equal(t, map[int]int{1: 2, 2: 1}, c.SpeciesCounts())
}

// TestParseOptions verifies string-to-enum conversion for all option types,
// including case normalization and error cases.
func TestParseOptions(t *testing.T) {
	mode, err := ParseSelectionMode("Centroid")
	require.NoError(t, err)
	assert.Equal(t, ModeCentroid, mode)
	_, err = ParseSelectionMode("touches")
	assert.Error(t, err)

	policy, err := ParseComponentPolicy("EACH")
	require.NoError(t, err)
	assert.Equal(t, PolicyEach, policy)
	_, err = ParseComponentPolicy("")
	assert.Error(t, err)

	strategy, err := ParseRadiusStrategy("basal-area")
	require.NoError(t, err)
	assert.Equal(t, RadiusBasalArea, strategy)
	_, err = ParseRadiusStrategy("poisson")
	assert.Error(t, err)

	kind, err := ParseSamplerKind("poisson")
	require.NoError(t, err)
	assert.Equal(t, SamplerPoisson, kind)
	_, err = ParseSamplerKind("grid")
	assert.Error(t, err)

	limit, err := ParseLimitMode("reservoir")
	require.NoError(t, err)
	assert.Equal(t, LimitReservoir, limit)
	_, err = ParseLimitMode("truncate")
	assert.Error(t, err)
}

// TestFormatError checks the message of the ring-parsing error and that it
// can be recovered with errors.As through wrapping.
func TestFormatError(t *testing.T) {
	var err error = &FormatError{Ring: 1, Token: "12,x", Reason: "unparsable numeral"}
	wrapped := errors.Join(errors.New("stand s-1"), err)

	var fe *FormatError
	require.True(t, errors.As(wrapped, &fe))
	assert.Equal(t, 1, fe.Ring)
	assert.Contains(t, err.Error(), "12,x")
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitInputNotFound, "stand file not found")
		assert.Equal(t, ExitInputNotFound, err.Code)
		assert.Equal(t, "stand file not found", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("permission denied")
		err := WrapCLIError(ExitOutputError, "cannot write output", inner)
		assert.Equal(t, ExitOutputError, err.Code)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, inner, err.Unwrap())
	})

	t.Run("errors.Is chain", func(t *testing.T) {
		err := WrapCLIError(ExitBufferOverflow, "buffer too small", ErrBufferOverflow)
		assert.True(t, errors.Is(err, ErrBufferOverflow))
	})
}
