// Package model defines the domain types for the standsynth CLI.
//
// Stands are loaded once from the inventory file and are treated as
// read-only for the duration of a query. Compartments and trees are
// transient: they are created per query and discarded after export.
package model

import (
	"fmt"
	"time"

	"github.com/ctessum/geom"
)

// Stratum is one species layer of a stand survey.
//
// StemCount and BasalArea are pointers because inventory records frequently
// omit them; a nil value means "statistic missing in source" and is handled
// by the population assembler as an empty sub-population.
type Stratum struct {
	// Species is the inventory species code (small positive integer,
	// e.g. 1 = Scots pine, 2 = Norway spruce, 3 = silver birch).
	Species int `json:"species"`

	// StemCount is the target number of stems for the whole stand polygon.
	StemCount *int `json:"stemCount,omitempty"`

	// BasalArea is the basal area in m²/ha, used as a density proxy by the
	// basal-area radius strategy.
	BasalArea *float64 `json:"basalArea,omitempty"`

	// MeanHeight is the mean tree height in metres.
	MeanHeight float64 `json:"meanHeight"`
}

// Stems returns the stem count target and whether it is present.
func (s Stratum) Stems() (int, bool) {
	if s.StemCount == nil {
		return 0, false
	}
	return *s.StemCount, true
}

// Basal returns the basal area and whether it is present.
func (s Stratum) Basal() (float64, bool) {
	if s.BasalArea == nil {
		return 0, false
	}
	return *s.BasalArea, true
}

// Snapshot is a single dated survey of a stand. A stand may carry several
// historical snapshots; synthesis always uses the latest one.
type Snapshot struct {
	Date   time.Time `json:"date"`
	Strata []Stratum `json:"strata"`
}

// Stand is a forest-inventory polygon with its survey history.
type Stand struct {
	// ID is the unique identifier of the stand within the input file.
	ID string `json:"id"`

	// Number is the stand number shown on forest plans.
	Number int `json:"number"`

	// Polygon is the stand geometry: ring 0 exterior, further rings holes.
	Polygon geom.Polygon `json:"-"`

	// DeclaredArea is the area in hectares as stated by the inventory.
	// It is informational only; synthesis uses the polygon area.
	DeclaredArea float64 `json:"declaredArea"`

	// Snapshots lists the survey snapshots in source order.
	Snapshots []Snapshot `json:"snapshots,omitempty"`
}

// LatestStrata returns the strata of the most recent snapshot. When two
// snapshots share the same date the one appearing later in the list wins.
// ErrMissingStrata is returned when the stand has no survey data at all.
func (s *Stand) LatestStrata() ([]Stratum, error) {
	if len(s.Snapshots) == 0 {
		return nil, fmt.Errorf("stand %s: %w", s.ID, ErrMissingStrata)
	}

	latest := 0
	for i := 1; i < len(s.Snapshots); i++ {
		if !s.Snapshots[i].Date.Before(s.Snapshots[latest].Date) {
			latest = i
		}
	}
	if len(s.Snapshots[latest].Strata) == 0 {
		return nil, fmt.Errorf("stand %s: %w", s.ID, ErrMissingStrata)
	}
	return s.Snapshots[latest].Strata, nil
}

// TotalStems returns the sum of the stem count targets of the latest
// snapshot. Strata without a stem count contribute zero.
func (s *Stand) TotalStems() int {
	strata, err := s.LatestStrata()
	if err != nil {
		return 0
	}
	total := 0
	for _, st := range strata {
		if n, ok := st.Stems(); ok && n > 0 {
			total += n
		}
	}
	return total
}

// RegionOfInterest is the query polygon used for selection and clipping.
// Excluded areas (e.g. buildings) are expected to be subtracted by the
// caller before the region is handed to the pipeline.
type RegionOfInterest struct {
	Polygon geom.Polygon
}

// Tree is a single synthesized tree.
type Tree struct {
	Species int     `json:"species"`
	Height  float64 `json:"height"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// Compartment is a stand's geometry clipped to a region of interest,
// together with its synthesized trees.
type Compartment struct {
	// StandID identifies the stand the compartment was cut from.
	StandID string `json:"standId"`

	// Component is the index of the clipped component within the stand.
	// It is always 0 unless the builder emits one compartment per component.
	Component int `json:"component"`

	// Polygon is the clipped geometry.
	Polygon geom.Polygon `json:"-"`

	// AreaRatio is area(Polygon) / area(stand polygon), within [0, 1].
	AreaRatio float64 `json:"areaRatio"`

	// Trees are the synthesized trees, all strictly inside Polygon.
	Trees []Tree `json:"trees,omitempty"`
}

// SpeciesCounts returns the number of trees per species code.
func (c *Compartment) SpeciesCounts() map[int]int {
	counts := make(map[int]int)
	for _, t := range c.Trees {
		counts[t.Species]++
	}
	return counts
}
