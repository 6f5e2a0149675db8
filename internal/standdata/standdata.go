// Package standdata loads forest stand inventories from stand files.
//
// A stand file is JSONC (JSON with Comments): inventories are often edited
// by hand and annotated, so this package uses github.com/tidwall/jsonc to
// strip comments and trailing commas before parsing with the standard
// encoding/json library.
//
// Polygon rings are stored as GML coordinate strings. A malformed vertex
// does not invalidate its stand: it is skipped and logged, and the stand
// survives as long as its exterior keeps at least three vertices.
package standdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/ctessum/geom"
	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/logging"
	"github.com/shinji-kodama/standsynth/internal/model"
)

// dateLayouts are the accepted snapshot date formats, tried in order.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// RawFile is the top-level structure of a stand file.
type RawFile struct {
	// SRS is the proj4 definition or EPSG code of the stand coordinates.
	SRS string `json:"srs,omitempty"`

	// Stands lists the stand records in file order.
	Stands []RawStand `json:"stands"`
}

// RawStand is one stand record as stored in the file.
type RawStand struct {
	// ID is the unique stand identifier. When empty, the stand number is
	// used instead.
	ID string `json:"id"`

	// Number is the stand number shown on forest plans.
	Number int `json:"number"`

	// Area is the declared area in hectares.
	Area float64 `json:"area"`

	// Exterior is the outer ring as "x,y x,y ..." or "x y x y ...".
	Exterior string `json:"exterior"`

	// Interiors lists the hole rings in the same format as Exterior.
	Interiors []string `json:"interiors,omitempty"`

	// Snapshots lists the dated surveys of the stand.
	Snapshots []RawSnapshot `json:"snapshots,omitempty"`
}

// RawSnapshot is one dated survey as stored in the file.
type RawSnapshot struct {
	Date   string          `json:"date"`
	Strata []model.Stratum `json:"strata"`
}

// Inventory is a parsed stand file.
type Inventory struct {
	// SRS is the spatial reference of the stand coordinates, as declared
	// in the file. Empty means unknown.
	SRS string

	// Stands are the usable stands in file order.
	Stands []model.Stand
}

// Load reads and parses a stand file.
//
// Returns a CLIError with ExitInputNotFound if the file does not exist and
// ExitInvalidInput if it is not valid JSON.
func Load(path string, logger *slog.Logger) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.WrapCLIError(model.ExitInputNotFound,
				fmt.Sprintf("stand file not found: %s", path), err)
		}
		return nil, fmt.Errorf("failed to read stand file: %w", err)
	}

	inv, err := Parse(data, logging.OrNop(logger).With("file", path))
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidInput,
			fmt.Sprintf("invalid stand file: %s", path), err)
	}
	return inv, nil
}

// Parse converts stand file contents into an inventory. Only a syntax
// error fails the whole file; problems with individual stands are logged
// and the stand is skipped or repaired.
func Parse(data []byte, logger *slog.Logger) (*Inventory, error) {
	logger = logging.OrNop(logger)

	// Strip JSONC comments (// and /* */) and trailing commas before parsing.
	var raw RawFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse stand file: %w", err)
	}

	inv := &Inventory{SRS: raw.SRS}
	seen := make(map[string]bool, len(raw.Stands))
	for i := range raw.Stands {
		stand, err := convertStand(&raw.Stands[i], i, logger)
		if err != nil {
			logger.Warn("skipping stand", "index", i, "id", raw.Stands[i].ID, "error", err)
			continue
		}
		if seen[stand.ID] {
			logger.Warn("duplicate stand id", "id", stand.ID)
		}
		seen[stand.ID] = true
		inv.Stands = append(inv.Stands, stand)
	}
	return inv, nil
}

// convertStand turns a raw record into a domain stand.
func convertStand(rs *RawStand, index int, logger *slog.Logger) (model.Stand, error) {
	id := rs.ID
	if id == "" {
		if rs.Number != 0 {
			id = strconv.Itoa(rs.Number)
		} else {
			id = fmt.Sprintf("stand-%d", index)
		}
	}
	logger = logger.With("stand", id)

	// Step 1: Parse rings. Malformed vertices are reported and skipped.
	exterior, errs := geometry.ParseRing(rs.Exterior, 0)
	logFormatErrors(logger, errs)

	holes := make([]geom.Path, 0, len(rs.Interiors))
	for j, s := range rs.Interiors {
		hole, errs := geometry.ParseRing(s, j+1)
		logFormatErrors(logger, errs)
		holes = append(holes, hole)
	}

	poly, err := geometry.NewPolygon(exterior, holes...)
	if err != nil {
		return model.Stand{}, err
	}

	// Step 2: Convert snapshots, sanitizing statistics that would break
	// the radius estimators.
	snapshots := make([]model.Snapshot, 0, len(rs.Snapshots))
	for _, snap := range rs.Snapshots {
		snapshots = append(snapshots, model.Snapshot{
			Date:   parseDate(snap.Date, logger),
			Strata: sanitizeStrata(snap.Strata, logger),
		})
	}

	return model.Stand{
		ID:           id,
		Number:       rs.Number,
		Polygon:      poly,
		DeclaredArea: rs.Area,
		Snapshots:    snapshots,
	}, nil
}

// sanitizeStrata drops negative stem counts and non-positive basal areas,
// which then count as missing.
func sanitizeStrata(strata []model.Stratum, logger *slog.Logger) []model.Stratum {
	out := make([]model.Stratum, len(strata))
	for i, st := range strata {
		if st.StemCount != nil && *st.StemCount < 0 {
			logger.Warn("negative stem count treated as missing", "species", st.Species, "stemCount", *st.StemCount)
			st.StemCount = nil
		}
		if st.BasalArea != nil && !(*st.BasalArea > 0) {
			logger.Debug("non-positive basal area treated as missing", "species", st.Species, "basalArea", *st.BasalArea)
			st.BasalArea = nil
		}
		out[i] = st
	}
	return out
}

func parseDate(s string, logger *slog.Logger) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	logger.Warn("unparsable snapshot date, treating as oldest", "date", s)
	return time.Time{}
}

func logFormatErrors(logger *slog.Logger, errs []error) {
	for _, err := range errs {
		var fe *model.FormatError
		if errors.As(err, &fe) {
			logger.Warn("skipping malformed vertex", "ring", fe.Ring, "token", fe.Token, "reason", fe.Reason)
		}
	}
}
