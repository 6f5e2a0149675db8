// Package cli: stands.go implements the "standsynth stands" command.
//
// The stands command loads an inventory file and prints one row per usable
// stand: identifiers, declared and polygon areas, and the species and stem
// totals of the latest survey snapshot. It is the quickest way to check
// that a hand-edited stand file parses the way you expect.
package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/model"
	"github.com/shinji-kodama/standsynth/internal/standdata"
)

// NewStandsCommand creates the "stands" cobra command.
func NewStandsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stands <stand-file>",
		Short: "List the stands of an inventory file",
		Long: `List the stands of an inventory file with their latest survey data.

Examples:
  standsynth stands stands.jsonc
  standsynth stands stands.jsonc --json`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStands(cmd, args[0])
		},
	}
	return cmd
}

// runStands loads the inventory and prints it.
func runStands(cmd *cobra.Command, path string) error {
	cfg, err := loadSettings(cmd, nil)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	inv, err := standdata.Load(path, logger)
	if err != nil {
		return err
	}
	VerboseLog("Loaded %d stands from %s", len(inv.Stands), path)

	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		return printStandsJSON(out, inv)
	}
	printStandsText(out, inv)
	return nil
}

// standJSON is the JSON output structure for a single stand.
type standJSON struct {
	ID           string  `json:"id"`
	Number       int     `json:"number"`
	DeclaredArea float64 `json:"declaredArea"`
	PolygonArea  float64 `json:"polygonArea"`
	Holes        int     `json:"holes"`
	Snapshots    int     `json:"snapshots"`
	Species      []int   `json:"species"`
	Stems        int     `json:"stems"`
}

func printStandsJSON(w io.Writer, inv *standdata.Inventory) error {
	type resultJSON struct {
		SRS    string      `json:"srs,omitempty"`
		Stands []standJSON `json:"stands"`
	}

	result := resultJSON{
		SRS: inv.SRS,
		// Empty slice instead of nil so the output shows [] instead of null.
		Stands: make([]standJSON, 0, len(inv.Stands)),
	}
	for i := range inv.Stands {
		s := &inv.Stands[i]
		strata, _ := s.LatestStrata()
		result.Stands = append(result.Stands, standJSON{
			ID:           s.ID,
			Number:       s.Number,
			DeclaredArea: s.DeclaredArea,
			PolygonArea:  hectares(geometry.Area(s.Polygon)),
			Holes:        max(len(s.Polygon)-1, 0),
			Snapshots:    len(s.Snapshots),
			Species:      speciesCodes(strata),
			Stems:        s.TotalStems(),
		})
	}
	return printJSON(w, result)
}

// printStandsText prints the inventory as an aligned table:
//
//	ID           NUMBER  AREA_HA   POLY_HA   SPECIES  STEMS
//	s-12         12      1.00      0.96      1,2      180
func printStandsText(w io.Writer, inv *standdata.Inventory) {
	if len(inv.Stands) == 0 {
		fmt.Fprintln(w, "No stands found.")
		return
	}
	if inv.SRS != "" {
		fmt.Fprintf(w, "SRS: %s\n", inv.SRS)
	}

	fmt.Fprintf(w, "%-16s %-7s %-9s %-9s %-12s %s\n",
		"ID", "NUMBER", "AREA_HA", "POLY_HA", "SPECIES", "STEMS")
	for i := range inv.Stands {
		s := &inv.Stands[i]
		strata, _ := s.LatestStrata()
		fmt.Fprintf(w, "%-16s %-7d %-9.2f %-9.2f %-12s %d\n",
			s.ID,
			s.Number,
			s.DeclaredArea,
			hectares(geometry.Area(s.Polygon)),
			FormatSpeciesList(strata),
			s.TotalStems(),
		)
	}
}

// FormatSpeciesList converts strata into a comma-separated list of their
// distinct species codes in ascending order. Returns "-" for no strata.
//
// Example:
//
//	[{Species: 2}, {Species: 1}, {Species: 2}] → "1,2"
//	[]                                         → "-"
func FormatSpeciesList(strata []model.Stratum) string {
	codes := speciesCodes(strata)
	if len(codes) == 0 {
		return "-"
	}
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

// speciesCodes returns the distinct species codes of strata, sorted
// numerically.
func speciesCodes(strata []model.Stratum) []int {
	seen := make(map[int]bool, len(strata))
	codes := make([]int, 0, len(strata))
	for _, st := range strata {
		if !seen[st.Species] {
			seen[st.Species] = true
			codes = append(codes, st.Species)
		}
	}
	sort.Ints(codes)
	return codes
}
