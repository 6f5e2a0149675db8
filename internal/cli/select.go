// Package cli: select.go implements the "standsynth select" command.
//
// The select command runs only the region selection step and reports which
// stands a region of interest picks up, together with the share of each
// stand that lies inside the region. No trees are generated.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/model"
	"github.com/shinji-kodama/standsynth/internal/region"
	"github.com/shinji-kodama/standsynth/internal/standdata"
)

// selectFlags holds the flag values for the select command.
type selectFlags struct {
	synth synthFlags
	roi   roiFlags
}

// NewSelectCommand creates the "select" cobra command.
func NewSelectCommand() *cobra.Command {
	flags := &selectFlags{}

	cmd := &cobra.Command{
		Use:   "select <stand-file>",
		Short: "Show the stands a region of interest selects",
		Long: `Show the stands a region of interest selects and how much of each
stand lies inside the region.

With --mode intersects (default) every stand overlapping the region is
selected. With --mode centroid only stands whose centroid lies inside the
region are selected.

Examples:
  standsynth select stands.jsonc --bbox 0,0,500,500
  standsynth select stands.jsonc --roi area.geojson --exclude buildings.geojson
  standsynth select stands.jsonc --bbox 0,0,500,500 --mode centroid --json`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, args[0], flags)
		},
	}

	flags.synth.bindMode(cmd)
	flags.roi.bind(cmd)
	return cmd
}

// selectedStand is one selected stand with its overlap share.
type selectedStand struct {
	ID      string  `json:"id"`
	Number  int     `json:"number"`
	Area    float64 `json:"area"`
	Overlap float64 `json:"overlap"`
}

// runSelect loads the inventory, resolves the region and prints the
// selection.
func runSelect(cmd *cobra.Command, path string, flags *selectFlags) error {
	// Step 1: Resolve configuration and region.
	cfg, err := loadSettings(cmd, &flags.synth)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	roi, err := buildROI(&flags.roi)
	if err != nil {
		return err
	}

	// Step 2: Load stands.
	inv, err := standdata.Load(path, logger)
	if err != nil {
		return err
	}

	// Step 3: Select.
	mode, _ := model.ParseSelectionMode(cfg.Selection)
	selected := region.Selector{Mode: mode}.Select(inv.Stands, roi)
	VerboseLog("Selected %d of %d stands (mode %s)", len(selected), len(inv.Stands), mode)

	rows := make([]selectedStand, 0, len(selected))
	for i := range selected {
		rows = append(rows, describeSelection(&selected[i], roi))
	}

	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		return printJSON(out, struct {
			Mode     string          `json:"mode"`
			Total    int             `json:"total"`
			Selected []selectedStand `json:"selected"`
		}{Mode: mode.String(), Total: len(inv.Stands), Selected: rows})
	}
	printSelectText(out, rows, len(inv.Stands))
	return nil
}

// describeSelection computes the overlap share of a selected stand. A nil
// roi means the whole stand is used.
func describeSelection(s *model.Stand, roi *model.RegionOfInterest) selectedStand {
	area := geometry.Area(s.Polygon)
	row := selectedStand{ID: s.ID, Number: s.Number, Area: hectares(area), Overlap: 1}
	if roi == nil || area == 0 {
		return row
	}
	clipped, err := geometry.Intersect(s.Polygon, roi.Polygon)
	if err != nil {
		row.Overlap = 0
		return row
	}
	row.Overlap = min(geometry.Area(clipped)/area, 1)
	return row
}

func printSelectText(w io.Writer, rows []selectedStand, total int) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "No stands selected (of %d).\n", total)
		return
	}
	fmt.Fprintf(w, "%-16s %-7s %-9s %s\n", "ID", "NUMBER", "AREA_HA", "OVERLAP")
	for _, r := range rows {
		fmt.Fprintf(w, "%-16s %-7d %-9.2f %.1f%%\n", r.ID, r.Number, r.Area, r.Overlap*100)
	}
	fmt.Fprintf(w, "\n%d of %d stands selected.\n", len(rows), total)
}
