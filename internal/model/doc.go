// Package model defines the domain types and value objects for the
// standsynth CLI.
//
// This package contains plain data structures shared by every stage of the
// synthesis pipeline: stands and their survey strata as loaded from the
// inventory file, the regions of interest used for clipping, and the
// compartments and trees produced for export. Geometry is represented with
// github.com/ctessum/geom polygons (ring 0 exterior, further rings holes).
//
// The package also defines the recoverable error kinds of the pipeline,
// the option enumerations selected through configuration, exit codes
// (ExitCode) and a custom error type (CLIError) that carries exit codes
// for proper OS process exit handling.
package model
