// Package domain models tide-gauge station records and the statistics derived
// from them.
//
// # Data Source
//
// Station files follow the fixed-layout text export used by the UK tide gauge
// network (BODC): one file per station per year, hourly or 15-minute sampling.
// The pipeline package parses every file in a directory and folds
// them into a single series with [Fuse].
//
// # File Layout
//
// The first ten lines are metadata and are never treated as data:
//
//	Port:              P035
//	Site:              Aberdeen
//	Latitude:          57.14406
//	Longitude:         -2.07792
//	Start Date:        01JAN1946-00.00.00
//	End Date:          31DEC1946-23.00.00
//	Contributor:       National Oceanography Centre, Liverpool
//	Datum information: The data refer to Admiralty Chart Datum (ACD)
//	Parameter code:    ASLVTD02 = Surface elevation (unspecified datum) ...
//	  Cycle    Date      Time    ASLVTD02   Residual
//
// The eleventh line usually carries column units and is skipped when it does
// not parse as a record. Data rows are whitespace separated; only positions 2-5
// are used:
//
//	Number yyyy mm dd hh mi ssf   f          f
//	    1) 1946/01/01 00:00:00     3.6329      0.2359
//	    2) 1946/01/01 01:00:00     3.5329M     0.2159M
//
// # Quality Flags
//
// A letter suffix on a value is a BODC quality flag: M (improbable),
// N (null), T (interpolated). Flagged tokens never parse as numbers, so they
// become missing [Level] values. Bare flags and sentinel tokens behave the same.
//
// # Time Axis
//
// Timestamps carry no zone in the source and are parsed as UTC. Trend slopes
// are reported in meters per Julian year (365.25 days). Harmonic phases are
// Greenwich phase lags in degrees, using the equilibrium argument and nodal
// corrections evaluated at the analysis start time.
package domain
