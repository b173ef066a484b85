// Package io provides JSON import of phase datasets and export of derived
// diagrams.
//
// # Dataset Format
//
// A dataset names its components and lists one object per candidate phase:
//
//	{
//	  "components": ["Fe", "O"],
//	  "entries": [
//	    {"label": "Fe", "composition": [1, 0], "energy": 0},
//	    {"label": "O", "composition": {"O": 1}, "energy": 0},
//	    {"label": "Fe2O3", "composition": {"Fe": 2, "O": 3}, "energy": -1.71}
//	  ]
//	}
//
// A composition is either an array of fractions in component order (which
// must sum to 1) or an object of amounts keyed by component name, which is
// normalized. Components missing from an amounts object are zero.
//
// # Series Format
//
// A temperature series repeats the entry list per sample. Every sample must
// contain the same labels and compositions:
//
//	{
//	  "components": ["A", "B"],
//	  "samples": [
//	    {"temperature": 300, "entries": [...]},
//	    {"temperature": 600, "entries": [...]}
//	  ]
//	}
//
// # Import
//
// Use [ImportDataset] or [ImportSeries] to read from a file path, or
// [ReadDataset] and [ReadSeries] to read from any io.Reader. Decoding
// failures are reported as INVALID_FORMAT, bad compositions as
// INVALID_COMPOSITION.
//
// # Export
//
// [NewDocument] assembles the view of one stable complex consumed by
// rendering layers: stable and unstable entries with their energy above the
// hull and decomposition, the phase regions and tie-lines, and optionally the
// chemical-potential polytope. [WriteDocument] and [ExportDocument] encode it;
// [ReadDocument] decodes it again (the pipeline uses this for caching).
//
// # Concurrency
//
// All functions are safe for concurrent use. Decoded values are independent
// of the reader.
package io
