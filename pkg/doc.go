// Package pkg provides the core libraries for Phasehull phase-stability
// analysis.
//
// # Overview
//
// Phasehull takes formation energies of compounds over a composition simplex
// and builds their lower convex hull. Entries on the hull are stable; every
// other entry decomposes into the stable phases of the facet beneath it. The
// pkg directory is organized into three areas:
//
//  1. Engine - geometry, hull construction and the thermodynamic views
//  2. Pipeline - validation, caching and serialization around the engine
//  3. Infrastructure - configuration, errors, caches and metrics
//
// # Architecture
//
// The typical data flow:
//
//	Dataset or Series (JSON)
//	         ↓
//	    [io] package (decode and normalize compositions)
//	         ↓
//	    [phase] package (lift to energy space, quickhull via [hull])
//	         ↓
//	    [phase.DeriveRegions], [thermo], [chempot] (derived views)
//	         ↓
//	    [io.Document] (JSON output)
//
// # Quick Start
//
//	entries := []phase.Entry{
//	    {Label: "Fe", Composition: []float64{1, 0}, Energy: 0},
//	    {Label: "O", Composition: []float64{0, 1}, Energy: 0},
//	    {Label: "FeO", Composition: []float64{0.5, 0.5}, Energy: -1.5},
//	}
//	c, _ := phase.Build(entries, hull.WithTolerance(1e-9))
//	for _, e := range c.Stable() {
//	    fmt.Println(e.Label)
//	}
//
// # Main Packages
//
// ## Engine
//
// [geom] - Orientation predicates, hyperplanes, barycentric coordinates and
// small dense solves backed by gonum.
//
// [hull] - N-dimensional Quickhull with tolerance-scaled predicates and
// precision warnings.
//
// [phase] - Entries, the lifted point cloud, the stable complex, decompositions
// and phase regions with tie-lines.
//
// [thermo] - Temperature series: interpolated slices, sweeps and the invariant
// points where stable phases appear or vanish.
//
// [chempot] - Chemical-potential polytope of a stable complex projected onto
// three axes.
//
// ## Pipeline
//
// [pipeline] - Validated, cached Analyze, Sweep and ChemPot stages shared by
// the CLI and the HTTP server.
//
// [io] - Dataset and series decoding, result documents.
//
// ## Infrastructure
//
// [cache] - Result caches: file (CLI default), Redis, MongoDB and null.
//
// [config] - TOML configuration with defaults and validation.
//
// [errors] - Coded errors that map to exit messages and HTTP statuses.
//
// [observability] - Pipeline, cache and HTTP hooks with a Prometheus
// implementation.
//
// [buildinfo] - Version information stamped at link time.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/hull/...      # Specific package
//	go test -run Example ./...  # Examples only
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/geom
// [hull]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/hull
// [phase]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/phase
// [phase.DeriveRegions]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/phase#DeriveRegions
// [thermo]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/thermo
// [chempot]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/chempot
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/io
// [io.Document]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/io#Document
// [cache]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/phasehull/pkg/buildinfo
package pkg
