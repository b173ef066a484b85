// Package phase derives thermodynamic phase stability from formation energies.
//
// # Overview
//
// An [Entry] is a candidate phase: a composition on the simplex of N
// components and a formation energy per atom. [NewPointCloud] lifts entries
// into N-dimensional space by dropping the first composition coordinate and
// appending the energy, so the binary axis is the fraction of the second
// component:
//
//	lifted = (x_1, ..., x_{N-1}, E)
//
// [Build] computes the convex hull of the lifted cloud and keeps the facets
// that bound it from below in energy. Those facets form the [StableComplex]:
// a simplicial complex whose projection tiles the composition simplex. Its
// vertices are the thermodynamically stable entries.
//
//	c, err := phase.Build(entries)
//	if err != nil {
//	    return err
//	}
//	for _, e := range c.Stable() {
//	    fmt.Println(e.Label)
//	}
//	above, _ := c.EnergyAboveHull(candidate)
//
// [DeriveRegions] projects each stable facet onto the composition simplex,
// giving a [Diagram] of [PhaseRegion]s and [TieLine]s ready for rendering.
//
// # Conventions
//
// Facet normals point away from the hull. A facet is on the lower envelope
// when its normal's energy component is below -[NormalTolerance]; facets
// perpendicular to the energy axis are rejected.
//
// Every pure component must be present as a terminal entry, otherwise the
// envelope cannot cover the simplex and construction fails with
// MISSING_TERMINAL. The cloud carries one synthetic lid point above the
// centroid so flat datasets still produce a full-dimensional hull; facets
// touching it are never stable.
//
// # Integrity
//
// Every constructed complex is checked before it is returned: the projected
// facet measures must add up to the measure of the simplex and every interior
// ridge must be shared by exactly two stable facets. A failure is reported
// as COMPLEX_INTEGRITY rather than a silently wrong diagram.
package phase
