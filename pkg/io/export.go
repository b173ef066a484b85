package io

import (
	"encoding/json"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/phasehull/pkg/chempot"
	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/phase"
)

// Document is the serialized view of one stable complex.
type Document struct {
	Components  []string          `json:"components"`
	Temperature *float64          `json:"temperature,omitempty"`
	Stable      []EntryView       `json:"stable"`
	Unstable    []EntryView       `json:"unstable"`
	Diagram     *phase.Diagram    `json:"diagram"`
	ChemPot     *chempot.Polytope `json:"chempot,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// EntryView is an entry annotated with its position relative to the hull.
type EntryView struct {
	Label         string    `json:"label"`
	Composition   []float64 `json:"composition"`
	Energy        float64   `json:"energy"`
	EAboveHull    float64   `json:"e_above_hull"`
	Decomposition []Product `json:"decomposition,omitempty"`
}

// Product is one product of an unstable entry's decomposition.
type Product struct {
	Label    string  `json:"label"`
	Fraction float64 `json:"fraction"`
}

// NewDocument assembles the document for c and its derived diagram. d may
// be nil when regions are not wanted.
func NewDocument(components []string, c *phase.StableComplex, d *phase.Diagram) (*Document, error) {
	doc := &Document{Components: slices.Clone(components), Diagram: d}

	entries := append(slices.Clone(c.Cloud.Entries), c.Cloud.Shadowed...)
	for _, e := range entries {
		if doc.Temperature == nil && e.Temperature != nil {
			t := *e.Temperature
			doc.Temperature = &t
		}
		above, err := c.EnergyAboveHull(e)
		if err != nil {
			return nil, err
		}
		v := EntryView{
			Label:       e.Label,
			Composition: slices.Clone(e.Composition),
			Energy:      e.Energy,
			EAboveHull:  max(above, 0),
		}
		if c.IsStable(e.Label) {
			v.EAboveHull = 0
			doc.Stable = append(doc.Stable, v)
			continue
		}
		parts, err := c.Decomposition(e.Composition)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			v.Decomposition = append(v.Decomposition, Product{Label: p.Entry.Label, Fraction: p.Fraction})
		}
		doc.Unstable = append(doc.Unstable, v)
	}
	for _, w := range c.Warnings {
		doc.Warnings = append(doc.Warnings, w.Error())
	}
	return doc, nil
}

// WriteDocument encodes doc as indented JSON.
func WriteDocument(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return perr.Wrap(perr.ErrCodeInternal, err, "encode document")
	}
	return nil
}

// ExportDocument writes doc to a JSON file at path.
func ExportDocument(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return perr.Wrap(perr.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return WriteDocument(doc, f)
}

// ReadDocument decodes a document written by [WriteDocument].
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, perr.Wrap(perr.ErrCodeInvalidFormat, err, "decode document")
	}
	return &doc, nil
}
