package io

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/phase"
)

// Dataset is a decoded entry list.
type Dataset struct {
	Components []string
	Entries    []phase.Entry
}

// Series is a decoded temperature series, keyed by temperature.
type Series struct {
	Components []string
	Samples    map[float64][]phase.Entry
}

type datasetFile struct {
	Components []string    `json:"components"`
	Entries    []entryFile `json:"entries"`
}

type seriesFile struct {
	Components []string `json:"components"`
	Samples    []struct {
		Temperature *float64    `json:"temperature"`
		Entries     []entryFile `json:"entries"`
	} `json:"samples"`
}

type entryFile struct {
	Label       string          `json:"label"`
	Composition json.RawMessage `json:"composition"`
	Energy      *float64        `json:"energy"`
}

// ReadDataset decodes a dataset from r. ReadDataset does not close r.
func ReadDataset(r io.Reader) (*Dataset, error) {
	var data datasetFile
	if err := decode(r, &data); err != nil {
		return nil, err
	}
	entries, components, err := resolveEntries(data.Components, data.Entries)
	if err != nil {
		return nil, err
	}
	return &Dataset{Components: components, Entries: entries}, nil
}

// ImportDataset reads a dataset file.
func ImportDataset(path string) (*Dataset, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDataset(f)
}

// ReadSeries decodes a temperature series from r. ReadSeries does not close r.
func ReadSeries(r io.Reader) (*Series, error) {
	var data seriesFile
	if err := decode(r, &data); err != nil {
		return nil, err
	}
	if len(data.Samples) == 0 {
		return nil, perr.New(perr.ErrCodeInvalidFormat, "series has no samples")
	}

	out := &Series{Components: data.Components, Samples: make(map[float64][]phase.Entry, len(data.Samples))}
	for i, s := range data.Samples {
		if s.Temperature == nil {
			return nil, perr.New(perr.ErrCodeInvalidFormat, "sample %d has no temperature", i)
		}
		t := *s.Temperature
		if _, dup := out.Samples[t]; dup {
			return nil, perr.New(perr.ErrCodeInvalidFormat, "duplicate sample temperature %g", t)
		}
		entries, components, err := resolveEntries(out.Components, s.Entries)
		if err != nil {
			return nil, perr.Wrap(perr.GetCode(err), err, "sample %g", t)
		}
		out.Components = components
		out.Samples[t] = entries
	}
	return out, nil
}

// ImportSeries reads a series file.
func ImportSeries(path string) (*Series, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSeries(f)
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, perr.Wrap(perr.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, perr.Wrap(perr.ErrCodeInvalidPath, err, "open %s", path)
	}
	return f, nil
}

func decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return perr.Wrap(perr.ErrCodeInvalidFormat, err, "decode")
	}
	return nil
}

// resolveEntries converts raw entries to validated phase entries. When
// components is empty it is inferred from the first fraction array as
// generic names.
func resolveEntries(components []string, raw []entryFile) ([]phase.Entry, []string, error) {
	if len(raw) == 0 {
		return nil, nil, perr.New(perr.ErrCodeInvalidFormat, "no entries")
	}
	entries := make([]phase.Entry, 0, len(raw))
	for i, r := range raw {
		if r.Energy == nil {
			return nil, nil, perr.New(perr.ErrCodeInvalidFormat, "entry %d (%s) has no energy", i, r.Label)
		}
		comp, err := parseComposition(r.Composition, components)
		if err != nil {
			return nil, nil, perr.Wrap(perr.GetCode(err), err, "entry %s", r.Label)
		}
		if len(components) == 0 {
			components = genericNames(len(comp))
		}
		e, err := phase.NewEntry(r.Label, comp, *r.Energy)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, e)
	}
	return entries, components, nil
}

func parseComposition(raw json.RawMessage, components []string) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, perr.New(perr.ErrCodeInvalidFormat, "missing composition")
	}

	if raw[0] == '[' {
		var fractions []float64
		if err := json.Unmarshal(raw, &fractions); err != nil {
			return nil, perr.Wrap(perr.ErrCodeInvalidFormat, err, "composition")
		}
		if len(components) > 0 && len(fractions) != len(components) {
			return nil, perr.New(perr.ErrCodeInvalidComposition,
				"composition has %d fractions, want %d", len(fractions), len(components))
		}
		return fractions, nil
	}

	var amounts map[string]float64
	if err := json.Unmarshal(raw, &amounts); err != nil {
		return nil, perr.Wrap(perr.ErrCodeInvalidFormat, err, "composition")
	}
	if len(components) == 0 {
		return nil, perr.New(perr.ErrCodeInvalidFormat, "amount compositions need a components list")
	}
	index := make(map[string]int, len(components))
	for i, c := range components {
		index[c] = i
	}
	out := make([]float64, len(components))
	var total float64
	for name, amount := range amounts {
		i, ok := index[name]
		if !ok {
			return nil, perr.New(perr.ErrCodeInvalidComposition, "unknown component: %s", name)
		}
		if amount < 0 {
			return nil, perr.New(perr.ErrCodeInvalidComposition, "negative amount of %s: %g", name, amount)
		}
		out[i] = amount
		total += amount
	}
	if total <= 0 {
		return nil, perr.New(perr.ErrCodeInvalidComposition, "composition is empty")
	}
	for i := range out {
		out[i] /= total
	}
	return out, nil
}

func genericNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = string(rune('A' + i))
	}
	return names
}
