package models

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

// Outline is one segmented nucleus as handed over by the segmentation step
type Outline struct {
	// Name identifies the nucleus in reports
	Name string `yaml:"name"`

	// Family overrides the configured nucleus family for this outline
	Family string `yaml:"family,omitempty"`

	// Points are the ordered border coordinates in pixels
	Points [][2]float64 `yaml:"points,flow"`

	// Centroid is the centre of mass; derived from the points when absent
	Centroid *[2]float64 `yaml:"centroid,omitempty,flow"`

	// Measurements measured upstream; derived from the points when absent
	Measurements *Measurements `yaml:"measurements,omitempty"`

	// Spacing resamples the border to evenly spaced points when positive
	Spacing float64 `yaml:"spacing,omitempty"`
}

// Measurements are externally supplied size statistics
type Measurements struct {
	Area      float64 `yaml:"area"`
	Perimeter float64 `yaml:"perimeter"`
	Feret     float64 `yaml:"feret"`
}

// OutlineSet is a named batch of outlines, typically one image or one sample
type OutlineSet struct {
	Name     string    `yaml:"name"`
	Outlines []Outline `yaml:"outlines"`
}

// Vectors returns the points as vectors
func (o Outline) Vectors() []r2.Vec {
	v := make([]r2.Vec, len(o.Points))
	for i, p := range o.Points {
		v[i] = r2.Vec{X: p[0], Y: p[1]}
	}
	return v
}

// NewOutline builds an outline record from vectors
func NewOutline(name string, points []r2.Vec) Outline {
	o := Outline{Name: name, Points: make([][2]float64, len(points))}
	for i, p := range points {
		o.Points[i] = [2]float64{p.X, p.Y}
	}
	return o
}

// ReadOutlines decodes an outline set from YAML
func ReadOutlines(r io.Reader) (*OutlineSet, error) {
	var set OutlineSet
	if err := yaml.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("error parsing outlines: %w", err)
	}
	return &set, nil
}

// WriteOutlines encodes an outline set as YAML
func WriteOutlines(w io.Writer, set *OutlineSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("error writing outlines: %w", err)
	}
	return enc.Close()
}
