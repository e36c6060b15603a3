// Package chart holds the declarative visualization specification exchanged
// between the analysis service, the canned scenarios and the terminal chart engine.
package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type Type string

const (
	TypeBar       Type = "bar"
	TypeLine      Type = "line"
	TypePie       Type = "pie"
	TypeDoughnut  Type = "doughnut"
	TypePolarArea Type = "polarArea"
	TypeRadar     Type = "radar"
)

// supportedTypes lists the chart kinds the terminal engine knows how to draw
var supportedTypes = map[Type]bool{
	TypeBar:       true,
	TypeLine:      true,
	TypePie:       true,
	TypeDoughnut:  true,
	TypePolarArea: true,
	TypeRadar:     true,
}

// IsCircular reports whether values are shares of a whole rather than magnitudes
func (t Type) IsCircular() bool {
	return t == TypePie || t == TypeDoughnut || t == TypePolarArea
}

// Spec mirrors the subset of a Chart.js configuration the engine understands.
type Spec struct {
	Type    Type    `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options,omitempty"`
}

type Data struct {
	Labels   LabelList `json:"labels,omitempty"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor ColorList `json:"backgroundColor,omitempty"`
	BorderColor     ColorList `json:"borderColor,omitempty"`
	BorderWidth     float64   `json:"borderWidth,omitempty"`
}

type Options struct {
	Responsive          bool            `json:"responsive,omitempty"`
	MaintainAspectRatio *bool           `json:"maintainAspectRatio,omitempty"`
	IndexAxis           string          `json:"indexAxis,omitempty"`
	Plugins             Plugins         `json:"plugins,omitempty"`
	Scales              map[string]Axis `json:"scales,omitempty"`
}

type Plugins struct {
	Legend *Legend `json:"legend,omitempty"`
	Title  *Title  `json:"title,omitempty"`
}

type Legend struct {
	Display  *bool  `json:"display,omitempty"`
	Position string `json:"position,omitempty"`
}

type Title struct {
	Display bool   `json:"display"`
	Text    string `json:"text,omitempty"`
}

type Axis struct {
	Title       *Title `json:"title,omitempty"`
	BeginAtZero bool   `json:"beginAtZero,omitempty"`
	Stacked     bool   `json:"stacked,omitempty"`
}

// ColorList accepts either a single CSS color or an array of them.
type ColorList []string

func (c *ColorList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ColorList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("color must be a string or array of strings: %w", err)
	}
	*c = list
	return nil
}

// At returns the color for index i, cycling when fewer colors than values are given.
func (c ColorList) At(i int) string {
	if len(c) == 0 {
		return ""
	}
	return c[i%len(c)]
}

// LabelList accepts string or numeric category labels.
type LabelList []string

func (l *LabelList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("labels must be an array: %w", err)
	}
	out := make(LabelList, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			out = append(out, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("label %d must be a string or number", i)
		}
		out = append(out, strconv.FormatFloat(n, 'f', -1, 64))
	}
	*l = out
	return nil
}

// TitleText returns the configured title, or "" when hidden.
func (s *Spec) TitleText() string {
	if s.Options.Plugins.Title == nil || !s.Options.Plugins.Title.Display {
		return ""
	}
	return s.Options.Plugins.Title.Text
}

// LegendVisible follows Chart.js: legends show unless explicitly disabled.
func (s *Spec) LegendVisible() bool {
	l := s.Options.Plugins.Legend
	if l == nil || l.Display == nil {
		return true
	}
	return *l.Display
}

// AxisTitle returns the title of the named scale ("x" or "y") when displayed.
func (s *Spec) AxisTitle(axis string) string {
	a, ok := s.Options.Scales[axis]
	if !ok || a.Title == nil || !a.Title.Display {
		return ""
	}
	return a.Title.Text
}

// Clone returns a deep copy; engine instances never share mutable state.
func (s *Spec) Clone() *Spec {
	if s == nil {
		return nil
	}
	out := &Spec{Type: s.Type}

	out.Data.Labels = append(LabelList(nil), s.Data.Labels...)
	out.Data.Datasets = make([]Dataset, len(s.Data.Datasets))
	for i, ds := range s.Data.Datasets {
		out.Data.Datasets[i] = Dataset{
			Label:           ds.Label,
			Data:            append([]float64(nil), ds.Data...),
			BackgroundColor: append(ColorList(nil), ds.BackgroundColor...),
			BorderColor:     append(ColorList(nil), ds.BorderColor...),
			BorderWidth:     ds.BorderWidth,
		}
	}

	out.Options.Responsive = s.Options.Responsive
	out.Options.IndexAxis = s.Options.IndexAxis
	if s.Options.MaintainAspectRatio != nil {
		v := *s.Options.MaintainAspectRatio
		out.Options.MaintainAspectRatio = &v
	}
	if l := s.Options.Plugins.Legend; l != nil {
		lc := &Legend{Position: l.Position}
		if l.Display != nil {
			v := *l.Display
			lc.Display = &v
		}
		out.Options.Plugins.Legend = lc
	}
	if t := s.Options.Plugins.Title; t != nil {
		tc := *t
		out.Options.Plugins.Title = &tc
	}
	if s.Options.Scales != nil {
		out.Options.Scales = make(map[string]Axis, len(s.Options.Scales))
		for k, a := range s.Options.Scales {
			ac := a
			if a.Title != nil {
				tc := *a.Title
				ac.Title = &tc
			}
			out.Options.Scales[k] = ac
		}
	}

	return out
}

// ModalCopy is the spec used by the enlarged view: same data, always
// responsive and free to stretch to the modal's aspect ratio.
func (s *Spec) ModalCopy() *Spec {
	c := s.Clone()
	if c == nil {
		return nil
	}
	keep := false
	c.Options.Responsive = true
	c.Options.MaintainAspectRatio = &keep
	return c
}
