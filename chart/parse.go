package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidSpec = errors.New("invalid chart specification")

var (
	// const config = {...};  (what the analysis service emits around its JSON)
	assignmentRegex = regexp.MustCompile(`(?s)^(?:const|let|var)\s+config\s*=\s*(.*?);?\s*$`)
	fenceRegex      = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// envelope is decoded strictly: anything beyond type/data/options is rejected.
type envelope struct {
	Type    Type            `json:"type"`
	Data    json.RawMessage `json:"data"`
	Options json.RawMessage `json:"options,omitempty"`
}

// rawData is the strict outer shape of data; each dataset is decoded on its own.
type rawData struct {
	Labels   LabelList         `json:"labels,omitempty"`
	Datasets []json.RawMessage `json:"datasets"`
}

// Parse turns a visualization directive into a validated Spec.
// The directive is data, never code: it must be a JSON object, optionally
// wrapped in a `const config = ...;` assignment or a markdown fence.
func Parse(directive string) (*Spec, error) {
	body := strings.TrimSpace(directive)
	if m := fenceRegex.FindStringSubmatch(body); m != nil {
		body = strings.TrimSpace(m[1])
	}
	if m := assignmentRegex.FindStringSubmatch(body); m != nil {
		body = strings.TrimSpace(m[1])
	}
	if body == "" {
		return nil, fmt.Errorf("%w: empty directive", ErrInvalidSpec)
	}

	var env envelope
	if err := decodeStrict([]byte(body), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	spec := &Spec{Type: env.Type}

	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data", ErrInvalidSpec)
	}
	var data rawData
	if err := decodeStrict(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrInvalidSpec, err)
	}
	spec.Data.Labels = data.Labels

	// Datasets routinely carry styling keys (fill, tension, hoverOffset,
	// pointRadius) the terminal engine does not draw. Those are ignored;
	// the known fields must still have the right types.
	for i, raw := range data.Datasets {
		var ds Dataset
		if err := json.Unmarshal(raw, &ds); err != nil {
			return nil, fmt.Errorf("%w: dataset %d: %v", ErrInvalidSpec, i, err)
		}
		spec.Data.Datasets = append(spec.Data.Datasets, ds)
	}

	// Options carry many presentation-only keys (tooltips, animation, fonts)
	// that the terminal engine ignores, so unknown keys are tolerated here.
	if len(env.Options) > 0 && !bytes.Equal(bytes.TrimSpace(env.Options), []byte("null")) {
		if err := json.Unmarshal(env.Options, &spec.Options); err != nil {
			return nil, fmt.Errorf("%w: options: %v", ErrInvalidSpec, err)
		}
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing content after JSON object")
	}
	return nil
}

// Validate checks the invariants the engine relies on.
func (s *Spec) Validate() error {
	if !supportedTypes[s.Type] {
		return fmt.Errorf("%w: unsupported chart type %q", ErrInvalidSpec, s.Type)
	}
	if len(s.Data.Datasets) == 0 {
		return fmt.Errorf("%w: no datasets", ErrInvalidSpec)
	}
	for i, ds := range s.Data.Datasets {
		if len(ds.Data) == 0 {
			return fmt.Errorf("%w: dataset %d has no values", ErrInvalidSpec, i)
		}
		if len(s.Data.Labels) > 0 && len(ds.Data) != len(s.Data.Labels) {
			return fmt.Errorf("%w: dataset %d has %d values for %d labels",
				ErrInvalidSpec, i, len(ds.Data), len(s.Data.Labels))
		}
		if s.Type.IsCircular() {
			for _, v := range ds.Data {
				if v < 0 {
					return fmt.Errorf("%w: negative value in %s chart", ErrInvalidSpec, s.Type)
				}
			}
		}
	}
	return nil
}
