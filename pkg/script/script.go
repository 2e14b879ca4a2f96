// Package script loads and replays edit scripts: a sequence of splices and
// queries run against a fresh patch.Patch. Scripts are the fixture format of
// the replay command and a convenient way to reproduce a tree shape from a
// seed.
package script

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// Sentinel errors.
var (
	ErrInvalidScript     = errors.New("invalid script")
	ErrUnsupportedFormat = errors.New("unsupported script format")
	ErrCorrupt           = errors.New("patch invariant broken")
)

//go:embed schema.json
var schemaJSON []byte

// Format is the encoding of a script.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath guesses the format from a file extension. Anything that is
// not .json is read as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}

	return FormatYAML
}

// Space names a coordinate space in query steps.
type Space string

// Coordinate spaces.
const (
	SpaceInput  Space = "input"
	SpaceOutput Space = "output"
)

// Script is a decoded replay script.
type Script struct {
	Name     string  `json:"name,omitempty"     yaml:"name,omitempty"`
	Seed     *uint64 `json:"seed,omitempty"     yaml:"seed,omitempty"`
	Validate bool    `json:"validate,omitempty" yaml:"validate,omitempty"`
	Steps    []Step  `json:"steps"              yaml:"steps"`
}

// Step holds exactly one operation.
type Step struct {
	Splice      *Splice   `json:"splice,omitempty"       yaml:"splice,omitempty"`
	SpliceInput *Splice   `json:"splice_input,omitempty" yaml:"splice_input,omitempty"`
	Translate   *Query    `json:"translate,omitempty"    yaml:"translate,omitempty"`
	Changed     *Query    `json:"changed,omitempty"      yaml:"changed,omitempty"`
	Changes     *struct{} `json:"changes,omitempty"      yaml:"changes,omitempty"`
}

// Kind names the operation the step holds.
func (s Step) Kind() string {
	switch {
	case s.Splice != nil:
		return "splice"
	case s.SpliceInput != nil:
		return "splice_input"
	case s.Translate != nil:
		return "translate"
	case s.Changed != nil:
		return "changed"
	case s.Changes != nil:
		return "changes"
	default:
		return ""
	}
}

// Splice replaces Replaced worth of text at Start. The replacement extent
// is Replacement when set and the extent of Text otherwise.
type Splice struct {
	Start       point.Point  `json:"start"                 yaml:"start"`
	Replaced    point.Point  `json:"replaced"              yaml:"replaced"`
	Replacement *point.Point `json:"replacement,omitempty" yaml:"replacement,omitempty"`
	Text        string       `json:"text,omitempty"        yaml:"text,omitempty"`
}

func (s *Splice) replacement() point.Point {
	if s.Replacement != nil {
		return *s.Replacement
	}

	return point.ExtentOf(s.Text)
}

// Query asks about one position.
type Query struct {
	Space    Space       `json:"space"    yaml:"space"`
	Position point.Point `json:"position" yaml:"position"`
}

// Load reads, validates and decodes a script.
func Load(r io.Reader, format Format) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var doc any

	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	err = validate(doc)
	if err != nil {
		return nil, err
	}

	var s Script

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&s)
	default:
		err = yaml.Unmarshal(data, &s)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	return &s, nil
}

func validate(doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		msgs = append(msgs, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidScript, strings.Join(msgs, "; "))
}

// Encode writes s in format.
func Encode(w io.Writer, s *Script, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(s)
		if err != nil {
			return err
		}

		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// newPatch returns the patch a run of s starts from.
func (s *Script) newPatch() *patch.Patch {
	if s.Seed == nil {
		return patch.New()
	}

	return patch.New(patch.WithSeed(*s.Seed))
}
