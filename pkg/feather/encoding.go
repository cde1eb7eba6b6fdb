package feather

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Only the source text and the escape mode of a Template are persisted.
// A decoded Template compiles lazily, exactly like one built with New.

type encodedTemplate struct {
	Source string `json:"source" yaml:"source"`
	Escape string `json:"escape" yaml:"escape"`
}

func (t *Template) encoded() encodedTemplate {
	return encodedTemplate{Source: t.src, Escape: t.mode.String()}
}

func (t *Template) decode(e encodedTemplate) error {
	mode, err := ParseEscapeMode(e.Escape)
	if err != nil {
		return err
	}
	t.src = e.Source
	t.mode = mode
	t.lazy = &lazyProgram{}
	return nil
}

func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.encoded())
}

func (t *Template) UnmarshalJSON(b []byte) error {
	var e encodedTemplate
	if err := json.Unmarshal(b, &e); err != nil {
		return err
	}
	return t.decode(e)
}

func (t *Template) MarshalYAML() (any, error) {
	return t.encoded(), nil
}

func (t *Template) UnmarshalYAML(node *yaml.Node) error {
	var e encodedTemplate
	if err := node.Decode(&e); err != nil {
		return err
	}
	return t.decode(e)
}

const (
	binaryMagic   = 'F'
	binaryVersion = 1
)

var errMalformedBinary = errors.New("malformed template encoding")

// MarshalBinary encodes t as a magic byte, a version byte, the escape mode
// byte, the uvarint length of the source and the source bytes.
func (t *Template) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 3+binary.MaxVarintLen64+len(t.src))
	b = append(b, binaryMagic, binaryVersion, byte(t.mode))
	b = binary.AppendUvarint(b, uint64(len(t.src)))
	return append(b, t.src...), nil
}

func (t *Template) UnmarshalBinary(b []byte) error {
	if len(b) < 3 {
		return errMalformedBinary
	}
	if b[0] != binaryMagic {
		return fmt.Errorf("%w: not a template encoding", ErrInvalidArgument)
	}
	if b[1] != binaryVersion {
		return fmt.Errorf("%w: unsupported template encoding version %d", ErrInvalidArgument, b[1])
	}
	mode := EscapeMode(b[2])
	if !mode.valid() {
		return fmt.Errorf("%w: unknown escape mode %d", ErrInvalidArgument, b[2])
	}
	n, w := binary.Uvarint(b[3:])
	if w <= 0 {
		return errMalformedBinary
	}
	rest := b[3+w:]
	if uint64(len(rest)) != n {
		return errMalformedBinary
	}
	t.src = string(rest)
	t.mode = mode
	t.lazy = &lazyProgram{}
	return nil
}
