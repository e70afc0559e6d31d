// Package content implements the block types that can be placed in the
// regions of a page template.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	bm "github.com/microcosm-cc/bluemonday"
)

// Renderer turns a block into HTML.
type Renderer interface {
	Render(ctx context.Context) (template.HTML, error)
}

// Choice is a selectable option of a content type, such as an image
// position or an embeddable application.
type Choice struct {
	Key   string
	Title string
}

// Type describes a registrable block kind. The zero Type is unusable;
// build one with the constructors in this package.
type Type struct {
	Name   string
	Label  string
	decode func(data []byte) (Renderer, error)
}

// Decode parses and validates the stored payload of a block of this type.
func (t Type) Decode(data []byte) (Renderer, error) {
	if t.decode == nil {
		return nil, fmt.Errorf("content type %q cannot decode blocks", t.Name)
	}
	return t.decode(data)
}

// ugc is shared by every renderer; bluemonday policies are safe for
// concurrent use once built.
var ugc = bm.UGCPolicy()

// decodeBlock unmarshals data into v and validates it.
func decodeBlock(name string, data []byte, v validation.Validatable) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s block: %w", name, err)
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("invalid %s block: %w", name, err)
	}
	return nil
}

func choiceKeys(choices []Choice) []any {
	keys := make([]any, len(choices))
	for i, c := range choices {
		keys[i] = c.Key
	}
	return keys
}
