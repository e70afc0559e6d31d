package content

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	bf "github.com/russross/blackfriday"
)

// Registered content type names.
const (
	RichTextName    = "richtext"
	ImageName       = "image"
	ApplicationName = "application"
	MarkupName      = "markup"
	WikiSnippetName = "wikisnippet"
)

// RichText is a block of HTML entered through an editor.
type RichText struct {
	Text string `json:"text"`
}

// Validate implements validation.Validatable.
func (r RichText) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required),
	)
}

// Render returns the sanitized HTML.
func (r RichText) Render(_ context.Context) (template.HTML, error) {
	return template.HTML(ugc.Sanitize(r.Text)), nil //nolint:gosec // sanitized above
}

// RichTextType returns the rich text content type.
func RichTextType() Type {
	return Type{
		Name:  RichTextName,
		Label: "Rich text",
		decode: func(data []byte) (Renderer, error) {
			var b RichText
			if err := decodeBlock(RichTextName, data, &b); err != nil {
				return nil, err
			}
			return b, nil
		},
	}
}

var imageSrc = regexp.MustCompile(`^(https?://|/)\S+$`)

// Image is a picture shown at one of the registered positions.
type Image struct {
	Src      string `json:"src"`
	Caption  string `json:"caption"`
	Position string `json:"position"`

	positions []Choice
}

// Validate implements validation.Validatable.
func (i Image) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Src, validation.Required, validation.Match(imageSrc)),
		validation.Field(&i.Position, validation.Required, validation.In(choiceKeys(i.positions)...)),
	)
}

// Render returns a figure element carrying the position as CSS class.
func (i Image) Render(_ context.Context) (template.HTML, error) {
	out := fmt.Sprintf(`<figure class="image image-%s"><img src="%s" alt="%s">`,
		html.EscapeString(i.Position), html.EscapeString(i.Src), html.EscapeString(i.Caption))
	if i.Caption != "" {
		out += "<figcaption>" + html.EscapeString(i.Caption) + "</figcaption>"
	}
	out += "</figure>"
	return template.HTML(out), nil //nolint:gosec // every value is escaped
}

// ImageType returns the image content type accepting the given positions.
func ImageType(positions ...Choice) Type {
	return Type{
		Name:  ImageName,
		Label: "Image",
		decode: func(data []byte) (Renderer, error) {
			b := Image{positions: positions}
			if err := decodeBlock(ImageName, data, &b); err != nil {
				return nil, err
			}
			return b, nil
		},
	}
}

// App is an application that can be embedded in a page.
type App struct {
	Choice
	Renderer Renderer
}

// Application embeds one of the allow-listed applications.
type Application struct {
	URLs string `json:"urls"`

	apps map[string]App
}

// Validate implements validation.Validatable.
func (a Application) Validate() error {
	keys := make([]any, 0, len(a.apps))
	for k := range a.apps {
		keys = append(keys, k)
	}
	return validation.ValidateStruct(&a,
		validation.Field(&a.URLs, validation.Required, validation.In(keys...)),
	)
}

// Render delegates to the embedded application.
func (a Application) Render(ctx context.Context) (template.HTML, error) {
	app, ok := a.apps[a.URLs]
	if !ok {
		return "", fmt.Errorf("application %q is not allowed", a.URLs)
	}
	return app.Renderer.Render(ctx)
}

// ApplicationType returns the application content type restricted to apps.
func ApplicationType(apps ...App) Type {
	byKey := make(map[string]App, len(apps))
	for _, app := range apps {
		byKey[app.Key] = app
	}
	return Type{
		Name:  ApplicationName,
		Label: "Application content",
		decode: func(data []byte) (Renderer, error) {
			b := Application{apps: byKey}
			if err := decodeBlock(ApplicationName, data, &b); err != nil {
				return nil, err
			}
			return b, nil
		},
	}
}

// Markup is plain text written in a lightweight markup language.
type Markup struct {
	Content string `json:"content"`
}

// Validate implements validation.Validatable.
func (m Markup) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Content, validation.Required),
	)
}

// Render converts the markup to sanitized HTML.
func (m Markup) Render(_ context.Context) (template.HTML, error) {
	return template.HTML(ugc.SanitizeBytes(bf.MarkdownCommon([]byte(m.Content)))), nil //nolint:gosec // sanitized
}

// MarkupType returns the markup text content type.
func MarkupType() Type {
	return Type{
		Name:  MarkupName,
		Label: "Markup text",
		decode: func(data []byte) (Renderer, error) {
			var b Markup
			if err := decodeBlock(MarkupName, data, &b); err != nil {
				return nil, err
			}
			return b, nil
		},
	}
}

// SnipSource resolves wiki snippet references. It returns a nil Renderer
// when the snippet does not exist.
type SnipSource interface {
	LookupSnip(ctx context.Context, id int64) (Renderer, error)
}

// WikiSnippet embeds a wiki snippet, which renders itself.
type WikiSnippet struct {
	SnipID *int64 `json:"snip_id"`

	source SnipSource
}

// Validate implements validation.Validatable.
func (w WikiSnippet) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.SnipID, validation.Min(int64(1))),
	)
}

// Render returns the snippet's own rendering, or nothing if the reference
// is unset or dangling.
func (w WikiSnippet) Render(ctx context.Context) (template.HTML, error) {
	if w.SnipID == nil {
		return "", nil
	}
	snip, err := w.source.LookupSnip(ctx, *w.SnipID)
	if err != nil {
		return "", fmt.Errorf("lookup snip %d: %w", *w.SnipID, err)
	}
	if snip == nil {
		return "", nil
	}
	return snip.Render(ctx)
}

// WikiSnippetType returns the wiki snippet content type.
func WikiSnippetType(source SnipSource) Type {
	return Type{
		Name:  WikiSnippetName,
		Label: "Wiki snippet",
		decode: func(data []byte) (Renderer, error) {
			b := WikiSnippet{source: source}
			if err := decodeBlock(WikiSnippetName, data, &b); err != nil {
				return nil, err
			}
			return b, nil
		},
	}
}
