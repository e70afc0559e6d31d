package page

import (
	"fmt"
	"slices"
	"time"

	"website/internal/admin"
	"website/internal/content"
	"website/internal/model"
)

// Registry is the sealed page configuration.
type Registry struct {
	admin        *admin.ModelAdmin
	fields       []Field
	templates    []Template
	contentTypes []content.Type
	extensions   []string
}

// Admin returns the admin list configuration.
func (r *Registry) Admin() *admin.ModelAdmin {
	return r.admin
}

// Fields returns the schema fields added by extensions.
func (r *Registry) Fields() []Field {
	return slices.Clone(r.fields)
}

// Extensions returns the names of the registered extensions in order.
func (r *Registry) Extensions() []string {
	return slices.Clone(r.extensions)
}

// Templates returns the registered templates in order.
func (r *Registry) Templates() []Template {
	return slices.Clone(r.templates)
}

// Template returns the template with the given key.
func (r *Registry) Template(key string) (Template, bool) {
	i := slices.IndexFunc(r.templates, func(t Template) bool { return t.Key == key })
	if i < 0 {
		return Template{}, false
	}
	return r.templates[i], true
}

// DefaultTemplate returns the first registered template.
func (r *Registry) DefaultTemplate() Template {
	return r.templates[0]
}

// ContentTypes returns the registered content types in order.
func (r *Registry) ContentTypes() []content.Type {
	return slices.Clone(r.contentTypes)
}

// ContentType returns the content type with the given name.
func (r *Registry) ContentType(name string) (content.Type, bool) {
	i := slices.IndexFunc(r.contentTypes, func(ct content.Type) bool { return ct.Name == name })
	if i < 0 {
		return content.Type{}, false
	}
	return r.contentTypes[i], true
}

// ApplyDefaults prepares a new page: it runs every field default and
// falls back to the default template.
func (r *Registry) ApplyDefaults(p *model.Page, now time.Time) {
	for _, f := range r.fields {
		if f.Default != nil {
			f.Default(p, now)
		}
	}
	if p.TemplateKey == "" {
		p.TemplateKey = r.DefaultTemplate().Key
	}
}

// Block decodes a stored block, checking that its type is registered and
// its region exists in the template.
func (r *Registry) Block(tmpl Template, b model.ContentBlock) (content.Renderer, error) {
	if _, ok := tmpl.Region(b.Region); !ok {
		return nil, fmt.Errorf("template %q has no region %q", tmpl.Key, b.Region)
	}
	ct, ok := r.ContentType(b.Type)
	if !ok {
		return nil, fmt.Errorf("unknown content type %q", b.Type)
	}
	return ct.Decode(b.Data)
}
