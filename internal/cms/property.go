package cms

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Property types recognised by the renderers. The CMS treats type as a hint;
// anything else is rendered as a plain string.
const (
	TypeString   = "string"
	TypeText     = "text"
	TypeImage    = "image"
	TypeMarkdown = "markdown"
	TypeHTML     = "html"
)

// ContactPage is the content block holding the contact page copy.
const ContactPage = "contact_page"

// Property is one named, typed piece of editable page content.
type Property struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// Properties is the ordered property collection of a content block.
type Properties []Property

// Payload is the response envelope for one content block and locale.
type Payload struct {
	Page Properties `json:"page" yaml:"page"`
}

// Lookup returns the first property with the given name.
func (p Properties) Lookup(name string) (Property, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop, true
		}
	}
	return Property{}, false
}

// String returns the value of the named property or "" when absent.
func (p Properties) String(name string) string {
	prop, ok := p.Lookup(name)
	if !ok {
		return ""
	}
	return prop.Value
}

// Kind returns the normalised type of the named property, defaulting to TypeString.
func (p Properties) Kind(name string) string {
	prop, ok := p.Lookup(name)
	if !ok {
		return TypeString
	}
	switch t := strings.ToLower(strings.TrimSpace(prop.Type)); t {
	case TypeText, TypeImage, TypeMarkdown, TypeHTML:
		return t
	default:
		return TypeString
	}
}

// Equal reports whether a and b hold the same ordered properties.
// A nil and an empty collection compare equal.
func Equal(a, b Payload) bool {
	if len(a.Page) != len(b.Page) {
		return false
	}
	for i := range a.Page {
		if a.Page[i] != b.Page[i] {
			return false
		}
	}
	return true
}

// Clone returns a payload that shares no backing storage with p.
func (p Payload) Clone() Payload {
	if p.Page == nil {
		return Payload{}
	}
	out := make(Properties, len(p.Page))
	copy(out, p.Page)
	return Payload{Page: out}
}

// Digest returns a stable hex fingerprint of the ordered properties.
func (p Payload) Digest() string {
	h := sha256.New()
	for _, prop := range p.Page {
		for _, field := range []string{prop.Name, prop.Type, prop.Value} {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}
