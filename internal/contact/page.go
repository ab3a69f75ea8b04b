package contact

import (
	"html/template"
	"strings"

	"finitefield.org/site-web/internal/cms"
	"finitefield.org/site-web/internal/format"
)

// MapURL is the fixed Google Maps embed rendered below the address block.
const MapURL = "https://www.google.com/maps/embed?pb=!1m18!1m12!1m3!1d2739.944753194748!2d32.72212161499619!3d46.62785356306549!2m3!1f0!2f0!3f0!3m2!1i1024!2i768!4f13.1!3m3!1m2!1s0x40c40f670b27b8ef%3A0xcea91d5ee76fed07!2z0J7QkNCeIMKr0KbRjtGA0YPQv9C40L3RgdC60LDRjyDRiNCy0LXQudC90LDRjyDRhNCw0LHRgNC40LrQsCDCq9Cu0L3QvtGB0YLRjMK7!5e0!3m2!1sru!2sua!4v1624545632808!5m2!1sru!2sua"

// Property names read from the contact_page block.
const (
	PropTitle          = "title"
	PropImage          = "img"
	PropSEOTitle       = "seoTitle"
	PropSEODescription = "seoDescription"
	PropIntro          = "intro"
)

// Translator resolves a namespaced message key for the current locale.
type Translator func(key string) string

// Fields are the named values the layout and hero need.
type Fields struct {
	Title          string
	Image          string
	SEOTitle       string
	SEODescription string
}

// Extract reads the page fields, defaulting each to "".
func Extract(p cms.Payload) Fields {
	return Fields{
		Title:          p.Page.String(PropTitle),
		Image:          p.Page.String(PropImage),
		SEOTitle:       p.Page.String(PropSEOTitle),
		SEODescription: p.Page.String(PropSEODescription),
	}
}

// Company holds the localized organisation details shown in the address block.
type Company struct {
	Name          string
	AddressHeader string
	Address       string
	PhoneHeader   string
	Phone         string
	EmailHeader   string
	Email         string
	Hours         string
}

// Page is the render model of the contact page for one payload and locale.
type Page struct {
	Fields
	Lang        string
	Description string
	Intro       template.HTML
	LocateUs    string
	ReplyTime   string
	Company     Company
	MapURL      string
	MapTitle    string
	Digest      string
}

// Build assembles the render model. It never fails: missing properties
// render as empty strings.
func Build(p cms.Payload, t Translator, lang string) Page {
	if t == nil {
		t = func(key string) string { return key }
	}
	fields := Extract(p)
	intro := renderIntro(p.Page)

	description := fields.SEODescription
	if strings.TrimSpace(description) == "" {
		description = format.Description(string(intro))
	}

	return Page{
		Fields:      fields,
		Lang:        lang,
		Description: description,
		Intro:       intro,
		LocateUs:    t("contact:locateUs"),
		ReplyTime:   t("contact:replyTime"),
		Company: Company{
			Name:          t("company:name"),
			AddressHeader: t("company:addressHeader"),
			Address:       t("company:address"),
			PhoneHeader:   t("company:phoneHeader"),
			Phone:         t("company:phone"),
			EmailHeader:   t("company:emailHeader"),
			Email:         t("company:email"),
			Hours:         t("company:hours"),
		},
		MapURL:   MapURL,
		MapTitle: "map",
		Digest:   p.Digest(),
	}
}

func renderIntro(props cms.Properties) template.HTML {
	raw := props.String(PropIntro)
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	switch props.Kind(PropIntro) {
	case cms.TypeMarkdown:
		return format.Markdown(raw)
	case cms.TypeHTML:
		return format.SanitizeHTML(raw)
	default:
		return template.HTML("<p>" + template.HTMLEscapeString(strings.TrimSpace(raw)) + "</p>")
	}
}
