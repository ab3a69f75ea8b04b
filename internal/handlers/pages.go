package handlers

import (
	"html/template"
	"net/url"
	"strings"

	"finitefield.org/site-web/internal/contact"
	"finitefield.org/site-web/internal/contactform"
	"finitefield.org/site-web/internal/nav"
	"finitefield.org/site-web/internal/seo"
)

// ContactPath is the live route of the contact page.
const ContactPath = "/contact"

// Form states rendered by the contact-form template.
const (
	FormSent    = "sent"
	FormInvalid = "invalid"
	FormFailed  = "failed"
)

// PageData is the view model rendered by the shared layout.
type PageData struct {
	Title     string
	Lang      string
	Locales   []LocaleLink
	SEO       seo.Meta
	JSONLD    []template.JS
	Analytics Analytics

	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	Contact contact.Page
	Refresh *RefreshData
	// OOB renders the hero as an htmx out-of-band swap.
	OOB     bool
	Form    FormState
	Error   *ErrorData

	translate contact.Translator
}

// T translates key for the page language.
func (p PageData) T(key string) string {
	if p.translate == nil {
		return key
	}
	return p.translate(key)
}

// LocaleLink switches the page to another language.
type LocaleLink struct {
	Lang    string
	Href    string
	Current bool
}

// RefreshData wires the one-shot htmx refresh of the hero.
type RefreshData struct {
	URL string
}

// FormState carries the contact form values, errors and submission status.
type FormState struct {
	Action    string
	CSRFToken string
	Values    contactform.Submission
	Errors    map[string]string
	Status    string
}

// HasError reports whether field failed validation.
func (f FormState) HasError(field string) bool {
	_, ok := f.Errors[field]
	return ok
}

// ErrorData describes an error page.
type ErrorData struct {
	Status  int
	Message string
}

// ContactInput collects what BuildContactData needs beyond the page itself.
type ContactInput struct {
	Page       contact.Page
	Translate  contact.Translator
	Locales    []string
	BaseURL    string
	RefreshURL string
	Form       FormState
	Analytics  Analytics
	// PathFor returns the page path for a locale. Defaults to ?hl= links on
	// the live route.
	PathFor func(lang string) string
}

// BuildContactData assembles the layout view model of the contact page.
func BuildContactData(in ContactInput) PageData {
	page := in.Page
	pathFor := in.PathFor
	if pathFor == nil {
		pathFor = LivePath
	}
	t := in.Translate
	if t == nil {
		t = func(key string) string { return key }
	}

	canonical := seo.AbsURL(in.BaseURL, pathFor(page.Lang))
	image := seo.AbsURL(in.BaseURL, page.Image)
	meta := seo.Meta{
		Title:       page.SEOTitle,
		Description: page.Description,
		Canonical:   canonical,
		Alternates:  seo.Alternates(in.BaseURL, in.Locales, pathFor),
		OG: seo.OpenGraph{
			Title:       page.SEOTitle,
			Description: page.Description,
			Image:       image,
			Type:        "website",
			URL:         canonical,
			Locale:      seo.OGLocale(page.Lang),
			SiteName:    t("site:title"),
		},
		Twitter: seo.Twitter{Card: "summary_large_image", Image: image},
	}

	org := seo.Organization(page.Company.Name, seo.AbsURL(in.BaseURL, "/"), page.Company.Phone, page.Company.Email, seo.PostalAddress(page.Company.Address))
	crumbs := nav.Breadcrumbs(ContactPath)
	items := make([]seo.BreadcrumbItem, 0, len(crumbs))
	for _, c := range crumbs {
		name := c.Label
		if c.LabelKey != "" {
			name = t(c.LabelKey)
		}
		items = append(items, seo.BreadcrumbItem{Name: name, Item: seo.AbsURL(in.BaseURL, c.Href)})
	}

	locales := make([]LocaleLink, 0, len(in.Locales))
	for _, l := range in.Locales {
		locales = append(locales, LocaleLink{Lang: l, Href: pathFor(l), Current: l == page.Lang})
	}

	data := PageData{
		Title:     page.Title,
		Lang:      page.Lang,
		Locales:   locales,
		SEO:       meta,
		Analytics: in.Analytics,
		JSONLD: []template.JS{
			seo.Script(seo.ContactPage(page.SEOTitle, page.Description, canonical, page.Lang, org)),
			seo.Script(seo.BreadcrumbList(items)),
		},
		Nav:         nav.Build(ContactPath),
		Breadcrumbs: crumbs,
		Contact:     page,
		Form:        in.Form,
		translate:   t,
	}
	if in.RefreshURL != "" {
		data.Refresh = &RefreshData{URL: RefreshURL(in.RefreshURL, page.Digest, page.Lang)}
	}
	return data
}

// BuildErrorData builds the view model of an error page.
func BuildErrorData(lang string, t contact.Translator, status int, message string) PageData {
	if t == nil {
		t = func(key string) string { return key }
	}
	return PageData{
		Title:     t("site:error.title"),
		Lang:      lang,
		SEO:       seo.Meta{Title: t("site:error.title")},
		Nav:       nav.Build(""),
		Error:     &ErrorData{Status: status, Message: message},
		translate: t,
	}
}

// LivePath links the live contact route in lang.
func LivePath(lang string) string {
	return ContactPath + "?hl=" + url.QueryEscape(lang)
}

// StaticPath links the statically generated contact page for lang.
func StaticPath(lang string) string {
	return "/" + lang + ContactPath + "/"
}

// RefreshURL appends the digest and locale to the refresh endpoint.
func RefreshURL(endpoint, digest, lang string) string {
	q := url.Values{}
	q.Set("digest", digest)
	q.Set("hl", lang)
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + q.Encode()
}
