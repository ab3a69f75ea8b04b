package seo

import (
	"encoding/json"
	"html/template"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Script renders v as JSON suitable for a ld+json script element.
func Script(v any) template.JS {
	return template.JS(JSON(v))
}

// PostalAddress returns a schema.org PostalAddress with a free-form street.
func PostalAddress(street string) map[string]any {
	return map[string]any{
		"@type":         "PostalAddress",
		"streetAddress": street,
	}
}

// Organization returns a minimal Organization schema.
func Organization(name, url, telephone, email string, address map[string]any) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if telephone != "" {
		m["telephone"] = telephone
	}
	if email != "" {
		m["email"] = email
	}
	if address != nil {
		m["address"] = address
	}
	return m
}

// ContactPage returns a schema.org ContactPage describing the page itself.
func ContactPage(name, description, url, lang string, about map[string]any) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "ContactPage",
		"name":     name,
	}
	if description != "" {
		m["description"] = description
	}
	if url != "" {
		m["url"] = url
	}
	if lang != "" {
		m["inLanguage"] = lang
	}
	if about != nil {
		inner := make(map[string]any, len(about))
		for k, v := range about {
			if k == "@context" {
				continue
			}
			inner[k] = v
		}
		m["about"] = inner
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}
