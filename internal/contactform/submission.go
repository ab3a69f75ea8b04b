package contactform

import (
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Submission is a message sent through the contact form.
type Submission struct {
	Name    string `form:"name" validate:"required,max=120"`
	Email   string `form:"email" validate:"required,email,max=254"`
	Phone   string `form:"phone" validate:"omitempty,max=32,phone"`
	Subject string `form:"subject" validate:"max=200"`
	Message string `form:"message" validate:"required,min=10,max=5000"`
	Locale  string `form:"-" validate:"-"`
}

// Record is a stored submission.
type Record struct {
	ID        string
	CreatedAt time.Time
	Submission
}

var strictPolicy = bluemonday.StrictPolicy()

// FromForm reads a submission from posted form values.
func FromForm(values url.Values, locale string) Submission {
	return Submission{
		Name:    values.Get("name"),
		Email:   values.Get("email"),
		Phone:   values.Get("phone"),
		Subject: values.Get("subject"),
		Message: values.Get("message"),
		Locale:  locale,
	}
}

// Sanitize strips markup from every text field and trims surrounding space.
// Entities are decoded again so stored values are plain text.
func Sanitize(s Submission) Submission {
	clean := func(v string) string {
		return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(v)))
	}
	return Submission{
		Name:    clean(s.Name),
		Email:   strings.ToLower(clean(s.Email)),
		Phone:   clean(s.Phone),
		Subject: clean(s.Subject),
		Message: clean(s.Message),
		Locale:  strings.ToLower(strings.TrimSpace(s.Locale)),
	}
}
