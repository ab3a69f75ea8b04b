package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"finitefield.org/site-web/internal/cms"
	"finitefield.org/site-web/internal/contact"
	"finitefield.org/site-web/internal/contactform"
	"finitefield.org/site-web/internal/i18n"
	"finitefield.org/site-web/internal/middleware"
	"finitefield.org/site-web/internal/observability"
	"finitefield.org/site-web/internal/templates"
)

// PayloadLoader returns the build-time payload of a content block.
type PayloadLoader interface {
	Load(ctx context.Context, content, locale string) (cms.Payload, error)
}

// Contact serves the contact page, its live refresh and form submissions.
type Contact struct {
	Loader      PayloadLoader
	Live        contact.Fetcher
	Renderer    *templates.Renderer
	Bundle      *i18n.Bundle
	Validator   *contactform.Validator
	Store       contactform.Store
	BaseURL     string
	RefreshPath string
	FormPath    string
	Analytics   Analytics
}

func (h *Contact) lang(r *http.Request) string {
	return middleware.Lang(r.Context(), h.Bundle.Fallback())
}

func (h *Contact) pageData(r *http.Request, payload cms.Payload, form FormState) PageData {
	lang := h.lang(r)
	t := contact.Translator(h.Bundle.Translator(lang))
	form.Action = h.FormPath
	form.CSRFToken = middleware.CSRFToken(r.Context())
	return BuildContactData(ContactInput{
		Page:       contact.Build(payload, t, lang),
		Translate:  t,
		Locales:    h.Bundle.Supported(),
		BaseURL:    h.BaseURL,
		RefreshURL: h.RefreshPath,
		Form:       form,
		Analytics:  h.Analytics,
	})
}

// Page renders the contact page from the build-time payload.
func (h *Contact) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payload, err := h.Loader.Load(ctx, cms.ContactPage, h.lang(r))
	if err != nil {
		h.renderLoadError(w, r, err)
		return
	}
	var form FormState
	if r.URL.Query().Get("sent") == "1" {
		form.Status = FormSent
	}
	h.render(w, r, http.StatusOK, "base", h.pageData(r, payload, form))
}

// Refresh performs the one-shot live refresh for a rendered page. It answers
// 204 when nothing should change and the hero fragment as an out-of-band
// swap when the live content differs from what the page shows.
func (h *Contact) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	lang := h.lang(r)

	initial, err := h.Loader.Load(ctx, cms.ContactPage, lang)
	if err != nil {
		logger.Debug("contact refresh skipped", zap.Error(err))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	view := contact.NewView(initial, h.Live, lang, logger)
	defer view.Close()
	view.Mount(ctx)
	select {
	case <-view.Done():
	case <-ctx.Done():
		w.WriteHeader(http.StatusNoContent)
		return
	}

	outcome := view.Outcome()
	if outcome != contact.OutcomeSwapped && outcome != contact.OutcomeUnchanged {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	current := view.Payload()
	// digest names the payload the page shows; without it the cached
	// build-time payload stands in
	if digest := r.URL.Query().Get("digest"); digest != "" {
		if current.Digest() == digest {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	} else if outcome != contact.OutcomeSwapped {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	data := h.pageData(r, current, FormState{})
	data.Refresh = nil
	data.OOB = true
	h.render(w, r, http.StatusOK, "refresh", data)
}

// Submit validates and stores a contact form submission.
func (h *Contact) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	lang := h.lang(r)

	if err := r.ParseForm(); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	sub := contactform.Sanitize(contactform.FromForm(r.PostForm, lang))
	form := FormState{Values: sub}

	status := http.StatusOK
	if errs := h.Validator.Validate(lang, sub); len(errs) > 0 {
		form.Status = FormInvalid
		form.Errors = errs
		status = http.StatusUnprocessableEntity
	} else if rec, err := h.Store.Save(ctx, sub); err != nil {
		logger.Error("contact message not stored", zap.Error(err))
		form.Status = FormFailed
		status = http.StatusInternalServerError
	} else {
		logger.Info("contact message stored", zap.String("id", rec.ID), zap.String("locale", sub.Locale))
		if !middleware.IsHTMX(ctx) {
			http.Redirect(w, r, LivePath(lang)+"&sent=1", http.StatusSeeOther)
			return
		}
		form = FormState{Status: FormSent}
	}

	if middleware.IsHTMX(ctx) {
		data := h.pageData(r, cms.Payload{}, form)
		h.render(w, r, status, "contact-form", data)
		return
	}

	payload, err := h.Loader.Load(ctx, cms.ContactPage, lang)
	if err != nil {
		h.renderLoadError(w, r, err)
		return
	}
	h.render(w, r, status, "base", h.pageData(r, payload, form))
}

func (h *Contact) renderLoadError(w http.ResponseWriter, r *http.Request, err error) {
	lang := h.lang(r)
	status := http.StatusBadGateway
	msgKey := "site:error.unavailable"
	if errors.Is(err, cms.ErrNotFound) {
		status = http.StatusNotFound
		msgKey = "site:error.notFound"
	}
	observability.FromContext(r.Context()).Error("contact page content unavailable", zap.Error(err), zap.Int("status", status))
	t := h.Bundle.Translator(lang)
	if middleware.IsHTMX(r.Context()) {
		middleware.WriteError(w, r, status, t(msgKey))
		return
	}
	h.render(w, r, status, "base", BuildErrorData(lang, t, status, t(msgKey)))
}

func (h *Contact) render(w http.ResponseWriter, r *http.Request, status int, name string, data PageData) {
	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, name, data); err != nil {
		observability.FromContext(r.Context()).Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound renders the error page for unknown routes.
func (h *Contact) NotFound(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	t := h.Bundle.Translator(lang)
	if middleware.IsHTMX(r.Context()) {
		middleware.WriteError(w, r, http.StatusNotFound, t("site:error.notFound"))
		return
	}
	h.render(w, r, http.StatusNotFound, "base", BuildErrorData(lang, t, http.StatusNotFound, t("site:error.notFound")))
}
