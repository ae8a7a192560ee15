package tre

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"votolocal-backend/lib/textutil"
	"votolocal-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Lookup drives one subject through the interaction protocol:
// navigate → consent → fill → submit → await → classify → extract.
// Failures come back classified, never as a bare error.
func (c *Client) Lookup(ctx context.Context, subject Subject) Outcome {
	ctx, span := tracer.Start(ctx, "Lookup")
	defer span.End()

	out, doc := c.lookup(ctx, subject)
	span.SetAttributes(attribute.String("status", out.Status.String()))
	switch out.Status {
	case StatusTransient, StatusFatal:
		if out.Err != nil {
			span.RecordError(out.Err)
		}
		span.SetStatus(codes.Error, out.Reason)
		c.snapshot(subject, doc)
	}
	return out
}

func (c *Client) lookup(ctx context.Context, subject Subject) (Outcome, *goquery.Document) {
	navCtx, cancel := context.WithTimeout(ctx, c.profile.NavigateTimeout)
	doc, err := c.fetchDoc(navCtx, c.profile.LookupURL)
	cancel()
	if err != nil {
		return Fatal("timeout", fmt.Errorf("navigate: %w", err)), nil
	}

	// absence of the consent prompt is not an error
	c.dismissConsent(ctx, doc)

	sub, doc, out, ok := c.fillForm(ctx, doc, subject)
	if !ok {
		return out, doc
	}

	doc, out, ok = c.submitAndAwait(ctx, doc, sub)
	if !ok {
		return out, doc
	}

	// the not-found surface is structurally different from the found
	// surface, classification has to come before any extraction
	if doc.Find(c.profile.NotFoundSelector).Length() > 0 {
		return NotFound(), doc
	}

	record, err := c.extract(doc)
	if err != nil {
		return Fatal("extraction-incomplete", err), doc
	}
	return Found(record), doc
}

func (c *Client) dismissConsent(ctx context.Context, doc *goquery.Document) {
	button := doc.Find(c.profile.ConsentButton)
	if button.Length() == 0 {
		return
	}
	if target, ok := button.Attr("data-url"); ok && target != "" {
		if _, err := c.http.R().SetContext(ctx).Get(c.resolveRef(target)); err != nil {
			slog.DebugContext(ctx, "consent dismissal request failed", "err", err)
		}
	}
	slog.DebugContext(ctx, "dismissed consent prompt")
}

type submission struct {
	action string
	data   map[string]string
}

func (c *Client) fillForm(ctx context.Context, doc *goquery.Document, subject Subject) (submission, *goquery.Document, Outcome, bool) {
	var sub submission

	birth, err := timezone.ParseBirthDate(subject.BirthDate)
	if err != nil {
		return sub, doc, Fatal("invalid-birth-date", err), false
	}

	values := []struct {
		selector string
		value    string
	}{
		{c.profile.NameField, textutil.NormalizeName(subject.Name)},
		{c.profile.BirthField, birth.Format(c.profile.DateLayout)},
		{c.profile.MotherField, textutil.NormalizeName(subject.MotherName)},
	}

	sub.data = map[string]string{}
	var field *goquery.Selection
	for _, v := range values {
		field, doc, err = c.waitForField(ctx, doc, v.selector)
		if err != nil {
			return sub, doc, Fatal("field-not-found", err), false
		}
		sub.data[fieldName(field, v.selector)] = v.value
	}

	form := field.Closest("form")
	form.Find(`input[type="hidden"]`).Each(func(_ int, hidden *goquery.Selection) {
		name, ok := hidden.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, taken := sub.data[name]; taken {
			return
		}
		sub.data[name] = hidden.AttrOr("value", "")
	})
	sub.action = c.resolveRef(form.AttrOr("action", ""))

	return sub, doc, Outcome{}, true
}

func fieldName(field *goquery.Selection, selector string) string {
	if name, ok := field.Attr("name"); ok && name != "" {
		return name
	}
	return strings.TrimPrefix(selector, "#")
}

// waitForField gives an async-rendered form a bounded window to come up,
// re-fetching the page until the field is present.
func (c *Client) waitForField(ctx context.Context, doc *goquery.Document, selector string) (*goquery.Selection, *goquery.Document, error) {
	deadline := time.Now().Add(c.profile.FieldWait)
	for {
		if field := doc.Find(selector); field.Length() > 0 {
			return field.First(), doc, nil
		}
		if time.Now().After(deadline) {
			return nil, doc, fmt.Errorf("field %s did not appear within %s", selector, c.profile.FieldWait)
		}
		select {
		case <-ctx.Done():
			return nil, doc, ctx.Err()
		case <-time.After(c.profile.PollInterval):
		}
		if fresh, err := c.fetchDoc(ctx, c.profile.LookupURL); err == nil {
			doc = fresh
		}
	}
}

func (c *Client) submitAndAwait(ctx context.Context, doc *goquery.Document, sub submission) (*goquery.Document, Outcome, bool) {
	if doc.Find(c.profile.SubmitButton).Length() == 0 {
		return doc, Fatal(
			"submit-control-missing",
			fmt.Errorf("no %s control on the form page", c.profile.SubmitButton),
		), false
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(sub.data).
		Post(sub.action)
	if err != nil {
		return doc, Transient("submit-failed", err), false
	}
	result, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return doc, Fatal("malformed-result", err), false
	}

	resultURL := sub.action
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		resultURL = res.RawResponse.Request.URL.String()
	}

	// the remote renders asynchronously after submit, so a fixed state
	// (loading indicator gone) must be reached before inspecting the page
	deadline := time.Now().Add(c.profile.ResultWait)
	for strings.Contains(result.Text(), c.profile.LoadingText) {
		if time.Now().After(deadline) {
			return result, Transient(
				"timeout",
				fmt.Errorf("result did not render within %s", c.profile.ResultWait),
			), false
		}
		select {
		case <-ctx.Done():
			return result, Transient("timeout", ctx.Err()), false
		case <-time.After(c.profile.PollInterval):
		}
		if fresh, err := c.fetchDoc(ctx, resultURL); err == nil {
			result = fresh
		}
	}
	return result, Outcome{}, true
}
