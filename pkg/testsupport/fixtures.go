// Package testsupport holds fixtures shared by the package tests.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"testing"

	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// PaidRecord is a complete listing on a paid tier; the details step is
// skipped for it.
func PaidRecord() listing.Record {
	return listing.Record{
		Step:        1,
		Category:    "Car",
		Tier:        listing.TierGold,
		Title:       "Family estate",
		Description: "One owner, full service history",
	}
}

// FreeRecord is a complete listing on the free tier.
func FreeRecord() listing.Record {
	return listing.Record{
		Step:        1,
		Category:    "Property",
		Tier:        listing.TierFree,
		Title:       "Nice flat",
		Description: "Spacious",
	}
}

// PNG returns a tiny but valid PNG payload.
func PNG() []byte {
	return []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
		0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
		0x42, 0x60, 0x82,
	}
}

// Images returns n PNG attachments named photo-<i>.png.
func Images(n int) []listing.Attachment {
	out := make([]listing.Attachment, n)
	for i := range out {
		data := PNG()
		out[i] = listing.Attachment{
			Name:        "photo-" + strconv.Itoa(i) + ".png",
			ContentType: "image/png",
			Size:        int64(len(data)),
			Data:        data,
		}
	}
	return out
}

// Drive feeds rec's fields into c and advances until c reaches rec.Step or
// gets stuck. It fails the test on any edit error.
func Drive(t testing.TB, c *wizard.Controller, rec listing.Record, target int) {
	t.Helper()

	set := func(field string, value any) {
		if err := c.SetField(field, value); err != nil {
			t.Fatalf("set %s: %v", field, err)
		}
	}
	set(listing.FieldCategory, rec.Category)
	set(listing.FieldTier, rec.Tier)
	set(listing.FieldTitle, rec.Title)
	set(listing.FieldDescription, rec.Description)
	if rec.Attachments != nil {
		set(listing.FieldAttachments, rec.Attachments)
	}
	for c.Step() < target {
		if _, moved := c.Advance(); !moved {
			return
		}
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an
// io.Writer, returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
