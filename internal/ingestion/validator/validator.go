// Package validator checks ingestion requests and reports per-field errors.
package validator

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexical-search-engine/internal/ingestion"
)

const (
	maxTitleLength = 1024
	maxBodyLength  = 1048576
	maxLinkLength  = 2048
	maxKeyLength   = 255
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// ValidateIngestRequest checks a request after any HTML extraction has
// replaced its body with plain text.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	if req.ID != nil && *req.ID < 0 {
		errs["id"] = "id must not be negative"
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if len(title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d bytes", maxTitleLength)
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		errs["body"] = "body is required"
	} else if len(body) > maxBodyLength {
		errs["body"] = fmt.Sprintf("body must be at most %d bytes", maxBodyLength)
	}
	if req.Link != "" {
		if len(req.Link) > maxLinkLength {
			errs["link"] = fmt.Sprintf("link must be at most %d bytes", maxLinkLength)
		} else if u, err := url.Parse(req.Link); err != nil || u.Scheme == "" || u.Host == "" {
			errs["link"] = "link must be an absolute URL"
		}
	}
	switch req.Format {
	case "", ingestion.FormatText, ingestion.FormatHTML:
	default:
		errs["format"] = fmt.Sprintf("format must be %q or %q", ingestion.FormatText, ingestion.FormatHTML)
	}
	if len(req.IdempotencyKey) > maxKeyLength {
		errs["idempotency_key"] = fmt.Sprintf("idempotency key must be at most %d bytes", maxKeyLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
