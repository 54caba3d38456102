// Package derive shapes raw, partially-nested records from the remote
// API into the flat Contact view model the dashboard renders. Derivation
// is pure: missing sub-objects default to empty values and a corrupt
// additional_data payload never fails the row.
package derive

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
)

// displayTimeFormat is the fixed German display format, e.g.
// "24.12.2025 - 09:30 Uhr".
const displayTimeFormat = "02.01.2006 - 15:04"

// sourceTimeFormats are the timestamp layouts the remote API has been
// observed to emit.
var sourceTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// StatusResolver derives the display status of one raw record. The
// pipeline screen and the leadpool screen apply genuinely different
// rules to the same records, so the rule is a parameter rather than two
// diverging copies of the deriver.
type StatusResolver func(record *domain.RawContactRecord) string

// PipelineStatus is the status rule of the pipeline screen: the
// customer's CRM status, defaulting to "No Status".
func PipelineStatus(record *domain.RawContactRecord) string {
	if record.Customer.Status != "" {
		return record.Customer.Status
	}
	return "No Status"
}

// LeadpoolStatus is the status rule of the leadpool screen: the
// appointment-confirmation flag mapped to its two fixed display strings.
func LeadpoolStatus(record *domain.RawContactRecord) string {
	if record.User.IsApproved {
		return "Terminiert"
	}
	return "Nicht erreicht"
}

// Context carries the derivation inputs that do not live on the records
// themselves.
type Context struct {
	// PipelineName and PipelineSource are fallbacks for records whose
	// nested pipeline sub-object lacks them.
	PipelineName   string
	PipelineSource string
	// HasDataLoaded and IdentityMatch gate derivation entirely: until the
	// load sequence for the current pipeline has completed, and unless
	// the loaded identity still matches the selected one, no output is
	// produced. This re-check is deliberate even when callers already
	// gate rendering, because the identity can advance again between a
	// caller's check and the derivation itself.
	HasDataLoaded bool
	IdentityMatch bool
	// Status resolves the display status; nil defaults to PipelineStatus.
	Status StatusResolver
}

// Contacts derives the display view model from raw records. Output order
// matches input order; callers needing stage-grouped numbers filter this
// output instead of re-deriving.
func Contacts(records []domain.RawContactRecord, dctx Context, logger *zap.Logger) []domain.Contact {
	if !dctx.HasDataLoaded || !dctx.IdentityMatch || len(records) == 0 {
		return []domain.Contact{}
	}

	status := dctx.Status
	if status == nil {
		status = PipelineStatus
	}

	contacts := make([]domain.Contact, 0, len(records))
	for i := range records {
		contacts = append(contacts, contact(&records[i], dctx, status, logger))
	}
	return contacts
}

func contact(record *domain.RawContactRecord, dctx Context, status StatusResolver, logger *zap.Logger) domain.Contact {
	additional := ParseAdditionalData(record.Customer.AdditionalData, logger)

	c := domain.Contact{
		ID:        firstNonEmpty(record.User.ID, record.Customer.ID, record.ID),
		FirstName: record.User.FirstName,
		LastName:  record.User.LastName,
		Phone:     firstNonEmpty(record.User.LeadPhone, record.User.Phone),
		Email:     firstNonEmpty(record.User.LeadEmail, record.User.Email),
		Company:   record.Customer.Company,
		Status:    status(record),
		Platform:  record.Customer.Platform,
		StageID:   record.Stage.ID,
		StageName: record.Stage.Name,
		Pipeline:  firstNonEmpty(record.Pipeline.Name, dctx.PipelineName),
		LeadSource: firstNonEmpty(
			record.Pipeline.Source,
			dctx.PipelineSource,
		),
		CreatedAt: formatCreatedAt(record, additional),
	}
	return c
}

// formatCreatedAt picks the display timestamp. A created_time inside
// additional_data wins over the record's own timestamps; customer
// timestamps win over user timestamps.
func formatCreatedAt(record *domain.RawContactRecord, additional map[string]interface{}) string {
	raw := firstNonEmpty(
		stringField(additional, "created_time"),
		record.Customer.CreatedAt,
		record.User.CreatedAt,
	)
	if raw == "" {
		return ""
	}
	return FormatDisplayTime(raw)
}

// FormatDisplayTime renders a source timestamp in the fixed German
// display format. Unparseable input is passed through unchanged rather
// than dropped, so an odd server value still shows something.
func FormatDisplayTime(raw string) string {
	for _, layout := range sourceTimeFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return fmt.Sprintf("%s Uhr", t.Format(displayTimeFormat))
		}
	}
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
