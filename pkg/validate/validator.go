package validate

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"feedcheck/pkg/catalog"
	"feedcheck/pkg/feed"
)

// Validator evaluates feed records against the rulebook. Stateless beyond
// the immutable catalog, so one instance serves all requests.
type Validator struct {
	catalog *catalog.Catalog
}

// New creates a Validator over a loaded catalog.
func New(cat *catalog.Catalog) *Validator {
	return &Validator{catalog: cat}
}

// EvaluateRecord validates one record against the attributes applicable to
// the profile. Pure: no cross-record state, deterministic output ordered by
// rulebook position.
func (v *Validator) EvaluateRecord(record *feed.Record, profile string) []Issue {
	profile = v.catalog.Normalize(profile)
	specs := v.catalog.Lookup(profile)

	var issues []Issue
	emit := func(severity Severity, field, message, sample string) {
		issues = append(issues, Issue{
			RowIndex:    record.Row,
			ItemID:      record.Get("id"),
			ItemTitle:   record.Get("title"),
			Field:       field,
			Severity:    severity,
			Message:     message,
			SampleValue: sample,
		})
	}

	for i := range specs {
		spec := &specs[i]
		value := record.Get(spec.Name)

		if value == "" {
			v.checkMissing(record, spec, profile, emit)
			continue
		}

		if spec.Format != "" {
			if ok, msg := checkFormat(spec.Format, value); !ok {
				emit(SeverityWarning, spec.Name, fmt.Sprintf("%s %s.", spec.Name, msg), value)
			}
		}
		if spec.MaxLength > 0 && len(value) > spec.MaxLength {
			emit(SeverityWarning, spec.Name,
				fmt.Sprintf("%s exceeds %d characters; it may be truncated.", spec.Name, spec.MaxLength), value)
		}
		if spec.MaxItems > 0 {
			if n := len(splitList(value)); n > spec.MaxItems {
				emit(SeverityWarning, spec.Name,
					fmt.Sprintf("%s has %d entries; provide at most %d.", spec.Name, n, spec.MaxItems), value)
			}
		}
	}

	v.checkIdentifiers(record, emit)
	return issues
}

// checkMissing handles an absent attribute value according to its tier.
func (v *Validator) checkMissing(record *feed.Record, spec *catalog.AttributeSpec, profile string, emit func(Severity, string, string, string)) {
	switch spec.Importance {
	case catalog.ImportanceRequired:
		emit(SeverityError, spec.Name,
			fmt.Sprintf("%s is required for %s feeds.", spec.Name, profile), "")
	case catalog.ImportanceConditional:
		trigger := spec.RequiredWhen
		if trigger != nil && strings.EqualFold(record.Get(trigger.Attribute), trigger.Equals) {
			emit(SeverityError, spec.Name,
				fmt.Sprintf("%s is required when %s is %s.", spec.Name, trigger.Attribute, trigger.Equals), "")
		}
	case catalog.ImportanceRecommended:
		// The generic gtin suggestion only applies while identifiers exist.
		if spec.Name == "gtin" && strings.EqualFold(record.Get("identifier_exists"), "no") {
			return
		}
		emit(SeverityOpportunity, spec.Name,
			fmt.Sprintf("%s is recommended for %s feeds and is not set. %s", spec.Name, profile, spec.Description), "")
	case catalog.ImportanceOptional:
		emit(SeverityOpportunity, spec.Name,
			fmt.Sprintf("Optional attribute %s is not set. %s", spec.Name, spec.Description), "")
	}
}

// checkIdentifiers applies the cross-field product identifier rule: unless
// identifier_exists is no, a product needs a GTIN or both brand and mpn.
// GTIN well-formedness itself is covered by the gtin format checker.
func (v *Validator) checkIdentifiers(record *feed.Record, emit func(Severity, string, string, string)) {
	identifierExists := strings.ToLower(record.Get("identifier_exists"))
	if identifierExists == "no" {
		return
	}

	if record.Has("gtin") {
		return
	}
	if record.Has("brand") && record.Has("mpn") {
		return
	}
	emit(SeverityError, "brand/mpn",
		"Provide a GTIN, or both brand and mpn, when product identifiers exist.", "")
}

// maxWorkers bounds concurrent record evaluation in EvaluateBatch.
var maxWorkers = runtime.NumCPU()

// EvaluateBatch validates all records concurrently. Records are independent
// (no cross-record state in EvaluateRecord), so scheduling order cannot
// change the result: per-record issue slices are merged back in row order.
// The cross-row variant check runs afterwards on the full batch.
func (v *Validator) EvaluateBatch(ctx context.Context, records []feed.Record, profile string) (*Report, error) {
	profile = v.catalog.Normalize(profile)

	perRecord := make([][]Issue, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("validation cancelled: %w", err)
			}
			perRecord[i] = v.EvaluateRecord(&records[i], profile)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var issues []Issue
	for _, recordIssues := range perRecord {
		issues = append(issues, recordIssues...)
	}

	if profile == catalog.ProfileGeneral || profile == catalog.ProfileApparel {
		issues = append(issues, checkVariantGroups(records)...)
	}

	if issues == nil {
		issues = []Issue{}
	}
	return &Report{
		Profile: profile,
		Issues:  issues,
		Summary: Summarize(issues, len(records)),
	}, nil
}
