package models

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

type SubmissionType string

const (
	SubmissionTypeNewEntry  SubmissionType = "new_entry"
	SubmissionTypeFieldEdit SubmissionType = "field_edit"
)

// Editable fields per subject type.
var EditableFields = map[string][]string{
	SubjectTypeArtwork: {"title", "description", "artist_names", "year_created", "medium", "dimensions", "tags"},
	SubjectTypeArtist:  {"name", "biography", "website", "birth_year", "death_year", "nationality"},
}

// Fields accepted on a new field report in addition to the required location.
var NewEntryFields = []string{
	"lat", "lon", "title", "description", "artist_names", "year_created",
	"medium", "dimensions", "tags", "photos", "notes",
}

// VariantInput is what a variant validates before a submission is stored.
type VariantInput struct {
	SubjectType string
	SubjectRef  *uuid.UUID
	PayloadOld  Payload
	PayloadNew  Payload
}

// Variant holds per-type validation for submission payloads.
type Variant interface {
	Type() SubmissionType
	// SubjectType returns the subject type the stored submission will carry.
	SubjectType(in VariantInput) string
	Validate(in VariantInput) []VariantError
}

type VariantError struct {
	Field   string
	Message string
}

var variants = map[SubmissionType]Variant{
	SubmissionTypeNewEntry:  newEntryVariant{},
	SubmissionTypeFieldEdit: fieldEditVariant{},
}

func LookupVariant(t SubmissionType) (Variant, bool) {
	v, ok := variants[t]
	return v, ok
}

type newEntryVariant struct{}

func (newEntryVariant) Type() SubmissionType { return SubmissionTypeNewEntry }

func (newEntryVariant) SubjectType(VariantInput) string { return SubjectTypeArtwork }

func (newEntryVariant) Validate(in VariantInput) []VariantError {
	var errs []VariantError
	if in.SubjectRef != nil {
		errs = append(errs, VariantError{"subject_ref", "must be empty for new entries"})
	}
	if in.SubjectType != "" && in.SubjectType != SubjectTypeArtwork {
		errs = append(errs, VariantError{"subject_type", "new entries describe artworks"})
	}
	if len(in.PayloadOld) > 0 {
		errs = append(errs, VariantError{"payload_old", "must be empty for new entries"})
	}

	allowed := toSet(NewEntryFields)
	for _, name := range in.PayloadNew.Names() {
		if _, ok := allowed[name]; !ok {
			errs = append(errs, VariantError{"payload_new." + name, "unknown field"})
		}
	}

	lat, okLat := in.PayloadNew.Float("lat")
	lon, okLon := in.PayloadNew.Float("lon")
	if !okLat || lat < -90 || lat > 90 {
		errs = append(errs, VariantError{"payload_new.lat", "required, between -90 and 90"})
	}
	if !okLon || lon < -180 || lon > 180 {
		errs = append(errs, VariantError{"payload_new.lon", "required, between -180 and 180"})
	}
	return errs
}

type fieldEditVariant struct{}

func (fieldEditVariant) Type() SubmissionType { return SubmissionTypeFieldEdit }

func (fieldEditVariant) SubjectType(in VariantInput) string { return in.SubjectType }

func (fieldEditVariant) Validate(in VariantInput) []VariantError {
	var errs []VariantError
	if in.SubjectRef == nil || *in.SubjectRef == uuid.Nil {
		errs = append(errs, VariantError{"subject_ref", "required for field edits"})
	}
	fields, ok := EditableFields[in.SubjectType]
	if !ok {
		errs = append(errs, VariantError{"subject_type", "must be artwork or artist"})
		return errs
	}
	if len(in.PayloadNew) == 0 {
		errs = append(errs, VariantError{"payload_new", "at least one field is required"})
	}

	allowed := toSet(fields)
	for _, name := range in.PayloadNew.Names() {
		if _, ok := allowed[name]; !ok {
			errs = append(errs, VariantError{"payload_new." + name, fmt.Sprintf("not editable on %s", in.SubjectType)})
			continue
		}
		// old value must accompany every edit, null included
		if !in.PayloadOld.Has(name) {
			errs = append(errs, VariantError{"payload_old." + name, "old value is required"})
		}
	}
	for _, name := range in.PayloadOld.Names() {
		if !in.PayloadNew.Has(name) {
			errs = append(errs, VariantError{"payload_new." + name, "new value is required"})
		}
	}
	return errs
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// SubmissionTypes lists the known variants in a stable order.
func SubmissionTypes() []SubmissionType {
	types := make([]SubmissionType, 0, len(variants))
	for t := range variants {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
