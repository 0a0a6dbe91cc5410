package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func fieldsOf(errs []VariantError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestFieldEditVariant(t *testing.T) {
	t.Parallel()

	subject := uuid.New()
	v, ok := LookupVariant(SubmissionTypeFieldEdit)
	require.True(t, ok)

	tests := []struct {
		name       string
		in         VariantInput
		wantFields []string
	}{
		{
			name: "valid artwork title edit",
			in: VariantInput{
				SubjectType: SubjectTypeArtwork,
				SubjectRef:  &subject,
				PayloadOld:  Payload{{Name: "title", Value: raw(`"Old"`)}},
				PayloadNew:  Payload{{Name: "title", Value: raw(`"New"`)}},
			},
		},
		{
			name: "null old value is accepted",
			in: VariantInput{
				SubjectType: SubjectTypeArtwork,
				SubjectRef:  &subject,
				PayloadOld:  Payload{{Name: "medium", Value: raw(`null`)}},
				PayloadNew:  Payload{{Name: "medium", Value: raw(`"bronze"`)}},
			},
		},
		{
			name: "unknown artwork field",
			in: VariantInput{
				SubjectType: SubjectTypeArtwork,
				SubjectRef:  &subject,
				PayloadOld:  Payload{{Name: "owner", Value: raw(`null`)}},
				PayloadNew:  Payload{{Name: "owner", Value: raw(`"me"`)}},
			},
			wantFields: []string{"payload_new.owner"},
		},
		{
			name: "artist field on artwork",
			in: VariantInput{
				SubjectType: SubjectTypeArtwork,
				SubjectRef:  &subject,
				PayloadOld:  Payload{{Name: "biography", Value: raw(`""`)}},
				PayloadNew:  Payload{{Name: "biography", Value: raw(`"x"`)}},
			},
			wantFields: []string{"payload_new.biography"},
		},
		{
			name: "missing old value",
			in: VariantInput{
				SubjectType: SubjectTypeArtist,
				SubjectRef:  &subject,
				PayloadNew:  Payload{{Name: "name", Value: raw(`"N"`)}},
			},
			wantFields: []string{"payload_old.name"},
		},
		{
			name: "old value without new",
			in: VariantInput{
				SubjectType: SubjectTypeArtwork,
				SubjectRef:  &subject,
				PayloadOld:  Payload{{Name: "title", Value: raw(`"Old"`)}, {Name: "tags", Value: raw(`[]`)}},
				PayloadNew:  Payload{{Name: "title", Value: raw(`"New"`)}},
			},
			wantFields: []string{"payload_new.tags"},
		},
		{
			name: "missing subject",
			in: VariantInput{
				SubjectType: SubjectTypeArtwork,
				PayloadOld:  Payload{{Name: "title", Value: raw(`"Old"`)}},
				PayloadNew:  Payload{{Name: "title", Value: raw(`"New"`)}},
			},
			wantFields: []string{"subject_ref"},
		},
		{
			name: "unknown subject type",
			in: VariantInput{
				SubjectType: "venue",
				SubjectRef:  &subject,
			},
			wantFields: []string{"subject_type"},
		},
		{
			name: "empty edit",
			in: VariantInput{
				SubjectType: SubjectTypeArtwork,
				SubjectRef:  &subject,
			},
			wantFields: []string{"payload_new"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.in)
			assert.Equal(t, tt.wantFields, fieldsOf(errs))
		})
	}
}

func TestNewEntryVariant(t *testing.T) {
	t.Parallel()

	v, ok := LookupVariant(SubmissionTypeNewEntry)
	require.True(t, ok)
	subject := uuid.New()

	valid := VariantInput{
		PayloadNew: Payload{
			{Name: "lat", Value: raw(`52.52`)},
			{Name: "lon", Value: raw(`13.405`)},
			{Name: "title", Value: raw(`"Mural"`)},
		},
	}
	assert.Empty(t, v.Validate(valid))
	assert.Equal(t, SubjectTypeArtwork, v.SubjectType(valid))

	errs := v.Validate(VariantInput{
		SubjectRef: &subject,
		PayloadOld: Payload{{Name: "title", Value: raw(`"x"`)}},
		PayloadNew: Payload{
			{Name: "lat", Value: raw(`95`)},
			{Name: "colour", Value: raw(`"red"`)},
		},
	})
	assert.Equal(t, []string{"subject_ref", "payload_old", "payload_new.colour", "payload_new.lat", "payload_new.lon"}, fieldsOf(errs))
}

func TestLookupVariant_Unknown(t *testing.T) {
	t.Parallel()

	_, ok := LookupVariant("photo_upload")
	assert.False(t, ok)
	assert.Equal(t, []SubmissionType{SubmissionTypeFieldEdit, SubmissionTypeNewEntry}, SubmissionTypes())
}
