package domain

import (
	"strings"
	"unicode/utf8"
)

const maxNameLength = 200

// Normalize trims every text field and turns blank optional fields into nil.
func (in ProjectInput) Normalize() ProjectInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = trimOptional(in.Location)
	in.WorkDescription = trimOptional(in.WorkDescription)
	in.Planning = trimOptional(in.Planning)
	in.Detours = trimOptional(in.Detours)
	return in
}

// Validate checks a normalized input.
func (in ProjectInput) Validate() error {
	if in.Name == "" {
		return &InputError{Field: "projectnaam", Message: "Projectnaam is verplicht"}
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		return &InputError{Field: "projectnaam", Message: "Projectnaam is te lang"}
	}
	if in.RadiusMeters != nil && *in.RadiusMeters < 0 {
		return &InputError{Field: "radius_meters", Message: "radius_meters mag niet negatief zijn"}
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
