package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
)

// textSanitizer strips all markup from engine-provided text. bluemonday
// escapes entities, which are undone so "Bakker & Zn" survives intact.
type textSanitizer struct {
	policy *bluemonday.Policy
}

func newTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *textSanitizer) text(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func (s *textSanitizer) optional(v *string) *string {
	if v == nil {
		return nil
	}
	out := s.text(*v)
	if out == "" {
		return nil
	}
	return &out
}

func (s *textSanitizer) list(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if c := s.text(v); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// stakeholders drops entries without an id and cleans every free-text field.
func (s *textSanitizer) stakeholders(projectID string, in []domain.Stakeholder) []domain.Stakeholder {
	out := make([]domain.Stakeholder, 0, len(in))
	for _, st := range in {
		if strings.TrimSpace(st.StakeholderID) == "" {
			continue
		}
		st.ProjectID = projectID
		st.Name = s.text(st.Name)
		st.Type = s.text(st.Type)
		st.Address = s.text(st.Address)
		st.Phone = s.optional(st.Phone)
		st.OpeningHours = s.optional(st.OpeningHours)
		st.Remarks = s.optional(st.Remarks)
		st.Priority = strings.ToLower(s.text(st.Priority))
		st.Measures = s.list(st.Measures)
		st.Communication.Approach = s.list(st.Communication.Approach)
		st.Communication.Timing = s.text(st.Communication.Timing)
		st.Communication.ContactPerson = s.text(st.Communication.ContactPerson)
		st.DataQuality.MissingFields = s.list(st.DataQuality.MissingFields)
		st.DataQuality.Reliability = s.text(st.DataQuality.Reliability)
		if st.Impact != nil {
			impact := make(domain.Impact, len(st.Impact))
			for k, v := range st.Impact {
				v.Explanation = s.text(v.Explanation)
				impact[k] = v
			}
			st.Impact = impact
		}
		out = append(out, st)
	}
	return out
}
