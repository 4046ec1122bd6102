package models

import "net/url"

// FilterCriteria is the per-subscriber event filter.
//
// Each field is either nil (no constraint on that field) or a specific value
// that must match the event exactly. New filter fields are additive: they
// default to nil and carry the same exact-match semantics.
type FilterCriteria struct {
	ConversationID *string
	Workforce      *string
}

// FilterCriteriaFromQuery parses filter criteria from WebSocket query
// parameters, e.g. /ws?conversation_id=abc-123&workforce=foo.
// Unknown parameters are ignored. A parameter present with an empty value is
// a constraint on the empty string, distinct from an absent parameter.
func FilterCriteriaFromQuery(params url.Values) FilterCriteria {
	var fc FilterCriteria
	if vs, ok := params["conversation_id"]; ok && len(vs) > 0 {
		fc.ConversationID = &vs[0]
	}
	if vs, ok := params["workforce"]; ok && len(vs) > 0 {
		fc.Workforce = &vs[0]
	}
	return fc
}

// Matches reports whether the event satisfies every set field of the filter.
// An empty filter matches all events.
func (fc FilterCriteria) Matches(event CommunicationEvent) bool {
	h := event.Header()
	if fc.ConversationID != nil && h.ConversationID != *fc.ConversationID {
		return false
	}
	if fc.Workforce != nil {
		if h.WorkforceName == nil || *h.WorkforceName != *fc.Workforce {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the filter has no constraints at all.
func (fc FilterCriteria) IsEmpty() bool {
	return fc.ConversationID == nil && fc.Workforce == nil
}
