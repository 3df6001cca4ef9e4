package models

// FieldError is a validation message for a single field. Scalar fields carry
// Message; list fields may instead carry sparse per-index messages.
type FieldError struct {
	Message  string
	PerIndex map[int]string
}

// IsZero reports whether the error carries no message at all.
func (e FieldError) IsZero() bool {
	return e.Message == "" && len(e.PerIndex) == 0
}

// At returns the message for a list index, or the scalar message when the
// error is not indexed.
func (e FieldError) At(i int) string {
	if len(e.PerIndex) > 0 {
		return e.PerIndex[i]
	}
	return e.Message
}

// ErrorMap holds the current validation errors keyed by field name.
type ErrorMap map[string]FieldError

// Set stores a scalar message for a field; an empty message clears it.
func (m ErrorMap) Set(field, message string) {
	if message == "" {
		delete(m, field)
		return
	}
	m[field] = FieldError{Message: message}
}

// SetIndexed stores sparse per-index messages for a list field.
func (m ErrorMap) SetIndexed(field string, perIndex map[int]string) {
	if len(perIndex) == 0 {
		delete(m, field)
		return
	}
	m[field] = FieldError{PerIndex: perIndex}
}

// Get returns the scalar message for a field, or "" if the field is valid.
func (m ErrorMap) Get(field string) string {
	return m[field].Message
}

// Has reports whether the field currently has any error.
func (m ErrorMap) Has(field string) bool {
	e, ok := m[field]
	return ok && !e.IsZero()
}

// Clear removes the error for a field.
func (m ErrorMap) Clear(field string) {
	delete(m, field)
}

// FirstInOrder returns the first field of FieldOrder that has an error,
// or "" when the map is clean.
func (m ErrorMap) FirstInOrder() string {
	for _, f := range FieldOrder {
		if m.Has(f) {
			return f
		}
	}
	return ""
}

// Merge copies every entry of other into the map, overwriting collisions.
func (m ErrorMap) Merge(other map[string]string) {
	for field, msg := range other {
		m.Set(field, msg)
	}
}

// Clone returns an independent copy of the map.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		if v.PerIndex != nil {
			idx := make(map[int]string, len(v.PerIndex))
			for i, s := range v.PerIndex {
				idx[i] = s
			}
			v.PerIndex = idx
		}
		out[k] = v
	}
	return out
}
