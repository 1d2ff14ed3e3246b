package draft

import "strings"

// Draft is the editable form state shared by the journal and prayer
// editors. Unused fields stay at their zero value for a given editor.
type Draft struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Mood      string `json:"mood,omitempty"`
	Category  string `json:"category,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
	Type      string `json:"type,omitempty"`
}

// IsDirty reports whether the editor holds unsaved changes. For a brand
// new draft (original == nil) any non-blank title or content counts;
// when editing a persisted entity it is a strict field-by-field value
// comparison against the snapshot captured at edit-open time. A forced
// close after a successful save bypasses this check at the call site.
func IsDirty(current Draft, original *Draft) bool {
	if original == nil {
		return strings.TrimSpace(current.Title) != "" ||
			strings.TrimSpace(current.Content) != ""
	}
	return current != *original
}
