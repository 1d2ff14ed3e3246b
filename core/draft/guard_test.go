package draft

import "testing"

func TestIsDirtyNewDraft(t *testing.T) {
	cases := []struct {
		name    string
		current Draft
		want    bool
	}{
		{"empty", Draft{}, false},
		{"whitespace only", Draft{Title: "  ", Content: "\n\t"}, false},
		{"content typed", Draft{Content: "hello"}, true},
		{"title typed", Draft{Title: "Gratitude"}, true},
		{"mood alone is not dirty for a new draft", Draft{Mood: "happy"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDirty(tc.current, nil); got != tc.want {
				t.Errorf("IsDirty(%+v, nil) = %v, want %v", tc.current, got, tc.want)
			}
		})
	}
}

func TestIsDirtyEditingExisting(t *testing.T) {
	original := Draft{Title: "A", Content: "B", Mood: "happy"}

	if IsDirty(original, &original) {
		t.Error("unchanged draft must not be dirty")
	}

	changed := original
	changed.Mood = "sad"
	if !IsDirty(changed, &original) {
		t.Error("changed mood must be dirty")
	}

	// Reverting the change makes it clean again — pure structural
	// comparison, no taint tracking.
	changed.Mood = "happy"
	if IsDirty(changed, &original) {
		t.Error("reverted draft must not be dirty")
	}
}

func TestIsDirtyComparesAllFields(t *testing.T) {
	original := Draft{Title: "T", Content: "C", Category: "health", Anonymous: false, Type: "request"}

	mutations := map[string]func(*Draft){
		"title":     func(d *Draft) { d.Title = "X" },
		"content":   func(d *Draft) { d.Content = "X" },
		"category":  func(d *Draft) { d.Category = "family" },
		"anonymous": func(d *Draft) { d.Anonymous = true },
		"type":      func(d *Draft) { d.Type = "praise" },
	}
	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			current := original
			mutate(&current)
			if !IsDirty(current, &original) {
				t.Errorf("change to %s must be dirty", field)
			}
		})
	}
}

func TestIsDirtyEditDoesNotTrim(t *testing.T) {
	original := Draft{Content: "B"}
	current := Draft{Content: "B "}
	if !IsDirty(current, &original) {
		t.Error("edits compare by strict value, trailing whitespace counts")
	}
}
