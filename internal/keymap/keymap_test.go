package keymap

import (
	"testing"
)

func TestByContext(t *testing.T) {
	tests := []struct {
		name            string
		context         string
		expectNonEmpty  bool
		expectMinLength int
	}{
		{"global context", "global", true, 1},
		{"playback context", "playback", true, 5},
		{"browser context", "browser", true, 3},
		{"unknown context returns empty", "unknown", false, 0},
		{"empty context returns empty", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ByContext(tt.context)

			if tt.expectNonEmpty && len(result) == 0 {
				t.Errorf("ByContext(%q) returned empty, expected non-empty", tt.context)
			}
			if !tt.expectNonEmpty && len(result) != 0 {
				t.Errorf("ByContext(%q) returned %d items, expected empty", tt.context, len(result))
			}
			if len(result) < tt.expectMinLength {
				t.Errorf("ByContext(%q) returned %d items, expected at least %d", tt.context, len(result), tt.expectMinLength)
			}
			for _, binding := range result {
				if binding.Context != tt.context {
					t.Errorf("binding context = %q, want %q", binding.Context, tt.context)
				}
			}
		})
	}
}

func TestAll_NoDuplicateKeysPerContext(t *testing.T) {
	seen := make(map[string]Action) // context+key -> action
	for _, b := range All {
		for _, key := range b.Keys {
			id := b.Context + "/" + key
			if prev, ok := seen[id]; ok {
				t.Errorf("key %q in context %q bound to both %q and %q", key, b.Context, prev, b.Action)
			}
			seen[id] = b.Action
		}
	}
}

func TestAll_EveryBindingComplete(t *testing.T) {
	for _, b := range All {
		if b.Action == "" {
			t.Errorf("binding %v has no action", b.Keys)
		}
		if len(b.Keys) == 0 {
			t.Errorf("action %q has no keys", b.Action)
		}
		if b.Description == "" {
			t.Errorf("action %q has no description", b.Action)
		}
		if b.Context == "" {
			t.Errorf("action %q has no context", b.Action)
		}
	}
}
