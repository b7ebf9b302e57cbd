package keymap

// Resolver answers key lookups for the UI: key string to Action, plus the
// reverse mapping used when rendering help lines.
type Resolver struct {
	actions map[string]Action
	keys    map[Action][]string
}

// NewResolver indexes the given bindings. A key bound in several contexts
// resolves to the last binding listed; a key repeated for one action is
// kept once, in binding order.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{
		actions: make(map[string]Action),
		keys:    make(map[Action][]string),
	}
	seen := make(map[Action]map[string]bool)
	for _, b := range bindings {
		if seen[b.Action] == nil {
			seen[b.Action] = make(map[string]bool)
		}
		for _, key := range b.Keys {
			r.actions[key] = b.Action
			if seen[b.Action][key] {
				continue
			}
			seen[b.Action][key] = true
			r.keys[b.Action] = append(r.keys[b.Action], key)
		}
	}
	return r
}

// Resolve returns the action bound to key, or the empty action.
func (r *Resolver) Resolve(key string) Action {
	return r.actions[key]
}

// KeysFor returns the keys bound to action, in binding order.
func (r *Resolver) KeysFor(action Action) []string {
	return r.keys[action]
}
