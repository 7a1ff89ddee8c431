package keymap

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/samber/lo"
)

// Resolver maps key strings to actions and serves help listings.
type Resolver struct {
	bindings map[string]Action   // key -> action
	byAction map[Action][]string // action -> keys
	all      []Binding
}

// NewResolver creates a resolver from bindings. A key bound twice resolves
// to the later binding.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{
		bindings: make(map[string]Action),
		byAction: make(map[Action][]string),
		all:      bindings,
	}
	for _, b := range bindings {
		for _, k := range b.Keys {
			r.bindings[k] = b.Action
		}
		r.byAction[b.Action] = lo.Uniq(append(r.byAction[b.Action], b.Keys...))
	}
	return r
}

// Resolve returns the action for a key, or empty string if not bound.
func (r *Resolver) Resolve(k string) Action {
	return r.bindings[k]
}

// KeysFor returns the keys bound to an action.
func (r *Resolver) KeysFor(action Action) []string {
	return r.byAction[action]
}

// ShortHelp implements help.KeyMap with the bindings a first-time
// listener needs.
func (r *Resolver) ShortHelp() []key.Binding {
	short := []Action{ActionPlayPause, ActionSeekBack, ActionSeekForward, ActionLoopSetA, ActionLoopSetB, ActionHelp, ActionQuit}
	return lo.FilterMap(short, func(a Action, _ int) (key.Binding, bool) {
		b, ok := lo.Find(r.all, func(b Binding) bool { return b.Action == a })
		return b.Key(), ok
	})
}

// FullHelp implements help.KeyMap with one column per context.
func (r *Resolver) FullHelp() [][]key.Binding {
	var cols [][]key.Binding
	for _, ctx := range Contexts {
		col := lo.FilterMap(r.all, func(b Binding, _ int) (key.Binding, bool) {
			return b.Key(), b.Context == ctx
		})
		if len(col) > 0 {
			cols = append(cols, col)
		}
	}
	return cols
}
