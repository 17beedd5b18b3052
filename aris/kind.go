// Package aris is the scripting host the loader variants plug into.
//
// The host keeps one extension list per engine kind. Whenever it constructs
// an engine of a kind it runs every extension registered for that kind, in
// registration order, before the engine is handed out. A failing extension
// aborts that engine only.
package aris

import (
	"fmt"
	"strings"
)

// EngineKind identifies which engine a host constructs.
type EngineKind string

const (
	KindInit         EngineKind = "init"
	KindInGame       EngineKind = "in_game"
	KindClientInit   EngineKind = "client_init"
	KindClientMain   EngineKind = "client_main"
	KindClientInGame EngineKind = "client_in_game"
)

// Kinds lists every engine kind in host start-up order.
func Kinds() []EngineKind {
	return []EngineKind{KindInit, KindInGame, KindClientInit, KindClientMain, KindClientInGame}
}

// Client reports whether the kind only exists on the client side.
func (k EngineKind) Client() bool {
	return strings.HasPrefix(string(k), "client_")
}

// ParseKind converts a kind name, accepting dashes for underscores.
func ParseKind(s string) (EngineKind, error) {
	k := EngineKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown engine kind %q", s)
}
