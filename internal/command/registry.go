// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package command

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Registry manages command registration and prefix lookup.
// It is thread-safe for concurrent access.
type Registry struct {
	commands map[string]Entry
	mu       sync.RWMutex
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Entry),
	}
}

// Register adds a command to the registry. If a command with the same
// phrase exists, it is overwritten and a warning is logged.
func (r *Registry) Register(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[entry.Phrase]; ok {
		slog.Warn("command conflict: overwriting existing command",
			"phrase", entry.Phrase)
	}

	r.commands[entry.Phrase] = entry
}

// Match finds the registered command whose phrase prefixes content.
// The longest matching phrase wins, so "create permset named" shadows a
// hypothetical "create" command. The second return is the remainder of
// content after the phrase.
func (r *Registry) Match(content string) (Entry, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best Entry
	found := false
	for phrase, entry := range r.commands {
		if !strings.HasPrefix(content, phrase) {
			continue
		}
		if !found || len(phrase) > len(best.Phrase) {
			best = entry
			found = true
		}
	}
	if !found {
		return Entry{}, "", false
	}
	return best, strings.TrimSpace(strings.TrimPrefix(content, best.Phrase)), true
}

// All returns all registered commands sorted by phrase.
// The returned slice is a copy and safe to modify.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.commands))
	for _, e := range r.commands {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Phrase < entries[j].Phrase
	})
	return entries
}
