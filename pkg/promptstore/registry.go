// Package promptstore implements agent.PromptStore. A Registry renders
// named text/template prompts (the five built-in consulting agent prompts,
// plus any caller-registered ones) against the variables an Agent supplies,
// and caches the rendered result for a configurable TTL so repeated loads of
// an identical (ref, variables) pair skip re-rendering the template
// (templates are parsed once, in Register).
package promptstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/agent"
)

// ErrPromptNotFound is returned by Registry.Load for an unregistered
// reference.
var ErrPromptNotFound = fmt.Errorf("prompt not found")

type cacheEntry struct {
	rendered  string
	expiresAt time.Time
}

// Registry is an in-memory template-backed agent.PromptStore.
type Registry struct {
	templates map[string]*template.Template
	ttl       time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewRegistry builds a Registry pre-loaded with the five built-in
// consulting agent prompts. ttl of zero disables caching (every Load
// re-renders).
func NewRegistry(ttl time.Duration) (*Registry, error) {
	r := &Registry{
		templates: make(map[string]*template.Template, len(builtinTemplates)),
		ttl:       ttl,
		cache:     make(map[string]cacheEntry),
	}
	for ref, body := range builtinTemplates {
		if err := r.Register(ref, body); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register parses and adds (or replaces) a named prompt template. Callers
// extending the built-in agent set with new roles register their prompts
// this way before the Orchestrator that depends on them is constructed.
func (r *Registry) Register(ref, body string) error {
	tmpl, err := template.New(ref).Parse(body)
	if err != nil {
		return fmt.Errorf("promptstore: failed to parse template %q: %w", ref, err)
	}
	r.templates[ref] = tmpl
	return nil
}

// Load implements agent.PromptStore.
func (r *Registry) Load(ctx context.Context, ref string, variables map[string]string) (string, error) {
	tmpl, ok := r.templates[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPromptNotFound, ref)
	}

	key := cacheKey(ref, variables)
	if r.ttl > 0 {
		r.mu.Lock()
		if entry, ok := r.cache[key]; ok && time.Now().Before(entry.expiresAt) {
			r.mu.Unlock()
			return entry.rendered, nil
		}
		r.mu.Unlock()
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, variables); err != nil {
		return "", fmt.Errorf("promptstore: failed to render template %q: %w", ref, err)
	}
	rendered := b.String()

	if r.ttl > 0 {
		r.mu.Lock()
		r.cache[key] = cacheEntry{rendered: rendered, expiresAt: time.Now().Add(r.ttl)}
		r.mu.Unlock()
	}
	return rendered, nil
}

// cacheKey builds a deterministic cache key from ref and the variable set,
// sorting variable names so map iteration order never affects the key.
func cacheKey(ref string, variables map[string]string) string {
	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(ref)
	for _, name := range names {
		b.WriteString("|")
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(variables[name])
	}
	return b.String()
}

var _ agent.PromptStore = (*Registry)(nil)
