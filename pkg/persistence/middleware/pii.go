package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/ports"
)

// Mask replaces the values of masked draft fields in storage.
const Mask = "***"

type piiMiddleware struct {
	next     ports.CheckpointStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks draft fields whose keys match the patterns.
// Masking is one-way: a resumed session sees Mask in place of the original value.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, checkpoint *domain.Checkpoint) error {
	// The live session shares nothing with what gets written.
	cloned := checkpoint.Clone()
	for section, v := range cloned.Draft {
		cloned.Draft[section] = mask(v, m.patterns)
	}
	return m.next.Save(ctx, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, key domain.ProgressKey) (*domain.Checkpoint, error) {
	return m.next.Load(ctx, key)
}

func (m *piiMiddleware) Delete(ctx context.Context, key domain.ProgressKey) error {
	return m.next.Delete(ctx, key)
}

func (m *piiMiddleware) List(ctx context.Context) ([]domain.ProgressKey, error) {
	return m.next.List(ctx)
}

func mask(v any, patterns []*regexp.Regexp) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if matchAny(k, patterns) {
				t[k] = Mask
				continue
			}
			t[k] = mask(val, patterns)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = mask(val, patterns)
		}
		return t
	default:
		return v
	}
}

func matchAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
