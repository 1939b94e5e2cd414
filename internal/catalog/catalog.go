// Package catalog holds the translation targets offered by the backend.
package catalog

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"vidsub/internal/language"
	"vidsub/internal/logging"
)

const originalDisplayName = "Original Language"

// Fetcher retrieves the raw code -> name map. backend.Client satisfies it.
type Fetcher interface {
	Languages(ctx context.Context) (map[string]string, error)
}

// Option is one selectable target language.
type Option struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Catalog is an immutable set of target languages. The zero value offers only
// the "original" sentinel. Codes are kept exactly as the backend spells them.
type Catalog struct {
	names        map[string]string
	keys         []string
	originalName string
}

// New builds a catalog from the backend's map. Codes and names are trimmed and
// names get an initial capital; entries with an empty code or name are dropped.
func New(entries map[string]string) *Catalog {
	caser := cases.Title(xlanguage.English, cases.NoLower)
	c := &Catalog{names: make(map[string]string, len(entries)), originalName: originalDisplayName}
	for code, name := range entries {
		code = strings.TrimSpace(code)
		name = strings.TrimSpace(name)
		if code == "" || name == "" {
			continue
		}
		name = caser.String(name)
		if language.IsOriginal(code) {
			c.originalName = name
			continue
		}
		c.names[code] = name
	}
	c.keys = lo.Keys(c.names)
	slices.Sort(c.keys)
	return c
}

// Len returns the number of translation targets, excluding "original".
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Options lists "original" first, then every other code ordered by display
// name.
func (c *Catalog) Options() []Option {
	options := []Option{{Code: language.Original, Name: c.displayOriginal()}}
	if c == nil {
		return options
	}
	codes := slices.Clone(c.keys)
	slices.SortStableFunc(codes, func(a, b string) int {
		return strings.Compare(c.names[a], c.names[b])
	})
	for _, code := range codes {
		options = append(options, Option{Code: code, Name: c.names[code]})
	}
	return options
}

// Resolve maps input to the catalog's own key. An exact key wins, then a key
// or display name differing only in case, then a key naming the same
// language ("Spanish", "spa" and "es" are aliases). Ties go to the lowest key.
func (c *Catalog) Resolve(code string) (string, bool) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", false
	}
	if language.IsOriginal(trimmed) {
		return language.Original, true
	}
	if c == nil {
		return "", false
	}
	if _, ok := c.names[trimmed]; ok {
		return trimmed, true
	}
	for _, key := range c.keys {
		if strings.EqualFold(key, trimmed) || strings.EqualFold(c.names[key], trimmed) {
			return key, true
		}
	}
	alias := language.NormalizeTarget(trimmed)
	for _, key := range c.keys {
		if language.NormalizeTarget(key) == alias {
			return key, true
		}
	}
	return "", false
}

// Contains reports whether code resolves to a valid target. "original"
// always does.
func (c *Catalog) Contains(code string) bool {
	_, ok := c.Resolve(code)
	return ok
}

// DisplayName returns the catalog name for code, falling back to the static
// language table for codes the catalog does not list.
func (c *Catalog) DisplayName(code string) string {
	if key, ok := c.Resolve(code); ok {
		if key == language.Original {
			return c.displayOriginal()
		}
		return c.names[key]
	}
	return language.DisplayName(code)
}

func (c *Catalog) displayOriginal() string {
	if c == nil || c.originalName == "" {
		return originalDisplayName
	}
	return c.originalName
}

// Loader fetches the catalog at most once per session.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger

	once    sync.Once
	catalog *Catalog
	err     error
}

// NewLoader returns a loader backed by fetcher.
func NewLoader(fetcher Fetcher, logger *slog.Logger) *Loader {
	return &Loader{fetcher: fetcher, logger: logging.NewComponentLogger(logger, "catalog")}
}

// Load returns the catalog, fetching it on first use. A fetch failure is not
// fatal: the error is logged and an empty catalog is returned for the rest of
// the session.
func (l *Loader) Load(ctx context.Context) *Catalog {
	l.once.Do(func() {
		if l.fetcher == nil {
			l.catalog = New(nil)
			return
		}
		entries, err := l.fetcher.Languages(ctx)
		if err != nil {
			l.err = err
			l.catalog = New(nil)
			logging.WarnWithContext(logging.WithContext(ctx, l.logger), "language catalog unavailable", "catalog_load_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "only the original language can be selected"),
			)
			return
		}
		l.catalog = New(entries)
		l.logger.Debug("language catalog loaded", logging.Int("languages", l.catalog.Len()))
	})
	return l.catalog
}

// Err returns the fetch error from the first Load, if any.
func (l *Loader) Err() error {
	return l.err
}
