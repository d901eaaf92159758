package market

import (
	"fmt"
	"strings"
	"sync"
)

// Catalog is the instrument lookup the engine consults: metadata plus the
// per-instrument enable flags loaded from configuration. A Catalog is built
// once at startup and is safe for concurrent readers.
type Catalog struct {
	mu      sync.RWMutex
	meta    map[string]InstrumentMeta
	enabled map[string]bool
}

// NewCatalog builds a catalog from the default instrument table, enabling the
// named instruments. The overrides map replaces metadata wholesale for
// instruments that need non-default limits (for example a tighter max spread).
func NewCatalog(enabled []string, overrides map[string]InstrumentMeta) *Catalog {
	c := &Catalog{
		meta:    make(map[string]InstrumentMeta, len(Instruments)),
		enabled: make(map[string]bool, len(enabled)),
	}
	for name, m := range Instruments {
		c.meta[name] = m
	}
	for name, m := range overrides {
		name = Normalize(name)
		if m.Name == "" {
			m.Name = name
		}
		c.meta[name] = m
	}
	for _, name := range enabled {
		c.enabled[Normalize(name)] = true
	}
	return c
}

// IsEnabled reports whether the instrument may be traded at all. Unknown
// instruments are disabled.
func (c *Catalog) IsEnabled(instrument string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled[instrument]
}

// Metadata returns the instrument's static metadata.
func (c *Catalog) Metadata(instrument string) (InstrumentMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.meta[instrument]
	if !ok {
		return InstrumentMeta{}, fmt.Errorf("unknown instrument: %s", instrument)
	}
	return m, nil
}

// Symbols returns every known instrument symbol.
func (c *Catalog) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.meta))
	for name := range c.meta {
		out = append(out, name)
	}
	return out
}

// Normalize canonicalizes an instrument symbol: "eur/usd", "EURUSD" and
// "eur_usd" all become "EUR_USD". Futures symbols pass through uppercased.
func Normalize(symbol string) string {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", "_"))
	if !strings.Contains(s, "_") && len(s) == 6 {
		s = s[:3] + "_" + s[3:]
	}
	return s
}
