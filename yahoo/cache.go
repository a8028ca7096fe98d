package yahoo

import (
	"fmt"
	"os"
	"time"

	"github.com/ukshares/cgt"
	"github.com/ukshares/cgt/date"
	"gopkg.in/yaml.v3"
)

// securitiesCache persists the reference data fetched for each security in a
// YAML file, so repeated runs only go to the network for securities whose
// entry has gone stale.
type securitiesCache struct {
	path    string
	entries map[string]cacheEntry
}

type cacheFile struct {
	Securities map[string]cacheEntry `yaml:"securities"`
}

type cacheEntry struct {
	Name        string       `yaml:"name"`
	LastUpdated string       `yaml:"last-updated"`
	Splits      []cacheSplit `yaml:"splits,omitempty"`
}

type cacheSplit struct {
	EffectiveAt time.Time `yaml:"date-effective"`
	Ratio       string    `yaml:"ratio"`
}

// loadSecuritiesCache reads the cache file. A missing file is an empty
// cache; path may be "" for a purely in-memory cache.
func loadSecuritiesCache(path string) (*securitiesCache, error) {
	cache := &securitiesCache{path: path, entries: make(map[string]cacheEntry)}
	if path == "" {
		return cache, nil
	}
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading securities cache: %w", err)
	}
	var file cacheFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parsing securities cache %q: %w", path, err)
	}
	if file.Securities != nil {
		cache.entries = file.Securities
	}
	return cache, nil
}

// get returns the cached info for an ISIN, if present and updated today.
func (c *securitiesCache) get(isin string) (cgt.SecurityInfo, bool) {
	entry, ok := c.entries[isin]
	if !ok || entry.LastUpdated != date.Today().String() {
		return cgt.SecurityInfo{}, false
	}
	info := cgt.SecurityInfo{Name: entry.Name}
	for _, s := range entry.Splits {
		ratio, err := cgt.ParseQuantity(s.Ratio)
		if err != nil {
			return cgt.SecurityInfo{}, false
		}
		info.Splits = append(info.Splits, cgt.Split{EffectiveAt: s.EffectiveAt, Ratio: ratio})
	}
	return info, true
}

// put records fresh info for an ISIN and rewrites the cache file.
func (c *securitiesCache) put(isin string, info cgt.SecurityInfo) error {
	entry := cacheEntry{Name: info.Name, LastUpdated: date.Today().String()}
	for _, s := range info.Splits {
		entry.Splits = append(entry.Splits, cacheSplit{EffectiveAt: s.EffectiveAt, Ratio: s.Ratio.String()})
	}
	c.entries[isin] = entry

	if c.path == "" {
		return nil
	}
	content, err := yaml.Marshal(cacheFile{Securities: c.entries})
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, content, 0o644)
}
