package goshape

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

type cacheConfig struct {
	synth     Synthesizer
	maxShapes int
	log       Logger
}

// ProjectionCache memoizes shapes by fingerprint for one canonical schema.
// Resolved shapes are read without locking. A miss is synthesized at most
// once per fingerprint: concurrent callers for the same fingerprint wait for
// and share that single result, while other fingerprints proceed
// independently. Failed syntheses are not cached. Entries are never evicted.
type ProjectionCache struct {
	schema *CanonicalSchema
	cfg    cacheConfig

	shapes sync.Map // Fingerprint -> *Shape
	size   atomic.Int64
	group  singleflight.Group

	hits, misses, syntheses, failures atomic.Uint64
}

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Hits      uint64 // Lookups served from resolved shapes.
	Misses    uint64 // Lookups that had to wait for or run a synthesis.
	Syntheses uint64 // Synthesizer invocations.
	Failures  uint64 // Failed syntheses (including the shape bound).
	Shapes    int    // Resolved shapes.
}

func newProjectionCache(s *CanonicalSchema, cfg cacheConfig) *ProjectionCache {
	if cfg.synth == nil {
		cfg.synth = DefaultSynthesizer{}
	}
	if cfg.log == nil {
		cfg.log = nopLogger{}
	}
	return &ProjectionCache{schema: s, cfg: cfg}
}

// GetOrCreate returns the shape cached for fp, synthesizing it from names on
// first use.
func (c *ProjectionCache) GetOrCreate(fp Fingerprint, names []string) (*Shape, error) {
	if v, ok := c.shapes.Load(fp); ok {
		c.hits.Add(1)
		return v.(*Shape), nil
	}
	c.misses.Add(1)
	v, err, _ := c.group.Do(string(fp), func() (any, error) {
		// A synthesis for fp may have finished between Load and Do.
		if v, ok := c.shapes.Load(fp); ok {
			return v, nil
		}
		return c.synthesize(fp, names)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Shape), nil
}

func (c *ProjectionCache) synthesize(fp Fingerprint, names []string) (*Shape, error) {
	if c.cfg.maxShapes > 0 && c.size.Load() >= int64(c.cfg.maxShapes) {
		c.failures.Add(1)
		c.cfg.log.Debugf("goshape: %s: shape limit %d reached", fp, c.cfg.maxShapes)
		return nil, issuef("/", CodeSynthesis, "shape %s: cache limit of %d shapes reached", fp, c.cfg.maxShapes)
	}
	c.syntheses.Add(1)
	sh, err := c.cfg.synth.Synthesize(fp, c.schema, names)
	if err == nil && (sh == nil || sh.fp != fp || sh.schema != c.schema) {
		err = errors.New("synthesizer returned a shape for another fingerprint")
	}
	if err != nil {
		c.failures.Add(1)
		c.cfg.log.Debugf("goshape: %s: synthesis failed: %v", fp, err)
		if iss, ok := AsIssues(err); ok && iss.Is(ErrSynthesis) {
			return nil, iss
		}
		return nil, Issues{{Path: "/", Code: CodeSynthesis, Message: "cannot synthesize shape " + string(fp), Cause: err, Offset: -1}}
	}
	c.shapes.Store(fp, sh)
	c.size.Add(1)
	c.cfg.log.Debugf("goshape: synthesized %s", sh)
	return sh, nil
}

// Lookup returns a resolved shape without synthesizing.
func (c *ProjectionCache) Lookup(fp Fingerprint) (*Shape, bool) {
	v, ok := c.shapes.Load(fp)
	if !ok {
		return nil, false
	}
	return v.(*Shape), true
}

// Len returns the number of resolved shapes.
func (c *ProjectionCache) Len() int { return int(c.size.Load()) }

// Shapes returns the resolved shapes sorted by fingerprint.
func (c *ProjectionCache) Shapes() []*Shape {
	var out []*Shape
	c.shapes.Range(func(_, v any) bool {
		out = append(out, v.(*Shape))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].fp < out[j].fp })
	return out
}

// Stats returns the cache counters.
func (c *ProjectionCache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Syntheses: c.syntheses.Load(),
		Failures:  c.failures.Load(),
		Shapes:    c.Len(),
	}
}

// Shape returns the shape holding exactly the canonical fields named by names.
func (s *CanonicalSchema) Shape(names ...string) (*Shape, error) {
	return s.cache.GetOrCreate(s.Fingerprint(names...), names)
}
