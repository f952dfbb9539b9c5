package quest

import (
	"sort"
)

// Catalog is the per-profile set of known jobs, keyed by job id.
// It is a value type: mutators return a modified copy and never touch the receiver.
type Catalog map[string]Job

// NewCatalog returns an empty catalog.
func NewCatalog() Catalog {
	return Catalog{}
}

// Get returns the job with the given id.
func (c Catalog) Get(id string) (Job, bool) {
	j, ok := c[id]
	return j, ok
}

// Has reports whether id is in the catalog.
func (c Catalog) Has(id string) bool {
	_, ok := c[id]
	return ok
}

// Len returns the number of jobs.
func (c Catalog) Len() int {
	return len(c)
}

// Clone returns a shallow copy of the catalog. Job values are copied with
// their tag slices shared, which is safe because jobs are never mutated in place.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// With returns a copy containing j.
func (c Catalog) With(j Job) Catalog {
	out := c.Clone()
	out[j.ID] = j
	return out
}

// Without returns a copy with id removed.
func (c Catalog) Without(id string) Catalog {
	out := c.Clone()
	delete(out, id)
	return out
}

// IDs returns the job ids in sorted order.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
