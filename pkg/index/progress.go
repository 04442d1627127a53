package index

import "math"

// Progress maps composite keys to a read marker. Only true is meaningful;
// a missing key means unread.
type Progress map[string]bool

// Patch is a merge write against stored progress: true marks a key read,
// false removes it.
type Patch map[string]bool

// IsRead reports whether key is marked read.
func (p Progress) IsRead(key string) bool {
	return p[key]
}

// Toggle flips key in place and returns its new state together with the
// patch that persists the change.
func (p Progress) Toggle(key string) (bool, Patch) {
	if p[key] {
		delete(p, key)
		return false, Patch{key: false}
	}
	p[key] = true
	return true, Patch{key: true}
}

// Apply merges a patch into p.
func (p Progress) Apply(patch Patch) {
	for k, read := range patch {
		if read {
			p[k] = true
		} else {
			delete(p, k)
		}
	}
}

// Tally is the figure shown next to the checklist.
type Tally struct {
	Read    int `json:"read"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// Tally counts the read leaves of the index. Keys in p that no longer name
// a leaf are ignored. An empty index yields 0/0 and 0%.
func (ix *Index) Tally(p Progress) Tally {
	t := Tally{Total: ix.Total()}
	for k, read := range p {
		if read && ix.HasKey(k) {
			t.Read++
		}
	}
	t.Percent = Percent(t.Read, t.Total)
	return t
}

// Percent returns read/total as a rounded percentage, 0 when total is 0.
func Percent(read, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(read) * 100 / float64(total)))
}
