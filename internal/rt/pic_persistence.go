package rt

import "github.com/vmihailenco/msgpack/v5"

// PatchSiteRecord is one call site's persisted cache hint: the
// property-slot offset it last resolved to. Proto identities are live
// heap addresses and are never meaningful across a process restart, so
// a record can't restore a populated cache entry — only a warm-start
// hint, exposed through PIC.WarmHint, that the cache itself never
// consults or validates.
type PatchSiteRecord struct {
	CallSiteID uint64
	Offset     uint64
}

// PatchSiteTable is the cross-run persisted form of a PICRegistry,
// analogous to the relocation table spec.md §9 describes for
// JIT-embedded immediates: here it records where each call site's
// cache last pointed, not a raw address.
type PatchSiteTable struct {
	Records []PatchSiteRecord
}

func (t *PatchSiteTable) Marshal() ([]byte, error) {
	return msgpack.Marshal(t)
}

func UnmarshalPatchSiteTable(data []byte) (*PatchSiteTable, error) {
	var t PatchSiteTable
	if err := msgpack.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// PICRegistry owns every call site's PIC, keyed by an opaque call-site
// ID the embedder assigns at emission time.
type PICRegistry struct {
	heap  *Heap
	sites map[uint64]*PIC
	cap   int
}

func NewPICRegistry(h *Heap, capacityPerSite int) *PICRegistry {
	return &PICRegistry{heap: h, sites: make(map[uint64]*PIC), cap: capacityPerSite}
}

func (r *PICRegistry) Site(callSiteID uint64) *PIC {
	p, ok := r.sites[callSiteID]
	if !ok {
		p = NewPIC(r.heap, r.cap)
		r.sites[callSiteID] = p
	}
	return p
}

// Export captures the current offset hint for every call site that has
// at least one entry, in no particular order (map iteration).
func (r *PICRegistry) Export() *PatchSiteTable {
	t := &PatchSiteTable{}
	for id, p := range r.sites {
		if len(p.entries) == 0 {
			continue
		}
		t.Records = append(t.Records, PatchSiteRecord{
			CallSiteID: id,
			Offset:     uint64(p.entries[len(p.entries)-1].offset),
		})
	}
	return t
}

// Warm pre-seeds each call site's last-known offset as its WarmHint.
// PIC.Lookup does not read the hint; a caller may try it before a full
// property lookup. Warm does not and cannot restore a matched (proto,
// offset) pair across a restart.
func (r *PICRegistry) Warm(t *PatchSiteTable) {
	for _, rec := range t.Records {
		r.Site(rec.CallSiteID).warmHint = rec.Offset
	}
}
