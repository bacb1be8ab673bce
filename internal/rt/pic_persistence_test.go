package rt

import "testing"

func TestPICRegistryExportWarmRoundTrip(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	reg := NewPICRegistry(h, 4)

	proto := h.AllocateObject(true, h.Nil)
	obj := h.AllocateObject(false, proto)
	reg.Site(1).OnMiss(obj, 32)

	table := reg.Export()
	if len(table.Records) != 1 {
		t.Fatalf("Export() returned %d records, want 1", len(table.Records))
	}

	data, err := table.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := UnmarshalPatchSiteTable(data)
	if err != nil {
		t.Fatalf("UnmarshalPatchSiteTable: %v", err)
	}
	if len(decoded.Records) != 1 || decoded.Records[0].Offset != 32 {
		t.Fatalf("decoded table = %+v, want one record with offset 32", decoded.Records)
	}

	fresh := NewPICRegistry(h, 4)
	fresh.Warm(decoded)
	hint, ok := fresh.Site(1).WarmHint()
	if !ok || hint != 32 {
		t.Fatalf("WarmHint() = (%v, %v), want (32, true)", hint, ok)
	}
}

func TestPICRegistryExportSkipsEmptySites(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	reg := NewPICRegistry(h, 4)
	reg.Site(9) // touched but never populated

	table := reg.Export()
	if len(table.Records) != 0 {
		t.Fatalf("Export() returned %d records for an empty site, want 0", len(table.Records))
	}
}
