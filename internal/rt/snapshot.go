package rt

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// snapshotEncMode is the canonical CBOR encoder: two snapshots of
// content-identical heaps must produce byte-identical output, which is
// the Go-idiomatic proof of the factory's canonicality invariant.
var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("rt: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// SnapshotConstant is one canonical factory entry, captured by content
// rather than by address: a live boxed address is only valid within one
// GC epoch and has no meaning after a process restart.
type SnapshotConstant struct {
	Kind byte   `cbor:"kind"` // 's' string, 'n' number, 'b' boolean
	Data []byte `cbor:"data"`
}

// SnapshotHandle captures an external handle's kind, not its storage
// address or current value — those belong to the embedder's memory, not
// the heap's persisted state.
type SnapshotHandle struct {
	Kind HandleKind `cbor:"kind"`
}

// Snapshot is the heap's portable state: the factory's canonical
// constants and a census of outstanding handle kinds, tagged with an ID
// and sequence number for the embedder to correlate across runs.
type Snapshot struct {
	ID        uuid.UUID        `cbor:"id"`
	Sequence  uint64           `cbor:"sequence"`
	Constants []SnapshotConstant `cbor:"constants"`
	Handles   []SnapshotHandle `cbor:"handles"`
}

// Snapshot captures the heap's factory contents and a handle-kind
// census into a Snapshot. It does not, and cannot, capture live boxed
// addresses or raw page bytes — those are valid only within the
// process and GC epoch that produced them.
func (h *Heap) Snapshot(id uuid.UUID, sequence uint64) *Snapshot {
	s := &Snapshot{ID: id, Sequence: sequence}

	h.factory.Each(func(key []byte, v Value) {
		if len(key) == 0 {
			return
		}
		s.Constants = append(s.Constants, SnapshotConstant{
			Kind: key[0],
			Data: append([]byte(nil), key[1:]...),
		})
	})

	for range h.handles.persistent {
		s.Handles = append(s.Handles, SnapshotHandle{Kind: HandlePersistent})
	}
	for range h.handles.normal {
		s.Handles = append(s.Handles, SnapshotHandle{Kind: HandleNormal})
	}
	for range h.handles.weak {
		s.Handles = append(s.Handles, SnapshotHandle{Kind: HandleWeak})
	}

	return s
}

func (s *Snapshot) Marshal() ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("rt: unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// Restore re-interns every constant the snapshot recorded, rebuilding
// an equivalent canonical factory from scratch. It does not recreate
// handles: a handle's storage slot lives in embedder memory that no
// longer exists by the time a snapshot is reloaded, so only the kind
// census is informational.
func (h *Heap) Restore(s *Snapshot) error {
	for _, c := range s.Constants {
		switch c.Kind {
		case 's':
			h.CreateString(c.Data)
		case 'n':
			if len(c.Data) != 8 {
				return fmt.Errorf("rt: restore: malformed number constant (%d bytes)", len(c.Data))
			}
			bits := uint64(0)
			for i := 0; i < 8; i++ {
				bits |= uint64(c.Data[i]) << (8 * i)
			}
			h.CreateNumber(math.Float64frombits(bits))
		case 'b':
			if len(c.Data) != 1 {
				return fmt.Errorf("rt: restore: malformed boolean constant (%d bytes)", len(c.Data))
			}
			h.CreateBoolean(c.Data[0] != 0)
		default:
			return fmt.Errorf("rt: restore: unknown constant kind %q", c.Kind)
		}
	}
	return nil
}
