package vm

import "fmt"

// LoadOp selects the width and sign behaviour of a memory load.
type LoadOp int

const (
	Lw LoadOp = iota
	Lh
	Lhu
	Lb
	Lbu
)

// StoreOp selects the width of a memory store.
type StoreOp int

const (
	Sw StoreOp = iota
	Sh
	Sb
)

func (op LoadOp) width() uint32 {
	switch op {
	case Lw:
		return 4
	case Lh, Lhu:
		return 2
	default:
		return 1
	}
}

func (op StoreOp) width() uint32 {
	switch op {
	case Sw:
		return 4
	case Sh:
		return 2
	default:
		return 1
	}
}

// MemoryConfig governs the uninitialized-access and alignment policy of a
// Memory instance. Both fields default to the strictest behaviour:
// uninitialized reads fail, and unaligned accesses fail.
type MemoryConfig struct {
	// DefaultByte, when non-nil, is returned for any address that was
	// never explicitly stored to instead of failing as uninitialized.
	DefaultByte *byte

	// AllowUnaligned disables the natural-alignment requirement on
	// half-word and word accesses.
	AllowUnaligned bool
}

// UnalignedError reports an access whose address did not satisfy the
// natural alignment of its width.
type UnalignedError struct {
	Addr  uint32
	Width uint32
}

func (e *UnalignedError) Error() string {
	return fmt.Sprintf("unaligned access: address 0x%08x is not %d-byte aligned", e.Addr, e.Width)
}

// UninitializedError reports a load from a byte address that was never
// stored to and for which no default byte is configured.
type UninitializedError struct {
	Addr uint32
}

func (e *UninitializedError) Error() string {
	return fmt.Sprintf("uninitialized access at address 0x%08x", e.Addr)
}

// Memory is a sparse, byte-addressable, 32-bit address space. Bytes are
// stored little-endian; an address with no explicit store is
// uninitialized unless a default byte is configured.
type Memory struct {
	config MemoryConfig
	bytes  map[uint32]byte
}

// NewMemory creates an empty Memory with the given configuration.
func NewMemory(config MemoryConfig) *Memory {
	return &Memory{
		config: config,
		bytes:  make(map[uint32]byte),
	}
}

func (m *Memory) checkAlignment(addr, width uint32) error {
	if m.config.AllowUnaligned || width == 1 {
		return nil
	}
	if addr%width != 0 {
		return &UnalignedError{Addr: addr, Width: width}
	}
	return nil
}

func (m *Memory) readByte(addr uint32) (byte, error) {
	if b, ok := m.bytes[addr]; ok {
		return b, nil
	}
	if m.config.DefaultByte != nil {
		return *m.config.DefaultByte, nil
	}
	return 0, &UninitializedError{Addr: addr}
}

// Load reads the value at addr according to op, checking alignment first
// when the op requires it, then resolving each byte in ascending address
// order and assembling them little-endian with the sign/zero extension
// the op specifies.
func (m *Memory) Load(addr uint32, op LoadOp) (int32, error) {
	width := op.width()
	if err := m.checkAlignment(addr, width); err != nil {
		return 0, err
	}

	var raw uint32
	for i := uint32(0); i < width; i++ {
		b, err := m.readByte(addr + i)
		if err != nil {
			return 0, err
		}
		raw |= uint32(b) << (8 * i)
	}

	switch op {
	case Lw:
		return int32(raw), nil
	case Lh:
		return int32(int16(uint16(raw))), nil
	case Lhu:
		return int32(uint16(raw)), nil
	case Lb:
		return int32(int8(uint8(raw))), nil
	case Lbu:
		return int32(uint8(raw)), nil
	default:
		return 0, fmt.Errorf("unknown load op %d", op)
	}
}

// Store writes value at addr according to op, truncating to the op's
// width and writing little-endian. Stores never fail on uninitialized
// grounds; they initialize the bytes they touch.
func (m *Memory) Store(addr uint32, value int32, op StoreOp) error {
	width := op.width()
	if err := m.checkAlignment(addr, width); err != nil {
		return err
	}

	raw := uint32(value)
	for i := uint32(0); i < width; i++ {
		m.bytes[addr+i] = byte(raw >> (8 * i))
	}
	return nil
}

// Snapshot returns a deep copy of the stored bytes, for cloning an
// executor independently (see Executor.Clone).
func (m *Memory) Snapshot() map[uint32]byte {
	cp := make(map[uint32]byte, len(m.bytes))
	for k, v := range m.bytes {
		cp[k] = v
	}
	return cp
}

// RestoreSnapshot replaces the stored bytes with a previously captured
// Snapshot.
func (m *Memory) RestoreSnapshot(snap map[uint32]byte) {
	m.bytes = make(map[uint32]byte, len(snap))
	for k, v := range snap {
		m.bytes[k] = v
	}
}

// clone returns an independent copy of m, for Executor.Clone.
func (m *Memory) clone() *Memory {
	return &Memory{
		config: m.config,
		bytes:  m.Snapshot(),
	}
}
