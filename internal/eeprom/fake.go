package eeprom

// FakeStore is an in-memory test double with injectable failures and
// per-address write accounting for wear-bound assertions.
type FakeStore struct {
	// Mem is the backing region, directly inspectable by tests.
	Mem []byte

	// GetErr, PutErr and CommitErr, if set, are returned by the
	// corresponding operation.
	GetErr    error
	PutErr    error
	CommitErr error

	// Writes counts how many Puts touched each address.
	Writes map[int]int

	// Commits counts successful Commit calls.
	Commits int
}

// NewFakeStore creates a zero-filled fake region of the given size.
func NewFakeStore(size int) *FakeStore {
	return &FakeStore{
		Mem:    make([]byte, size),
		Writes: make(map[int]int),
	}
}

// Get reads n bytes starting at addr.
func (f *FakeStore) Get(addr, n int) ([]byte, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	if err := checkRange(addr, n, len(f.Mem)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, f.Mem[addr:addr+n])
	return out, nil
}

// Put writes b at addr and records a write against each touched address.
func (f *FakeStore) Put(addr int, b []byte) error {
	if f.PutErr != nil {
		return f.PutErr
	}
	if err := checkRange(addr, len(b), len(f.Mem)); err != nil {
		return err
	}
	copy(f.Mem[addr:addr+len(b)], b)
	for i := addr; i < addr+len(b); i++ {
		f.Writes[i]++
	}
	return nil
}

// Commit succeeds unless CommitErr is set.
func (f *FakeStore) Commit() error {
	if f.CommitErr != nil {
		return f.CommitErr
	}
	f.Commits++
	return nil
}

// Size returns the region size in bytes.
func (f *FakeStore) Size() int {
	return len(f.Mem)
}

// MaxWrites returns the highest write count over the address range
// [addr, addr+n).
func (f *FakeStore) MaxWrites(addr, n int) int {
	max := 0
	for i := addr; i < addr+n; i++ {
		if f.Writes[i] > max {
			max = f.Writes[i]
		}
	}
	return max
}
