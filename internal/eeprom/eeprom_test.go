package eeprom

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFakeStoreRoundTrip(t *testing.T) {
	s := NewFakeStore(64)
	if err := s.Put(10, []byte{1, 2, 3}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(10, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestFakeStoreRange(t *testing.T) {
	s := NewFakeStore(16)
	if err := s.Put(14, []byte{1, 2, 3}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("put past end: got %v, want ErrOutOfRange", err)
	}
	if _, err := s.Get(-1, 4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("get negative addr: got %v, want ErrOutOfRange", err)
	}
}

func TestFakeStoreCommitError(t *testing.T) {
	s := NewFakeStore(16)
	s.CommitErr = errors.New("boom")
	if err := s.Commit(); err == nil {
		t.Error("expected commit error")
	}
	if s.Commits != 0 {
		t.Errorf("failed commit counted, got %d", s.Commits)
	}
	s.CommitErr = nil
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if s.Commits != 1 {
		t.Errorf("expected 1 commit, got %d", s.Commits)
	}
}

func TestFakeStoreWriteCounts(t *testing.T) {
	s := NewFakeStore(32)
	for i := 0; i < 3; i++ {
		if err := s.Put(8, []byte{0xAA, 0xBB}); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	if got := s.MaxWrites(8, 2); got != 3 {
		t.Errorf("MaxWrites(8,2): got %d, want 3", got)
	}
	if got := s.MaxWrites(10, 2); got != 0 {
		t.Errorf("MaxWrites(10,2): got %d, want 0", got)
	}
}

func TestFileStoreFirstBoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvram.bin")
	s, err := OpenFile(path, 128)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, err := s.Get(0, 128)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for i, b := range got {
		if b != 0 {
			t.Fatalf("byte %d not zero on first boot: %#x", i, b)
		}
	}
	// Nothing on disk until the first commit.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file exists before first commit, stat err=%v", err)
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvram.bin")
	s, err := OpenFile(path, 64)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(20, []byte("hello")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Simulated reboot.
	s2, err := OpenFile(path, 64)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := s2.Get(20, 5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestFileStoreUncommittedPutNotDurable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvram.bin")
	s, err := OpenFile(path, 64)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(0, []byte("abc")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := s.Put(0, []byte("xyz")); err != nil {
		t.Fatalf("put: %v", err)
	}
	// No second commit: reopen must see the committed state.
	s2, err := OpenFile(path, 64)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _ := s2.Get(0, 3)
	if string(got) != "abc" {
		t.Errorf("got %q, want committed %q", got, "abc")
	}
}

func TestFileStoreSizeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvram.bin")
	if err := os.WriteFile(path, make([]byte, 32), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenFile(path, 64); err == nil {
		t.Error("expected error for size mismatch")
	}
}
