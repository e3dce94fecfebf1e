package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func packetBytes(payload string) []byte {
	return append([]byte{0x50, 0x4b, 0x03, 0x04}, []byte(payload)...)
}

func newTestStore(t *testing.T, maxSize int64) *PacketStore {
	t.Helper()

	store, err := NewPacketStore(t.TempDir(), maxSize, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewPacketStore returned error: %v", err)
	}
	return store
}

func TestPacketStoreStore(t *testing.T) {
	store := newTestStore(t, 1024)

	content := packetBytes("registration packet payload")
	receipt, err := store.Store("10001100010000120240101.zip", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	if receipt.FileName != "10001100010000120240101.zip" {
		t.Fatalf("unexpected file name %s", receipt.FileName)
	}
	if receipt.Size != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), receipt.Size)
	}
	if receipt.StoredAt.IsZero() {
		t.Fatalf("expected stored timestamp")
	}

	stored, err := os.ReadFile(filepath.Join(store.dir, receipt.FileName))
	if err != nil {
		t.Fatalf("read stored packet: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Fatalf("stored content does not match upload")
	}
}

func TestPacketStoreRejectsOversizedPacket(t *testing.T) {
	store := newTestStore(t, 16)

	content := packetBytes(strings.Repeat("x", 64))
	if _, err := store.Store("big.zip", bytes.NewReader(content)); !errors.Is(err, ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}

	entries, err := os.ReadDir(store.dir)
	if err != nil {
		t.Fatalf("read packet dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files after rejected upload, found %d", len(entries))
	}
}

func TestPacketStoreAcceptsPacketAtLimit(t *testing.T) {
	content := packetBytes("1234")
	store := newTestStore(t, int64(len(content)))

	receipt, err := store.Store("exact.zip", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	if receipt.Size != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), receipt.Size)
	}
}

func TestPacketStoreRejectsNonZipContent(t *testing.T) {
	store := newTestStore(t, 1024)

	if _, err := store.Store("fake.zip", strings.NewReader("plain text pretending")); !errors.Is(err, ErrNotAPacket) {
		t.Fatalf("expected ErrNotAPacket for bad magic, got %v", err)
	}
	if _, err := store.Store("notes.txt", bytes.NewReader(packetBytes("x"))); !errors.Is(err, ErrNotAPacket) {
		t.Fatalf("expected ErrNotAPacket for bad extension, got %v", err)
	}
}

func TestPacketStoreSanitizesFileName(t *testing.T) {
	store := newTestStore(t, 1024)

	receipt, err := store.Store("../../escape.zip", bytes.NewReader(packetBytes("x")))
	if err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	if receipt.FileName != "escape.zip" {
		t.Fatalf("expected base name only, got %s", receipt.FileName)
	}

	if _, err := store.Store("   ", bytes.NewReader(packetBytes("x"))); !errors.Is(err, ErrInvalidPacketName) {
		t.Fatalf("expected ErrInvalidPacketName, got %v", err)
	}
	if _, err := store.Store(".hidden.zip", bytes.NewReader(packetBytes("x"))); !errors.Is(err, ErrInvalidPacketName) {
		t.Fatalf("expected ErrInvalidPacketName for dotfile, got %v", err)
	}
}
