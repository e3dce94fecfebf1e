package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrPacketTooLarge is returned when an upload exceeds the configured size limit.
	ErrPacketTooLarge = errors.New("packet exceeds maximum allowed size")
	// ErrNotAPacket is returned when the uploaded content is not a zip archive.
	ErrNotAPacket = errors.New("uploaded file is not a registration packet")
	// ErrInvalidPacketName is returned for empty or path-escaping file names.
	ErrInvalidPacketName = errors.New("invalid packet file name")
)

// zip local file header magic.
var zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// PacketReceipt describes a stored packet.
type PacketReceipt struct {
	FileName string    `json:"file_name"`
	Size     int64     `json:"size"`
	StoredAt time.Time `json:"stored_at"`
}

// PacketStore persists registration packets to a local directory. Packets are
// zip archives produced by the registration client; the store validates the
// archive magic and enforces the configured size ceiling before writing.
type PacketStore struct {
	dir     string
	maxSize int64
	logger  *zap.Logger
	now     func() time.Time
}

// NewPacketStore prepares the target directory and returns a store.
func NewPacketStore(dir string, maxSize int64, logger *zap.Logger) (*PacketStore, error) {
	if dir == "" {
		return nil, errors.New("packet directory is required")
	}
	if maxSize <= 0 {
		return nil, errors.New("packet size limit must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create packet directory: %w", err)
	}

	return &PacketStore{dir: dir, maxSize: maxSize, logger: logger, now: time.Now}, nil
}

// Store writes the packet content under the given file name and returns a
// receipt. The write goes through a temporary file and a rename so a partial
// upload never leaves a truncated packet behind.
func (s *PacketStore) Store(fileName string, content io.Reader) (*PacketReceipt, error) {
	name, err := s.sanitizeName(fileName)
	if err != nil {
		return nil, err
	}

	// Read one byte past the limit to distinguish "exactly at limit"
	// from "over limit".
	limited := io.LimitReader(content, s.maxSize+1)

	header := make([]byte, len(zipMagic))
	n, err := io.ReadFull(limited, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read packet header: %w", err)
	}
	if n < len(zipMagic) || !bytes.Equal(header, zipMagic) {
		return nil, ErrNotAPacket
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp packet file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(header), limited))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("write packet: %w", err)
	}
	if written > s.maxSize {
		return nil, ErrPacketTooLarge
	}

	target := filepath.Join(s.dir, name)
	if err := os.Rename(tmpName, target); err != nil {
		return nil, fmt.Errorf("finalize packet: %w", err)
	}

	receipt := &PacketReceipt{FileName: name, Size: written, StoredAt: s.now().UTC()}

	s.logger.Info("packet stored",
		zap.String("file_name", receipt.FileName),
		zap.Int64("size", receipt.Size),
	)

	return receipt, nil
}

func (s *PacketStore) sanitizeName(fileName string) (string, error) {
	name := strings.TrimSpace(fileName)
	if name == "" {
		return "", ErrInvalidPacketName
	}

	name = filepath.Base(name)
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return "", ErrInvalidPacketName
	}
	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		return "", ErrNotAPacket
	}

	return name, nil
}
