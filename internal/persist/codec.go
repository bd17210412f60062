package persist

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/crypto/blake2b"

	"github.com/tamaranch/ranch/internal/world"
)

// SnapshotVersion is bumped whenever the saved state layout changes in a way
// older readers cannot follow.
const SnapshotVersion = 1

var (
	ErrChecksum = errors.New("snapshot checksum mismatch")
	ErrVersion  = errors.New("unsupported snapshot version")
)

// Snapshot is one encoded save: lz4-compressed JSON and the blake2b-256
// checksum of the compressed bytes.
type Snapshot struct {
	Version  int
	Checksum string
	Payload  []byte
}

func Encode(st *world.State) (Snapshot, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal state: %w", err)
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return Snapshot{}, fmt.Errorf("compress state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return Snapshot{}, fmt.Errorf("compress state: %w", err)
	}
	payload := buf.Bytes()
	return Snapshot{Version: SnapshotVersion, Checksum: checksum(payload), Payload: payload}, nil
}

func Decode(s Snapshot) (*world.State, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, s.Version)
	}
	if checksum(s.Payload) != s.Checksum {
		return nil, ErrChecksum
	}
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(s.Payload)))
	if err != nil {
		return nil, fmt.Errorf("decompress state: %w", err)
	}
	st := &world.State{}
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	if st.Resources == nil {
		st.Resources = world.Resources{}
	}
	return st, nil
}

func checksum(b []byte) string {
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}
