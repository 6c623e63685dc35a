package storage

import (
	"bufio"
	"dice-io-server/pkg/api"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sasha-s/go-deadlock"
)

const (
	MagicHeader string = `DIFJ`
	Version1    uint32 = 1
)

// FileHeader opens every journal file. Fixed size, so binary.Write can
// write it in one call.
type FileHeader struct {
	Magic     [4]byte
	Version   uint32
	Seed      int64
	Timestamp int64
}

// RecordHeader precedes each msgpack-encoded fight.
type RecordHeader struct {
	UntilTick  int64
	PlayerA    uint32
	PlayerB    uint32
	PayloadLen uint16
}

// FightJournal appends resolved fights to a binary file. Appends come from
// the game loop; Close may come from the shutdown path.
type FightJournal struct {
	Path string

	mu      deadlock.Mutex
	f       *os.File
	w       *bufio.Writer
	records int
}

// OpenFightJournal creates a new journal file in dir.
func OpenFightJournal(dir string, seed int64) (*FightJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("fights_%d_%d.difj", seed, now.Unix()))

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	j := &FightJournal{Path: path, f: f, w: bufio.NewWriter(f)}

	header := FileHeader{Version: Version1, Seed: seed, Timestamp: now.UnixMilli()}
	copy(header.Magic[:], MagicHeader)
	if err := binary.Write(j.w, binary.LittleEndian, &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return j, nil
}

func (j *FightJournal) Append(msg api.FightMessage) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return os.ErrClosed
	}
	if err := writeRecord(j.w, msg); err != nil {
		return err
	}
	j.records++
	return nil
}

func writeRecord(w io.Writer, msg api.FightMessage) error {
	payload, err := api.MsgPack.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode fight: %w", err)
	}
	if len(payload) > math.MaxUint16 {
		return fmt.Errorf("payload too long: %d", len(payload))
	}

	rh := RecordHeader{
		UntilTick:  msg.UntilTick,
		PlayerA:    msg.PlayerAID,
		PlayerB:    msg.PlayerBID,
		PayloadLen: uint16(len(payload)),
	}
	if err := binary.Write(w, binary.LittleEndian, &rh); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// Records is the number of fights appended so far.
func (j *FightJournal) Records() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.records
}

func (j *FightJournal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return nil
	}
	return j.w.Flush()
}

// Close flushes and closes the file. Later appends fail with os.ErrClosed.
func (j *FightJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return nil
	}
	err := j.w.Flush()
	if cerr := j.f.Close(); err == nil {
		err = cerr
	}
	j.w, j.f = nil, nil
	return err
}
