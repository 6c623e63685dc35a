package storage

import (
	"bufio"
	"dice-io-server/pkg/api"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Journal is a decoded journal file.
type Journal struct {
	Seed      int64
	Timestamp int64
	Fights    []api.FightMessage
}

func ReadJournalFile(path string) (*Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadJournal(bufio.NewReader(f))
}

// ReadJournal decodes records until EOF. A record cut short by a crash is
// reported as io.ErrUnexpectedEOF along with everything read before it.
func ReadJournal(r io.Reader) (*Journal, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(header.Magic[:]) != MagicHeader {
		return nil, fmt.Errorf("invalid magic")
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, Version1)
	}

	j := &Journal{Seed: header.Seed, Timestamp: header.Timestamp}
	for {
		var rh RecordHeader
		if err := binary.Read(r, binary.LittleEndian, &rh); err != nil {
			if errors.Is(err, io.EOF) {
				return j, nil
			}
			return j, err
		}

		payload := make([]byte, rh.PayloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return j, err
		}
		var msg api.FightMessage
		if err := api.MsgPack.Unmarshal(payload, &msg); err != nil {
			return j, fmt.Errorf("record %d: %w", len(j.Fights), err)
		}
		j.Fights = append(j.Fights, msg)
	}
}
