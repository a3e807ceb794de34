package wire

import (
	"encoding/binary"
	"io"

	"github.com/coreflow/coreflow/element"
	"github.com/pkg/errors"
)

// Handshake is the first message a network subscriber sends after
// dialing: which (upstream, downstream) edge it wants, and the last
// offset it has durably acknowledged (informational — actual
// exactly-once recovery is driven by the checkpointed connector
// offset, not by transport-level replay; see DESIGN.md).
type Handshake struct {
	Upstream     element.TaskID
	Downstream   element.TaskID
	ResumeOffset uint64
}

func writeTaskID(w io.Writer, id element.TaskID) error {
	jobID := []byte(id.JobID)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(jobID)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(jobID); err != nil {
		return err
	}
	var numBuf [4]byte
	binary.BigEndian.PutUint16(numBuf[0:2], id.TaskNumber)
	binary.BigEndian.PutUint16(numBuf[2:4], id.NumTasks)
	_, err := w.Write(numBuf[:])
	return err
}

func readTaskID(r io.Reader) (element.TaskID, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return element.TaskID{}, err
	}
	jobID := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if len(jobID) > 0 {
		if _, err := io.ReadFull(r, jobID); err != nil {
			return element.TaskID{}, err
		}
	}
	var numBuf [4]byte
	if _, err := io.ReadFull(r, numBuf[:]); err != nil {
		return element.TaskID{}, err
	}
	return element.TaskID{
		JobID:      string(jobID),
		TaskNumber: binary.BigEndian.Uint16(numBuf[0:2]),
		NumTasks:   binary.BigEndian.Uint16(numBuf[2:4]),
	}, nil
}

// WriteHandshake writes h to w.
func WriteHandshake(w io.Writer, h Handshake) error {
	if err := writeTaskID(w, h.Upstream); err != nil {
		return errors.Wrap(err, "wire: write handshake upstream id")
	}
	if err := writeTaskID(w, h.Downstream); err != nil {
		return errors.Wrap(err, "wire: write handshake downstream id")
	}
	var offBuf [8]byte
	binary.BigEndian.PutUint64(offBuf[:], h.ResumeOffset)
	if _, err := w.Write(offBuf[:]); err != nil {
		return errors.Wrap(err, "wire: write handshake resume offset")
	}
	return nil
}

// ReadHandshake reads a Handshake from r.
func ReadHandshake(r io.Reader) (Handshake, error) {
	up, err := readTaskID(r)
	if err != nil {
		return Handshake{}, errors.Wrap(err, "wire: read handshake upstream id")
	}
	down, err := readTaskID(r)
	if err != nil {
		return Handshake{}, errors.Wrap(err, "wire: read handshake downstream id")
	}
	var offBuf [8]byte
	if _, err := io.ReadFull(r, offBuf[:]); err != nil {
		return Handshake{}, errors.Wrap(err, "wire: read handshake resume offset")
	}
	return Handshake{Upstream: up, Downstream: down, ResumeOffset: binary.BigEndian.Uint64(offBuf[:])}, nil
}
