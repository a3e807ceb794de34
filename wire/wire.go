// Package wire implements the network transport's frame codec (spec
// §4.3/§6): a length-prefixed frame carrying one Element.
//
//	[u32 length_be][u8 kind][payload]
//
// kinds: 0x01 Record, 0x02 Watermark, 0x03 Barrier, 0x04 StreamStatus.
// Record payload: [i64 timestamp][u32 key_len][key_bytes][u32 body_len][body_bytes].
// Watermark payload is a fixed 8-byte timestamp; Barrier a fixed 16 bytes
// (checkpoint id, then completed checkpoint id); StreamStatus a fixed
// 1-byte status.
package wire

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/coreflow/coreflow/element"
	"github.com/pkg/errors"
)

const (
	KindRecord       byte = 0x01
	KindWatermark    byte = 0x02
	KindBarrier      byte = 0x03
	KindStreamStatus byte = 0x04
)

// MaxFrameLength bounds a single frame's payload to guard the reader
// against a corrupt or hostile length prefix.
const MaxFrameLength = 64 << 20 // 64 MiB

var ErrFrameTooLarge = errors.New("wire: frame exceeds MaxFrameLength")

// Encode writes el to w as one frame.
func Encode(w io.Writer, el element.Element) error {
	var payload []byte
	var kind byte

	switch el.Kind {
	case element.KindRecord:
		kind = KindRecord
		payload = encodeRecord(el.Record)
	case element.KindWatermark:
		kind = KindWatermark
		payload = make([]byte, 8)
		binary.BigEndian.PutUint64(payload, uint64(el.WatermarkTS.UnixNano()))
	case element.KindBarrier:
		kind = KindBarrier
		payload = make([]byte, 16)
		binary.BigEndian.PutUint64(payload[0:8], el.CheckpointID)
		binary.BigEndian.PutUint64(payload[8:16], el.CompletedCheckpointID)
	case element.KindStreamStatus:
		kind = KindStreamStatus
		payload = []byte{byte(el.Status)}
	default:
		return errors.Errorf("wire: unknown element kind %v", el.Kind)
	}

	header := make([]byte, 5)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(payload)))
	header[4] = kind

	if _, err := w.Write(header); err != nil {
		return errors.Wrap(err, "wire: write header")
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return errors.Wrap(err, "wire: write payload")
		}
	}
	return nil
}

func encodeRecord(r element.Record) []byte {
	buf := make([]byte, 8+4+len(r.Key)+4+len(r.Payload))
	off := 0
	binary.BigEndian.PutUint64(buf[off:], uint64(r.EventTime.UnixNano()))
	off += 8
	binary.BigEndian.PutUint32(buf[off:], uint32(len(r.Key)))
	off += 4
	off += copy(buf[off:], r.Key)
	binary.BigEndian.PutUint32(buf[off:], uint32(len(r.Payload)))
	off += 4
	copy(buf[off:], r.Payload)
	return buf
}

// Decode reads one frame from r and returns its Element. Returns the
// underlying io.EOF unwrapped when the stream ends cleanly between
// frames, so callers can distinguish "disconnected" from a real error.
func Decode(r io.Reader) (element.Element, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return element.Element{}, errors.Wrap(err, "wire: truncated frame header")
		}
		return element.Element{}, err // io.EOF propagates as-is
	}
	length := binary.BigEndian.Uint32(header[0:4])
	if length > MaxFrameLength {
		return element.Element{}, ErrFrameTooLarge
	}
	kind := header[4]

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return element.Element{}, errors.Wrap(err, "wire: truncated frame payload")
		}
	}

	switch kind {
	case KindRecord:
		rec, err := decodeRecord(payload)
		if err != nil {
			return element.Element{}, err
		}
		return element.NewRecord(rec), nil
	case KindWatermark:
		if len(payload) != 8 {
			return element.Element{}, errors.New("wire: malformed watermark frame")
		}
		ts := time.Unix(0, int64(binary.BigEndian.Uint64(payload)))
		return element.NewWatermark(ts), nil
	case KindBarrier:
		if len(payload) != 16 {
			return element.Element{}, errors.New("wire: malformed barrier frame")
		}
		return element.NewBarrier(binary.BigEndian.Uint64(payload[0:8]), binary.BigEndian.Uint64(payload[8:16])), nil
	case KindStreamStatus:
		if len(payload) != 1 {
			return element.Element{}, errors.New("wire: malformed stream-status frame")
		}
		return element.NewStreamStatus(element.Status(payload[0])), nil
	default:
		return element.Element{}, errors.Errorf("wire: unknown frame kind 0x%02x", kind)
	}
}

func decodeRecord(payload []byte) (element.Record, error) {
	if len(payload) < 8+4 {
		return element.Record{}, errors.New("wire: truncated record header")
	}
	off := 0
	ts := time.Unix(0, int64(binary.BigEndian.Uint64(payload[off:])))
	off += 8
	keyLen := binary.BigEndian.Uint32(payload[off:])
	off += 4
	if uint32(len(payload)-off) < keyLen+4 {
		return element.Record{}, errors.New("wire: truncated record key/body length")
	}
	key := payload[off : off+int(keyLen)]
	off += int(keyLen)
	bodyLen := binary.BigEndian.Uint32(payload[off:])
	off += 4
	if uint32(len(payload)-off) < bodyLen {
		return element.Record{}, errors.New("wire: truncated record body")
	}
	body := payload[off : off+int(bodyLen)]

	return element.Record{
		EventTime: ts,
		Key:       append([]byte(nil), key...),
		Payload:   append([]byte(nil), body...),
	}, nil
}
