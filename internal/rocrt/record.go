package rocrt

import (
	"encoding/binary"
	"fmt"
)

// ActivityRecordSize is the wire size of one activity record.
const ActivityRecordSize = 56

// ActivityRecord is the fixed little-endian layout of one hardware
// activity record as delivered by the runtime's buffer flush.
type ActivityRecord struct {
	Domain        Domain
	Kind          uint32
	Op            CallbackID
	_             uint32
	CorrelationID uint64
	BeginNs       uint64
	EndNs         uint64
	DeviceID      uint32
	QueueID       uint32
	Bytes         uint64
}

// DecodeActivityRecord reads one record from the front of buf.
func DecodeActivityRecord(buf []byte) (ActivityRecord, error) {
	var rec ActivityRecord
	if len(buf) < ActivityRecordSize {
		return rec, fmt.Errorf("activity record truncated: %d bytes", len(buf))
	}
	rec.Domain = Domain(binary.LittleEndian.Uint32(buf[0:4]))
	rec.Kind = binary.LittleEndian.Uint32(buf[4:8])
	rec.Op = CallbackID(binary.LittleEndian.Uint32(buf[8:12]))
	rec.CorrelationID = binary.LittleEndian.Uint64(buf[16:24])
	rec.BeginNs = binary.LittleEndian.Uint64(buf[24:32])
	rec.EndNs = binary.LittleEndian.Uint64(buf[32:40])
	rec.DeviceID = binary.LittleEndian.Uint32(buf[40:44])
	rec.QueueID = binary.LittleEndian.Uint32(buf[44:48])
	rec.Bytes = binary.LittleEndian.Uint64(buf[48:56])
	return rec, nil
}

// AppendActivityRecord encodes rec onto dst. Used by test fakes to
// synthesize flush buffers.
func AppendActivityRecord(dst []byte, rec ActivityRecord) []byte {
	var b [ActivityRecordSize]byte
	binary.LittleEndian.PutUint32(b[0:4], uint32(rec.Domain))
	binary.LittleEndian.PutUint32(b[4:8], rec.Kind)
	binary.LittleEndian.PutUint32(b[8:12], uint32(rec.Op))
	binary.LittleEndian.PutUint64(b[16:24], rec.CorrelationID)
	binary.LittleEndian.PutUint64(b[24:32], rec.BeginNs)
	binary.LittleEndian.PutUint64(b[32:40], rec.EndNs)
	binary.LittleEndian.PutUint32(b[40:44], rec.DeviceID)
	binary.LittleEndian.PutUint32(b[44:48], rec.QueueID)
	binary.LittleEndian.PutUint64(b[48:56], rec.Bytes)
	return append(dst, b[:]...)
}
