package irproto

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"kvirsearch/internal/schema"
)

// testWriter builds little-endian IR unit fixtures mirroring the
// decoder's wire layout, for round-trip testing.
type testWriter struct {
	buf bytes.Buffer
}

func (w *testWriter) u8(v byte)     { w.buf.WriteByte(v) }
func (w *testWriter) u16(v uint16)  { var b [2]byte; binary.LittleEndian.PutUint16(b[:], v); w.buf.Write(b[:]) }
func (w *testWriter) u32(v uint32)  { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); w.buf.Write(b[:]) }
func (w *testWriter) i64(v int64)   { var b [8]byte; binary.LittleEndian.PutUint64(b[:], uint64(v)); w.buf.Write(b[:]) }
func (w *testWriter) f64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
}
func (w *testWriter) str(s string) { w.u16(uint16(len(s))); w.buf.WriteString(s) }
func (w *testWriter) nodeID(v int32, enc EncodingType) {
	if enc == EightByteEncoding {
		w.i64(int64(v))
	} else {
		w.u32(uint32(v))
	}
}

func (w *testWriter) reader() Reader { return NewReader(bytes.NewReader(w.buf.Bytes())) }

func TestPreamble_RoundTrip(t *testing.T) {
	var w testWriter
	w.u8(byte(FourByteEncoding))
	w.u8(metadataTypeJSON)
	body := []byte(`{"version":"v0.1.0","user_defined_metadata":{"host":"a"}}`)
	w.u32(uint32(len(body)))
	w.buf.Write(body)

	r := w.reader()
	enc, err := GetEncodingType(r)
	if err != nil || enc != FourByteEncoding {
		t.Fatalf("GetEncodingType() = %v, %v", enc, err)
	}
	md, err := DeserializePreamble(r, DefaultSupportedVersion)
	if err != nil {
		t.Fatalf("DeserializePreamble(): %v", err)
	}
	if md.Version != "v0.1.0" {
		t.Errorf("Version = %q", md.Version)
	}
	if md.UserDefinedMetadata["host"] != "a" {
		t.Errorf("UserDefinedMetadata = %v", md.UserDefinedMetadata)
	}
}

func TestPreamble_UnsupportedVersion(t *testing.T) {
	var w testWriter
	w.u8(metadataTypeJSON)
	body := []byte(`{"version":"bogus"}`)
	w.u32(uint32(len(body)))
	w.buf.Write(body)

	_, err := DeserializePreamble(w.reader(), DefaultSupportedVersion)
	if err != ErrUnsupportedVersion {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestPreamble_UnsupportedMetadataType(t *testing.T) {
	var w testWriter
	w.u8(0xee)
	w.u32(0)

	_, err := DeserializePreamble(w.reader(), DefaultSupportedVersion)
	if err != ErrUnsupportedMetadata {
		t.Fatalf("err = %v, want ErrUnsupportedMetadata", err)
	}
}

func TestPreamble_Truncated(t *testing.T) {
	var w testWriter
	w.u8(metadataTypeJSON)
	w.u32(10) // declares 10 bytes but none follow

	_, err := DeserializePreamble(w.reader(), DefaultSupportedVersion)
	if err != ErrTruncated {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestSchemaTreeNodeInsertion_RoundTrip(t *testing.T) {
	const enc = FourByteEncoding
	var w testWriter
	tag := byte(UnitSchemaTreeNodeInsertion<<kindShift) | tagAutoGenBit
	w.nodeID(0, enc)
	w.str("ts")
	w.u8(byte(schema.Int))

	isAutoGen, loc, err := DeserializeSchemaTreeNodeInsertion(w.reader(), tag, enc)
	if err != nil {
		t.Fatalf("DeserializeSchemaTreeNodeInsertion(): %v", err)
	}
	if !isAutoGen {
		t.Error("expected auto_gen")
	}
	want := schema.Locator{ParentID: 0, KeyName: "ts", Type: schema.Int}
	if loc != want {
		t.Errorf("loc = %+v, want %+v", loc, want)
	}
}

func TestSchemaTreeNodeInsertion_CorruptType(t *testing.T) {
	const enc = FourByteEncoding
	var w testWriter
	w.nodeID(0, enc)
	w.str("x")
	w.u8(0xaa)

	_, _, err := DeserializeSchemaTreeNodeInsertion(w.reader(), 0, enc)
	if err != ErrCorrupt {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}

func TestUtcOffsetChange_RoundTrip(t *testing.T) {
	var w testWriter
	w.i64(-18000000000000)

	got, err := DeserializeUtcOffsetChange(w.reader())
	if err != nil {
		t.Fatalf("DeserializeUtcOffsetChange(): %v", err)
	}
	if got != -18000000000000 {
		t.Errorf("got %d", got)
	}
}

func TestLogEvent_RoundTrip(t *testing.T) {
	const enc = FourByteEncoding
	var w testWriter
	tag := byte(UnitLogEvent << kindShift) // width code 0 -> uint8 counts

	// auto_gen: one int pair
	w.u8(1)
	w.nodeID(1, enc)
	w.u8(valueTagInt)
	w.i64(42)

	// user_gen: two pairs (bool, short string)
	w.u8(2)
	w.nodeID(2, enc)
	w.u8(valueTagBool)
	w.u8(1)
	w.nodeID(3, enc)
	w.u8(valueTagShortString)
	w.str("hello")

	autoGen, userGen, err := DeserializeKvPairLogEvent(w.reader(), tag, enc)
	if err != nil {
		t.Fatalf("DeserializeKvPairLogEvent(): %v", err)
	}
	if len(autoGen) != 1 || autoGen[0].NodeID != 1 || autoGen[0].Value.Int != 42 {
		t.Errorf("autoGen = %+v", autoGen)
	}
	if len(userGen) != 2 {
		t.Fatalf("userGen = %+v", userGen)
	}
	if userGen[0].NodeID != 2 || !userGen[0].Value.Bool {
		t.Errorf("userGen[0] = %+v", userGen[0])
	}
	if userGen[1].NodeID != 3 || userGen[1].Value.ShortStr != "hello" {
		t.Errorf("userGen[1] = %+v", userGen[1])
	}
}

func TestClpEncodedString_RoundTripThroughWire(t *testing.T) {
	const enc = FourByteEncoding
	var w testWriter
	tag := byte(UnitLogEvent << kindShift)
	w.u8(0) // no auto_gen pairs
	w.u8(1) // one user_gen pair
	w.nodeID(5, enc)
	w.u8(valueTagClpEncodedString)
	w.str("user " + string(byte(0x11)) + " logged in")
	w.u16(1)
	w.str("alice")
	w.u16(0)
	w.u16(0)

	_, userGen, err := DeserializeKvPairLogEvent(w.reader(), tag, enc)
	if err != nil {
		t.Fatalf("DeserializeKvPairLogEvent(): %v", err)
	}
	decoded, err := userGen[0].Value.ClpStr.Decode()
	if err != nil {
		t.Fatalf("Decode(): %v", err)
	}
	if decoded != "user alice logged in" {
		t.Errorf("decoded = %q", decoded)
	}
}

func TestUnitKindOf(t *testing.T) {
	tests := []struct {
		tag  byte
		want UnitKind
	}{
		{0x00, UnitSchemaTreeNodeInsertion},
		{0x10, UnitUtcOffsetChange},
		{0x20, UnitLogEvent},
		{0x30, UnitEndOfStream},
	}
	for _, tt := range tests {
		got, err := UnitKindOf(tt.tag)
		if err != nil || got != tt.want {
			t.Errorf("UnitKindOf(%#x) = %v, %v, want %v", tt.tag, got, err, tt.want)
		}
	}

	if _, err := UnitKindOf(0x40); err != ErrUnsupportedTag {
		t.Errorf("err = %v, want ErrUnsupportedTag", err)
	}
}
