package deserializer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"kvirsearch/internal/irproto"
	"kvirsearch/internal/kverrors"
	"kvirsearch/internal/resolver"
	"kvirsearch/internal/schema"
)

// Tag byte layout mirrors internal/irproto/tag.go's documented wire
// format: high nibble selects the unit kind, low nibble carries
// kind-specific substructure.
const (
	tagSchemaAutoGen = 0x01 // SchemaTreeNodeInsertion, auto_gen
	tagSchemaUserGen = 0x00 // SchemaTreeNodeInsertion, user_gen
	tagUtcOffset     = 0x10
	tagLogEventU8    = 0x20 // LogEvent, uint8 pair counts
	tagEndOfStream   = 0x30
)

type testWriter struct{ buf bytes.Buffer }

func (w *testWriter) u8(v byte)    { w.buf.WriteByte(v) }
func (w *testWriter) u16(v uint16) { var b [2]byte; binary.LittleEndian.PutUint16(b[:], v); w.buf.Write(b[:]) }
func (w *testWriter) u32(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); w.buf.Write(b[:]) }
func (w *testWriter) i64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
}
func (w *testWriter) str(s string) { w.u16(uint16(len(s))); w.buf.WriteString(s) }
func (w *testWriter) reader() irproto.Reader {
	return irproto.NewReader(bytes.NewReader(w.buf.Bytes()))
}

type call struct {
	kind string
	args []any
}

type fakeHandler struct {
	calls []call
	err   error // if set, every callback returns this
}

func (h *fakeHandler) HandleSchemaTreeNodeInsertion(isAutoGen bool, nodeID int32, loc schema.Locator) error {
	h.calls = append(h.calls, call{"schema", []any{isAutoGen, nodeID, loc}})
	return h.err
}
func (h *fakeHandler) HandleUtcOffsetChange(newOffsetNs int64) error {
	h.calls = append(h.calls, call{"utc", []any{newOffsetNs}})
	return h.err
}
func (h *fakeHandler) HandleLogEvent(event Event, utcOffsetNs int64) error {
	h.calls = append(h.calls, call{"log", []any{event, utcOffsetNs}})
	return h.err
}
func (h *fakeHandler) HandleEndOfStream() error {
	h.calls = append(h.calls, call{"eof", nil})
	return h.err
}

func TestDeserializer_FullStream(t *testing.T) {
	var w testWriter

	// SchemaTreeNodeInsertion: auto_gen node "ts" (Int) under root.
	w.u8(tagSchemaAutoGen)
	w.u32(0) // parent id
	w.str("ts")
	w.u8(byte(schema.Int))

	// UtcOffsetChange.
	w.u8(tagUtcOffset)
	w.i64(-18000000000000)

	// LogEvent: one auto_gen pair (node 1 = int 42), no user_gen pairs.
	w.u8(tagLogEventU8)
	w.u8(1)
	w.u32(1)
	w.u8(0) // valueTagInt
	w.i64(42)
	w.u8(0)

	// EndOfStream.
	w.u8(tagEndOfStream)

	res := resolver.New(nil, nil)
	handler := &fakeHandler{}
	d := New(w.reader(), irproto.FourByteEncoding, res, handler)

	for i := 0; i < 4; i++ {
		if _, err := d.Step(); err != nil {
			t.Fatalf("Step() #%d: %v", i, err)
		}
	}
	if !d.Finished() {
		t.Fatal("expected Finished() == true")
	}
	if d.UtcOffsetNs() != -18000000000000 {
		t.Errorf("UtcOffsetNs() = %d", d.UtcOffsetNs())
	}
	if len(handler.calls) != 4 {
		t.Fatalf("expected 4 handler calls, got %d", len(handler.calls))
	}
	if handler.calls[0].kind != "schema" || handler.calls[1].kind != "utc" ||
		handler.calls[2].kind != "log" || handler.calls[3].kind != "eof" {
		t.Fatalf("unexpected call order: %+v", handler.calls)
	}

	if _, err := d.Step(); !errors.Is(err, kverrors.ErrAlreadyFinished) {
		t.Fatalf("Step() after EndOfStream: err = %v, want ErrAlreadyFinished", err)
	}
}

func TestDeserializer_DuplicateSchemaNode(t *testing.T) {
	var w testWriter
	w.u8(tagSchemaUserGen)
	w.u32(0)
	w.str("x")
	w.u8(byte(schema.Str))
	// Same locator again.
	w.u8(tagSchemaUserGen)
	w.u32(0)
	w.str("x")
	w.u8(byte(schema.Str))

	res := resolver.New(nil, nil)
	d := New(w.reader(), irproto.FourByteEncoding, res, &fakeHandler{})

	if _, err := d.Step(); err != nil {
		t.Fatalf("first Step(): %v", err)
	}
	if _, err := d.Step(); !errors.Is(err, kverrors.ErrDuplicateNode) {
		t.Fatalf("second Step(): err = %v, want ErrDuplicateNode", err)
	}
}

func TestDeserializer_HandlerErrorIsWrapped(t *testing.T) {
	var w testWriter
	w.u8(tagEndOfStream)

	res := resolver.New(nil, nil)
	boom := errors.New("boom")
	d := New(w.reader(), irproto.FourByteEncoding, res, &fakeHandler{err: boom})

	_, err := d.Step()
	var herr *kverrors.HandlerError
	if !errors.As(err, &herr) {
		t.Fatalf("expected *kverrors.HandlerError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !d.Finished() {
		t.Fatal("EndOfStream should still mark Finished even though the handler errored")
	}
}
