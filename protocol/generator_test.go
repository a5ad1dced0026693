package protocol_test

import (
	"bytes"
	"testing"

	"github.com/momentics/wsflush/pool"
	"github.com/momentics/wsflush/protocol"
)

func TestAppendHeaderSmallPayload(t *testing.T) {
	g := protocol.NewGenerator(pool.New())
	f := protocol.NewBinaryFrame(make([]byte, 5))

	hdr := g.AppendHeader(nil, f)
	want := []byte{0x82, 0x05}
	if !bytes.Equal(hdr, want) {
		t.Fatalf("header = %x, want %x", hdr, want)
	}
}

func TestAppendHeaderExtended16(t *testing.T) {
	g := protocol.NewGenerator(pool.New())
	f := protocol.NewBinaryFrame(make([]byte, 300))

	hdr := g.AppendHeader(nil, f)
	want := []byte{0x82, 126, 0x01, 0x2C}
	if !bytes.Equal(hdr, want) {
		t.Fatalf("header = %x, want %x", hdr, want)
	}
}

func TestAppendHeaderExtended64(t *testing.T) {
	g := protocol.NewGenerator(pool.New())
	f := protocol.NewBinaryFrame(make([]byte, 70000))

	hdr := g.AppendHeader(nil, f)
	want := []byte{0x82, 127, 0, 0, 0, 0, 0, 0x01, 0x11, 0x70}
	if !bytes.Equal(hdr, want) {
		t.Fatalf("header = %x, want %x", hdr, want)
	}
}

func TestAppendHeaderMaskKey(t *testing.T) {
	g := protocol.NewGenerator(pool.New())
	f := &protocol.Frame{
		Fin:     true,
		Opcode:  protocol.OpText,
		Masked:  true,
		MaskKey: [4]byte{0x11, 0x22, 0x33, 0x44},
		Payload: []byte("hi"),
	}

	hdr := g.AppendHeader(nil, f)
	want := []byte{0x81, 0x80 | 0x02, 0x11, 0x22, 0x33, 0x44}
	if !bytes.Equal(hdr, want) {
		t.Fatalf("header = %x, want %x", hdr, want)
	}
}

func TestAppendHeaderRsvAndNonFin(t *testing.T) {
	g := protocol.NewGenerator(pool.New())
	f := &protocol.Frame{Rsv1: true, Opcode: protocol.OpText, Payload: []byte("x")}

	hdr := g.AppendHeader(nil, f)
	if hdr[0] != 0x41 {
		t.Fatalf("first byte = %#x, want 0x41", hdr[0])
	}

	f.Fin = true
	f.Rsv2, f.Rsv3 = true, true
	hdr = g.AppendHeader(nil, f)
	if hdr[0] != 0xF1 {
		t.Fatalf("first byte = %#x, want 0xF1", hdr[0])
	}
}

func TestAppendHeaderPreservesPrefix(t *testing.T) {
	g := protocol.NewGenerator(pool.New())
	dst := append(make([]byte, 0, 64), 0xAA, 0xBB)

	out := g.AppendHeader(dst, protocol.NewPingFrame(nil))
	if out[0] != 0xAA || out[1] != 0xBB {
		t.Fatal("prefix overwritten")
	}
	if out[2] != 0x89 || out[3] != 0x00 {
		t.Fatalf("ping header = %x", out[2:])
	}
}

func TestAppendHeaderNeverExceedsMax(t *testing.T) {
	g := protocol.NewGenerator(pool.New())
	f := &protocol.Frame{
		Fin:     true,
		Opcode:  protocol.OpBinary,
		Masked:  true,
		Payload: make([]byte, 1<<17),
	}

	hdr := g.AppendHeader(nil, f)
	if len(hdr) > protocol.MaxHeaderLength {
		t.Fatalf("header length %d exceeds MaxHeaderLength %d", len(hdr), protocol.MaxHeaderLength)
	}
}

func TestHeaderBytesUsesPool(t *testing.T) {
	p := pool.New()
	g := protocol.NewGenerator(p)

	hdr, err := g.HeaderBytes(protocol.NewBinaryFrame([]byte("abc")))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(hdr, []byte{0x82, 0x03}) {
		t.Fatalf("header = %x", hdr)
	}

	p.Release(hdr)
	stats := p.Stats()
	if stats.InUse != 0 {
		t.Fatalf("InUse = %d after release", stats.InUse)
	}
}

func TestOpcodeClassification(t *testing.T) {
	control := []protocol.Opcode{protocol.OpClose, protocol.OpPing, protocol.OpPong}
	data := []protocol.Opcode{protocol.OpContinuation, protocol.OpText, protocol.OpBinary}

	for _, op := range control {
		if !op.IsControl() {
			t.Errorf("%v should be control", op)
		}
	}
	for _, op := range data {
		if op.IsControl() {
			t.Errorf("%v should not be control", op)
		}
	}
}

func TestNewCloseFrame(t *testing.T) {
	f := protocol.NewCloseFrame(protocol.CloseNormalClosure, "bye")
	if f.Opcode != protocol.OpClose || !f.Fin {
		t.Fatal("bad close frame flags")
	}
	want := []byte{0x03, 0xE8, 'b', 'y', 'e'}
	if !bytes.Equal(f.Payload, want) {
		t.Fatalf("payload = %x, want %x", f.Payload, want)
	}
}
