// File: protocol/generator.go
// Package protocol implements outgoing frame header generation.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The generator renders only headers. Payload bytes are written by the
// flusher, either into its aggregate buffer or as separate ranges of a
// gather write; masking of the payload, when requested, is the submitter's
// concern.

package protocol

import (
	"encoding/binary"

	"github.com/momentics/wsflush/api"
)

// Generator renders frame headers and carries the shared buffer pool
// used for header buffers and the flusher's write aggregate.
type Generator struct {
	pool api.BufferPool
}

// NewGenerator returns a Generator backed by pool.
func NewGenerator(pool api.BufferPool) *Generator {
	return &Generator{pool: pool}
}

// Pool returns the buffer pool shared with the flusher.
func (g *Generator) Pool() api.BufferPool { return g.pool }

// HeaderBytes renders f's header into a freshly acquired pool buffer.
// The caller owns the buffer and must release it to Pool() when done.
func (g *Generator) HeaderBytes(f *Frame) ([]byte, error) {
	buf, err := g.pool.Acquire(MaxHeaderLength)
	if err != nil {
		return nil, err
	}
	return g.AppendHeader(buf, f), nil
}

// AppendHeader renders f's header onto dst and returns the extended slice.
func (g *Generator) AppendHeader(dst []byte, f *Frame) []byte {
	var b0 byte
	if f.Fin {
		b0 |= FinBit
	}
	if f.Rsv1 {
		b0 |= Rsv1Bit
	}
	if f.Rsv2 {
		b0 |= Rsv2Bit
	}
	if f.Rsv3 {
		b0 |= Rsv3Bit
	}
	b0 |= byte(f.Opcode) & 0x0F

	var maskBit byte
	if f.Masked {
		maskBit = MaskBit
	}

	plen := len(f.Payload)
	switch {
	case plen <= MaxControlPayload:
		dst = append(dst, b0, byte(plen)|maskBit)
	case plen <= 0xFFFF:
		dst = append(dst, b0, payloadLen16|maskBit)
		var ext [2]byte
		binary.BigEndian.PutUint16(ext[:], uint16(plen))
		dst = append(dst, ext[:]...)
	default:
		dst = append(dst, b0, payloadLen64|maskBit)
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], uint64(plen))
		dst = append(dst, ext[:]...)
	}

	if f.Masked {
		dst = append(dst, f.MaskKey[:]...)
	}
	return dst
}
