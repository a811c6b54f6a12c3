// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/huff0"
)

// Huffman stream layout:
//
//	magic "PVH1"
//	block*: mode(1) | uvarint rawLen | uvarint payloadLen | payload
//
// mode is blockRaw (payload is the input), blockHuff (huff0 1X stream with
// its table) or blockRLE (payload is the single repeated byte).
const (
	huffMagic    = "PVH1"
	huffBlockMax = 64 << 10

	blockRaw  byte = 0
	blockHuff byte = 1
	blockRLE  byte = 2
)

// ErrCorrupt is returned when a compressed stream cannot be decoded.
var ErrCorrupt = errors.New("corrupt compressed stream")

// Huffman is a block-wise Huffman byte compressor built on huff0.
type Huffman struct {
	blockSize int
}

// NewHuffman returns a Huffman codec with the default block size.
func NewHuffman() *Huffman {
	return &Huffman{blockSize: huffBlockMax}
}

// Name implements Codec.
func (h *Huffman) Name() string { return "huffman" }

// Compress implements Codec.
func (h *Huffman) Compress(src, dst string) error {
	return transform(src, dst, h.encode)
}

// Decompress implements Codec.
func (h *Huffman) Decompress(src, dst string) error {
	return transform(src, dst, h.decode)
}

func (h *Huffman) encode(w io.Writer, r io.Reader) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(huffMagic); err != nil {
		return err
	}
	buf := make([]byte, h.blockSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if werr := writeHuffBlock(bw, buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}
	return bw.Flush()
}

func writeHuffBlock(w *bufio.Writer, in []byte) error {
	mode, payload := blockRaw, in
	s := &huff0.Scratch{Reuse: huff0.ReusePolicyNone}
	out, _, err := huff0.Compress1X(in, s)
	switch {
	case err == nil && len(out) < len(in):
		mode, payload = blockHuff, out
	case errors.Is(err, huff0.ErrUseRLE):
		mode, payload = blockRLE, in[:1]
	case err == nil, errors.Is(err, huff0.ErrIncompressible):
	default:
		return fmt.Errorf("huffman compress: %w", err)
	}

	var hdr [1 + 2*binary.MaxVarintLen64]byte
	hdr[0] = mode
	n := 1
	n += binary.PutUvarint(hdr[n:], uint64(len(in)))
	n += binary.PutUvarint(hdr[n:], uint64(len(payload)))
	if _, err := w.Write(hdr[:n]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func (h *Huffman) decode(w io.Writer, r io.Reader) error {
	br := bufio.NewReader(r)
	magic := make([]byte, len(huffMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("%w: missing header: %v", ErrCorrupt, err)
	}
	if string(magic) != huffMagic {
		return fmt.Errorf("%w: bad magic %q", ErrCorrupt, magic)
	}

	bw := bufio.NewWriter(w)
	for {
		mode, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read block header: %w", err)
		}
		block, err := readHuffBlock(br, mode, h.blockSize)
		if err != nil {
			return err
		}
		if _, err := bw.Write(block); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func readHuffBlock(r *bufio.Reader, mode byte, maxSize int) ([]byte, error) {
	rawLen, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: block length: %v", ErrCorrupt, err)
	}
	payloadLen, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: payload length: %v", ErrCorrupt, err)
	}
	if rawLen == 0 || rawLen > uint64(maxSize) || payloadLen > rawLen {
		return nil, fmt.Errorf("%w: block sizes %d/%d out of range", ErrCorrupt, rawLen, payloadLen)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated block: %v", ErrCorrupt, err)
	}

	switch mode {
	case blockRaw:
		if payloadLen != rawLen {
			return nil, fmt.Errorf("%w: raw block length mismatch", ErrCorrupt)
		}
		return payload, nil
	case blockRLE:
		if payloadLen != 1 {
			return nil, fmt.Errorf("%w: rle block carries %d bytes", ErrCorrupt, payloadLen)
		}
		out := make([]byte, rawLen)
		for i := range out {
			out[i] = payload[0]
		}
		return out, nil
	case blockHuff:
		s, remain, err := huff0.ReadTable(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: huffman table: %v", ErrCorrupt, err)
		}
		out, err := s.Decoder().Decompress1X(make([]byte, 0, rawLen), remain)
		if err != nil {
			return nil, fmt.Errorf("%w: huffman block: %v", ErrCorrupt, err)
		}
		if uint64(len(out)) != rawLen {
			return nil, fmt.Errorf("%w: decoded %d bytes, want %d", ErrCorrupt, len(out), rawLen)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown block mode %d", ErrCorrupt, mode)
	}
}
