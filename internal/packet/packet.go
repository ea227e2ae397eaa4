/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package packet implements the fixed-layout wire frame exchanged between
// nodes: a 4-byte header (src, dst, type, length) followed by up to
// PayloadMax bytes of payload.
package packet

import (
	"io"
)

// PayloadMax is the maximum number of payload bytes a single frame may carry.
const PayloadMax = 100

// HeaderSize is the number of bytes occupied by the fixed header.
const HeaderSize = 4

// Broadcast is the reserved destination id meaning "every reachable node".
const Broadcast uint8 = 255

// Type is the closed set of packet kinds carried by the type header byte.
type Type uint8

const (
	PingReq Type = iota
	PingResponse
	UploadReq
	UploadResponse
	Upload
	UploadEnd
	DownloadReq
	DownloadResponse
	DNSRegistration
	DNSRegistrationResponse
	DNSQuery
	DNSQueryResponse
	Control
)

// String returns the literal name of the packet type, mirroring the
// original get_packet_type_literal lookup.
func (t Type) String() string {
	switch t {
	case PingReq:
		return "PING_REQ"
	case PingResponse:
		return "PING_RESPONSE"
	case UploadReq:
		return "UPLOAD_REQ"
	case UploadResponse:
		return "UPLOAD_RESPONSE"
	case Upload:
		return "UPLOAD"
	case UploadEnd:
		return "UPLOAD_END"
	case DownloadReq:
		return "DOWNLOAD_REQ"
	case DownloadResponse:
		return "DOWNLOAD_RESPONSE"
	case DNSRegistration:
		return "DNS_REGISTRATION"
	case DNSRegistrationResponse:
		return "DNS_REGISTRATION_RESPONSE"
	case DNSQuery:
		return "DNS_QUERY"
	case DNSQueryResponse:
		return "DNS_QUERY_RESPONSE"
	case Control:
		return "CONTROL"
	default:
		return "UNKNOWN_TYPE"
	}
}

// Valid reports whether t is one of the closed set of known packet types.
func (t Type) Valid() bool {
	return t <= Control
}

// Packet is a single fixed-layout frame.
type Packet struct {
	Src     uint8
	Dst     uint8
	Type    Type
	Length  uint8
	Payload [PayloadMax]byte
}

// New builds a Packet from a source/destination pair, a type and a payload
// slice. It returns a PacketTooLarge error if payload exceeds PayloadMax.
func New(src, dst uint8, typ Type, payload []byte) (*Packet, error) {
	if len(payload) > PayloadMax {
		return nil, PacketTooLarge.Errorf(len(payload), PayloadMax)
	}

	p := &Packet{
		Src:    src,
		Dst:    dst,
		Type:   typ,
		Length: uint8(len(payload)),
	}
	copy(p.Payload[:], payload)

	return p, nil
}

// Data returns the meaningful slice of the payload, i.e. Payload[:Length].
func (p *Packet) Data() []byte {
	if p == nil {
		return nil
	}

	n := int(p.Length)
	if n > PayloadMax {
		n = PayloadMax
	}

	return p.Payload[:n]
}

// IsBroadcast reports whether the packet's destination is the broadcast id.
func (p *Packet) IsBroadcast() bool {
	return p.Dst == Broadcast
}

// MarshalBinary encodes the packet into its wire representation.
func (p *Packet) MarshalBinary() ([]byte, error) {
	if p == nil {
		return nil, NilPacket.Error()
	}
	if int(p.Length) > PayloadMax {
		return nil, PacketTooLarge.Errorf(p.Length, PayloadMax)
	}

	buf := make([]byte, HeaderSize+int(p.Length))
	buf[0] = p.Src
	buf[1] = p.Dst
	buf[2] = uint8(p.Type)
	buf[3] = p.Length
	copy(buf[HeaderSize:], p.Payload[:p.Length])

	return buf, nil
}

// UnmarshalBinary decodes a wire frame produced by MarshalBinary.
func (p *Packet) UnmarshalBinary(buf []byte) error {
	if len(buf) < HeaderSize {
		return ShortFrame.Errorf(len(buf), HeaderSize)
	}

	length := buf[3]
	if len(buf) < HeaderSize+int(length) {
		return ShortFrame.Errorf(len(buf), HeaderSize+int(length))
	}

	p.Src = buf[0]
	p.Dst = buf[1]
	p.Type = Type(buf[2])
	p.Length = length
	copy(p.Payload[:], buf[HeaderSize:HeaderSize+int(length)])

	return nil
}

// WriteTo serializes the packet and writes it to w in a single call, relying
// on the pipe/socket's atomic-write guarantee for frames of this size.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	buf, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}

	n, werr := w.Write(buf)
	return int64(n), werr
}

// ReadFrom reads exactly one frame's header then its payload from r.
func ReadFrom(r io.Reader) (*Packet, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	length := hdr[3]
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}

	p := &Packet{
		Src:    hdr[0],
		Dst:    hdr[1],
		Type:   Type(hdr[2]),
		Length: length,
	}
	copy(p.Payload[:], payload)

	return p, nil
}

// Clone returns a deep copy of the packet, mirroring deepcopy_packet.
func (p *Packet) Clone() *Packet {
	if p == nil {
		return nil
	}

	c := *p
	return &c
}

