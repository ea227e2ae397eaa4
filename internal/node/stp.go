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

package node

import (
	"strconv"
	"strings"

	"github.com/sabouaram/netsim/internal/packet"
)

// ControlMagic is the literal ticket-position token that opens every STP
// control payload, distinguishing it from application payloads (which open
// with a 4-digit ticket).
const ControlMagic = "9999"

// ControlState describes the fields of one "9999:root:dist:kind:child" frame.
type ControlState struct {
	RootID  uint8
	Dist    int
	Kind    byte
	IsChild bool
}

// EncodeControl renders a ControlState into its wire payload.
func EncodeControl(s ControlState) string {
	child := "N"
	if s.IsChild {
		child = "Y"
	}

	return ControlMagic + ":" +
		strconv.Itoa(int(s.RootID)) + ":" +
		strconv.Itoa(s.Dist) + ":" +
		string(s.Kind) + ":" +
		child
}

// DecodeControl parses a "9999:root:dist:kind:child" wire payload.
func DecodeControl(payload string) (ControlState, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 5 || parts[0] != ControlMagic {
		return ControlState{}, MalformedControl.Errorf(payload)
	}

	root, err := strconv.Atoi(parts[1])
	if err != nil || root < 0 || root > 255 {
		return ControlState{}, MalformedControl.Errorf(payload)
	}

	dist, err := strconv.Atoi(parts[2])
	if err != nil || dist < 0 {
		return ControlState{}, MalformedControl.Errorf(payload)
	}

	if len(parts[3]) != 1 {
		return ControlState{}, MalformedControl.Errorf(payload)
	}

	return ControlState{
		RootID:  uint8(root),
		Dist:    dist,
		Kind:    parts[3][0],
		IsChild: parts[4] == "Y",
	}, nil
}

// BuildControlPacket wraps a ControlState as a broadcast CONTROL packet
// originated by self.
func BuildControlPacket(self uint8, s ControlState) (*packet.Packet, error) {
	return packet.New(self, packet.Broadcast, packet.Control, []byte(EncodeControl(s)))
}
