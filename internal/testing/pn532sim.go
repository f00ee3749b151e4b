// go-tagreport
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-tagreport.
//
// go-tagreport is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-tagreport is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-tagreport; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package testing

import (
	"sync"

	"github.com/ZaparooProject/go-tagreport/internal/frame"
)

// PN532Sim answers host frames the way a PN532 does: an ACK frame, then a
// response frame. Transport tests wrap it in a fake bus or port.
type PN532Sim struct {
	responses    map[byte][]byte
	frames       [][]byte
	commands     [][]byte
	lastResponse []byte
	stream       []byte
	nacks        int
	acks         int
	corrupt      int
	mu           sync.Mutex
	silent       bool
}

// NewPN532Sim creates a simulator answering the reader's commands with an
// empty RF field.
func NewPN532Sim() *PN532Sim {
	return &PN532Sim{
		responses: map[byte][]byte{
			CmdGetFirmwareVersion:  BuildFirmwareVersionResponse(),
			CmdSAMConfiguration:    BuildSAMConfigurationResponse(),
			CmdRFConfiguration:     BuildRFConfigurationResponse(),
			CmdInListPassiveTarget: BuildNoTagResponse(),
			CmdInRelease:           BuildReleaseResponse(0x00),
		},
	}
}

// SetResponse sets the payload returned for cmd.
func (s *PN532Sim) SetResponse(cmd byte, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[cmd] = payload
}

// CorruptResponses breaks the data checksum of the next n response frames,
// resends after a NACK included.
func (s *PN532Sim) CorruptResponses(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corrupt = n
}

// SetSilent stops the simulator from answering at all.
func (s *PN532Sim) SetSilent(silent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent = silent
}

// Write consumes bytes written by the host.
func (s *PN532Sim) Write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case frame.IsNack(p):
		s.nacks++
		if s.lastResponse != nil {
			s.queueResponse(s.lastResponse)
		}
		return
	case frame.IsAck(p):
		s.acks++
		return
	}

	payload, _, err := frame.ParseCommand(p)
	if err != nil || len(payload) == 0 {
		return
	}
	s.commands = append(s.commands, payload)
	if s.silent {
		return
	}

	resp, ok := s.responses[payload[0]]
	if !ok {
		return
	}
	frm, err := frame.BuildResponse(resp)
	if err != nil {
		return
	}
	s.lastResponse = frm

	s.queue(frame.AckFrame)
	s.queueResponse(frm)
}

func (s *PN532Sim) queueResponse(frm []byte) {
	if s.corrupt > 0 {
		s.corrupt--
		bad := append([]byte(nil), frm...)
		bad[len(bad)-2] ^= 0xFF
		s.queue(bad)
		return
	}
	s.queue(frm)
}

func (s *PN532Sim) queue(frm []byte) {
	s.frames = append(s.frames, append([]byte(nil), frm...))
}

// Ready reports whether the simulator has a frame for the host.
func (s *PN532Sim) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) > 0
}

// NextFrame pops the next pending frame, or nil.
func (s *PN532Sim) NextFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	frm := s.frames[0]
	s.frames = s.frames[1:]
	return frm
}

// ReadStream copies pending frames into p as one byte stream, the way they
// arrive on a serial line. It returns 0 when nothing is pending.
func (s *PN532Sim) ReadStream(p []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.stream) < len(p) && len(s.frames) > 0 {
		s.stream = append(s.stream, s.frames[0]...)
		s.frames = s.frames[1:]
	}
	n := copy(p, s.stream)
	s.stream = s.stream[n:]
	return n
}

// Commands returns every command received, command code first.
func (s *PN532Sim) Commands() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.commands))
	copy(out, s.commands)
	return out
}

// Acks returns how many ACK frames the host sent.
func (s *PN532Sim) Acks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acks
}

// Nacks returns how many NACK frames the host sent.
func (s *PN532Sim) Nacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nacks
}
