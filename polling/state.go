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

package polling

import (
	"fmt"
	"time"
)

// State is the loop's position in the scan cycle.
type State int

const (
	// StateIdle means no tag is being processed.
	StateIdle State = iota
	// StateReporting covers formatting, debounce, feedback, report and
	// release of one scanned tag.
	StateReporting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReporting:
		return "reporting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TagEvent is one scan read from the reader. It lives for a single tick.
type TagEvent struct {
	ObservedAt time.Time
	// ID correlates the log lines of one scan.
	ID         string
	Identifier string
}

// Outcome classifies what a tick did.
type Outcome int

const (
	// OutcomeNoTag means the reader had nothing to report.
	OutcomeNoTag Outcome = iota
	// OutcomeSuppressed means the scan repeated the last reported tag
	// inside the debounce window.
	OutcomeSuppressed
	// OutcomeReported means the scan was accepted and a send was made.
	OutcomeReported
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoTag:
		return "no_tag"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeReported:
		return "reported"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}
