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

/*
Package tagreport turns RFID/NFC badge scans into HTTP reports.

A badge reader agent polls a tag reader chip, renders each scanned tag's UID
as a canonical identifier, suppresses repeated scans of the same badge, and
posts every accepted scan to a remote endpoint. Delivery is best effort: a
report that fails or times out is dropped, because a frozen reader is worse
than a missing report.

This package holds the contracts shared by the rest of the module:

  - FormatUID renders raw UID bytes as "04:A1:B2:C3".
  - TagReader is implemented by the drivers under reader/.
  - Link keeps the host associated with its wireless network, retrying at a
    fixed cadence through an Associator such as wifi.Interface.
  - Reporter sends the {"rfid": "..."} payload with a short timeout.

The control loop that ties these together lives in the polling package.

Basic Usage:

	link := tagreport.NewLink(wifi.New("wlan0"), tagreport.DefaultReconnectInterval)

	reporter, err := tagreport.NewReporter(
	    "http://badges.local/api/data",
	    "door-1",
	    link,
	    tagreport.WithSendTimeout(200*time.Millisecond),
	)
	if err != nil {
	    log.Fatal(err)
	}

	res := reporter.Send(ctx, tagreport.FormatUID(uid))
	_ = res // failures are intentionally unobserved

Error Handling:

Driver errors are wrapped in *ReaderError and can be matched with errors.Is:

	if errors.Is(err, tagreport.ErrNoTag) {
	    // nothing presented this poll
	}

Thread Safety:

Link, Reporter and the polling loop are driven from a single goroutine.
None of them lock.
*/
package tagreport
