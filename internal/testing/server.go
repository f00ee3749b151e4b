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
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// ReceivedReport is one request captured by ReportServer.
type ReceivedReport struct {
	Method      string
	Path        string
	ContentType string
	Body        string
}

// ReportServer is an httptest server that records every request.
type ReportServer struct {
	*httptest.Server
	reports []ReceivedReport
	delay   time.Duration
	status  int
	mu      sync.Mutex
}

// NewReportServer starts a server answering with status after delay. It is
// closed when the test ends.
func NewReportServer(t *testing.T, status int, delay time.Duration) *ReportServer {
	t.Helper()

	s := &ReportServer{status: status, delay: delay}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *ReportServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.reports = append(s.reports, ReceivedReport{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(body),
	})
	delay := s.delay
	status := s.status
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

// Reports returns a copy of the captured requests.
func (s *ReportServer) Reports() []ReceivedReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReceivedReport(nil), s.reports...)
}
