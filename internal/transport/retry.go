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

// Package transport provides internal transport utilities
package transport

import (
	"context"
	"time"

	"github.com/ZaparooProject/go-tagreport/reader/pn532"
)

// RetryOperation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the operation should be retried
// - error: any permanent error that should stop retries
type RetryOperation[T any] func() (T, bool, error)

// RetryConfig configures retry behavior
type RetryConfig struct {
	OnRetry     func() error
	Description string
	Port        string
	MaxRetries  int
	RetryDelay  time.Duration
}

// WithRetry executes an operation with retry logic. Between attempts
// OnRetry runs, typically to send a NACK.
func WithRetry[T any](ctx context.Context, config RetryConfig, operation RetryOperation[T]) (T, error) {
	var zero T

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}

		if !shouldRetry {
			return result, nil
		}

		if attempt >= config.MaxRetries {
			break
		}

		if config.OnRetry != nil {
			if err := config.OnRetry(); err != nil {
				return zero, err
			}
		}

		if err := sleep(ctx, config.RetryDelay); err != nil {
			return zero, err
		}
	}

	return zero, pn532.NewTransportError(config.Description, config.Port, pn532.ErrCommunicationFailed)
}

// TimeoutRetry repeats operation every pollDelay until it stops asking for a
// retry, the timeout passes or ctx is done. Used to wait for the chip's
// ready indication.
func TimeoutRetry[T any](
	ctx context.Context, timeout, pollDelay time.Duration, op, port string, operation RetryOperation[T],
) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}
		if !shouldRetry {
			return result, nil
		}

		if !time.Now().Before(deadline) {
			return zero, pn532.NewTransportError(op, port, pn532.ErrTransportTimeout)
		}
		if err := sleep(ctx, pollDelay); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
