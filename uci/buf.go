// Copyright (C) 2025 Brigham Skarda

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package uci

import (
	"context"
	"fmt"
)

// concurrentCircBuf is a thread-safe circular buffer that overwrites old values,
// and blocks on Next() if nothing is available.
type concurrentCircBuf[T any] struct {
	contents chan T
}

func newCircBuf[T any](size int) *concurrentCircBuf[T] {
	return &concurrentCircBuf[T]{
		contents: make(chan T, size),
	}
}

func (cb *concurrentCircBuf[T]) Next() T {
	return <-cb.contents // blocks until something is available
}

func (cb *concurrentCircBuf[T]) Push(t T) {
	select {
	case cb.contents <- t:
		// success
	default:
		// channel is full, discard oldest
		<-cb.contents
		cb.contents <- t
	}
}

// concurrentBuf is a thread-safe, unbounded FIFO buffer. Unlike
// concurrentCircBuf it never drops values; it grows to accommodate whatever
// hasn't been read yet. Next blocks until a value is available; ctx, passed
// to newConcBuf, governs the buffer's own lifetime (closing its out channel
// once canceled) and NextWithContext additionally accepts a per-call
// deadline so callers can bound an individual wait.
type concurrentBuf[T any] struct {
	ctx context.Context
	in  chan T
	out chan T
}

func newConcBuf[T any](ctx context.Context) *concurrentBuf[T] {
	cb := &concurrentBuf[T]{
		ctx: ctx,
		in:  make(chan T),
		out: make(chan T),
	}
	go cb.pump()
	return cb
}

// pump serializes pushes into a growable queue and feeds out in FIFO order,
// so Push never blocks on a slow reader and Next never misses a value.
func (cb *concurrentBuf[T]) pump() {
	var queue []T
	for {
		if len(queue) == 0 {
			select {
			case v := <-cb.in:
				queue = append(queue, v)
			case <-cb.ctx.Done():
				close(cb.out)
				return
			}
			continue
		}

		select {
		case v := <-cb.in:
			queue = append(queue, v)
		case cb.out <- queue[0]:
			queue = queue[1:]
		case <-cb.ctx.Done():
			close(cb.out)
			return
		}
	}
}

func (cb *concurrentBuf[T]) Push(t T) {
	select {
	case cb.in <- t:
	case <-cb.ctx.Done():
	}
}

// Next blocks until a value is available, ignoring any per-call deadline.
func (cb *concurrentBuf[T]) Next() T {
	return <-cb.out
}

// NextWithContext blocks until a value is available or ctx is done,
// whichever comes first. It also returns an error if the buffer's own
// context (from newConcBuf) ends first.
func (cb *concurrentBuf[T]) NextWithContext(ctx context.Context) (T, error) {
	select {
	case v, ok := <-cb.out:
		if !ok {
			var zero T
			return zero, fmt.Errorf("command stream closed: %w", cb.ctx.Err())
		}
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
