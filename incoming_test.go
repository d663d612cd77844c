// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nemo

import "testing"

func TestIncomingQueueEnqueueAndBin(t *testing.T) {
	q := NewIncomingQueue(100, 1.0)
	if err := q.Enqueue(5, 3, 2); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	bin := q.Bin(7) // 5+2
	if len(bin) != 1 || bin[0].source != 3 || bin[0].delay != 2 {
		t.Errorf("Bin(7) = %+v, want [{source:3 delay:2}]", bin)
	}
	q.Clear(7)
	if len(q.Bin(7)) != 0 {
		t.Errorf("Bin(7) after Clear = %+v, want empty", q.Bin(7))
	}
}

func TestIncomingQueueWrapsAtMaxDelay(t *testing.T) {
	q := NewIncomingQueue(100, 1.0)
	if err := q.Enqueue(int64(MaxDelay-1), 0, 2); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	// (MaxDelay-1)+2 wraps to bin 1.
	bin := q.Bin(1)
	if len(bin) != 1 {
		t.Errorf("Bin(1) = %+v, want one wrapped entry", bin)
	}
}

func TestIncomingQueueOverflow(t *testing.T) {
	q := NewIncomingQueue(0, 1.0) // floors to the minimum capacity of 16
	if q.Capacity() != 16 {
		t.Fatalf("Capacity() = %d, want 16", q.Capacity())
	}
	for i := 0; i < q.Capacity(); i++ {
		if err := q.Enqueue(0, i, 1); err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
	}
	if err := q.Enqueue(0, 999, 1); KindOf(err) != BufferOverflow {
		t.Errorf("Enqueue past capacity kind = %v, want BufferOverflow", KindOf(err))
	}
}
