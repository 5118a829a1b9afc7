// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package z

import (
	"fmt"
	"testing"
)

func TestEntryPosNeg(t *testing.T) {
	e := Entry(33)
	m := e.Pos()
	n := e.Neg()
	if m.Sign() != 1 {
		t.Errorf("wrong sign for pos bp %d", m.Sign())
	}
	if n.Sign() != -1 {
		t.Errorf("wrong sign for neg bp %d", n.Sign())
	}
	if m.Not() != n {
		t.Errorf("bp pos/neg not negations")
	}
	if m.Entry() != e || n.Entry() != e {
		t.Errorf("generated bps not same entry")
	}
	if fmt.Sprintf("%s", e) != fmt.Sprintf("e%d", uint32(e)) {
		t.Errorf("format.")
	}
}

func TestBPNegateIdempotent(t *testing.T) {
	for i := Entry(1); i < 100; i++ {
		m := i.Pos()
		if m.Not().Not() != m {
			t.Errorf("negate not involutive for %s", m)
		}
	}
}

func TestTopBottom(t *testing.T) {
	if TOP.Not() != BOTTOM {
		t.Errorf("Not(TOP) != BOTTOM")
	}
	if BOTTOM.Not() != TOP {
		t.Errorf("Not(BOTTOM) != TOP")
	}
	if !TOP.IsPos() {
		t.Errorf("TOP should be positive")
	}
	if BOTTOM.IsPos() {
		t.Errorf("BOTTOM should be negative")
	}
}

func TestBPNullInvalid(t *testing.T) {
	if BPNull.Valid() {
		t.Errorf("BPNull should not be valid")
	}
	if !TOP.Valid() {
		t.Errorf("TOP should be valid")
	}
}
