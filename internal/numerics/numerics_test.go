// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numerics

import (
	"math"
	"testing"
)

func TestFisherExact2x2S6(t *testing.T) {
	got := FisherExact2x2([2][2]int64{{3, 1}, {1, 3}})
	want := 0.4857
	if math.Abs(got-want) > 1e-4 {
		t.Errorf("FisherExact2x2 = %v, want ~%v", got, want)
	}
}

func TestFisherSymmetry(t *testing.T) {
	v := [2][2]int64{{12, 7}, {3, 19}}
	rowSwap := [2][2]int64{{3, 19}, {12, 7}}
	colSwap := [2][2]int64{{7, 12}, {19, 3}}

	base := FisherExact2x2(v)
	if got := FisherExact2x2(rowSwap); math.Abs(got-base) > 1e-12 {
		t.Errorf("row swap p-value = %v, want %v", got, base)
	}
	if got := FisherExact2x2(colSwap); math.Abs(got-base) > 1e-12 {
		t.Errorf("column swap p-value = %v, want %v", got, base)
	}
}

func TestAdjustBHMonotone(t *testing.T) {
	p := []float64{0.01, 0.02, 0.03, 0.04, 0.05}
	got := AdjustBH(p)
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Errorf("AdjustBH not monotone at %d: %v < %v", i, got[i], got[i-1])
		}
	}
}

func TestAdjustBHSentinel(t *testing.T) {
	p := []float64{0.01, NoTest, 0.02}
	got := AdjustBH(p)
	if got[1] != 0 {
		t.Errorf("sentinel position = %v, want 0", got[1])
	}
}

func TestBinomTestSymmetric(t *testing.T) {
	pv, err := BinomTest(5, 10, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pv-1) > 1e-9 {
		t.Errorf("BinomTest(5,10,0.5) = %v, want 1", pv)
	}
}

func TestBinomTestInvalidP(t *testing.T) {
	if _, err := BinomTest(1, 2, 1.5); err == nil {
		t.Error("expected error for p outside [0,1]")
	}
}

func TestStirlingErrorTableBoundary(t *testing.T) {
	// Values should be strictly positive and decreasing as n grows,
	// matching the asymptotic 1/(12n) leading term.
	prev := StirlingError(1)
	for n := int64(2); n <= 20; n++ {
		cur := StirlingError(n)
		if cur <= 0 {
			t.Errorf("StirlingError(%d) = %v, want > 0", n, cur)
		}
		if cur >= prev {
			t.Errorf("StirlingError(%d) = %v, want < StirlingError(%d) = %v", n, cur, n-1, prev)
		}
		prev = cur
	}
}
