package fastrand

import "testing"

func TestUint64nBounds(t *testing.T) {
	var f Fastrand
	for _, n := range []uint64{1, 2, 3, 10, 65535, 1 << 40} {
		for i := 0; i < 1000; i++ {
			if v := f.Uint64n(n); v >= n {
				t.Fatalf("f.Uint64n(%d) = %d, want < %d", n, v, n)
			}
		}
	}
}

func TestUint64nOne(t *testing.T) {
	f := New()
	for i := 0; i < 100; i++ {
		if v := f.Uint64n(1); v != 0 {
			t.Fatalf("f.Uint64n(1) = %d, want 0", v)
		}
	}
}

func TestUint64nZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("f.Uint64n(0) did not panic")
		}
	}()
	var f Fastrand
	f.Uint64n(0)
}

func TestUint64nCoversRange(t *testing.T) {
	f := New()
	var seen [8]bool
	for i := 0; i < 1000; i++ {
		seen[f.Uint64n(8)] = true
	}
	for v, ok := range seen {
		if !ok {
			t.Errorf("value %d never drawn in 1000 draws from [0, 8)", v)
		}
	}
}
