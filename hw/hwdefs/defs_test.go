package hwdefs

import "testing"

func TestStepperNoDrift(t *testing.T) {
	tests := []struct {
		num, den uint64
		n        uint64
	}{
		{NTSC.Num << 16, NTSC.Den * 44100, 1_000_000},
		{NTSC.Num * 16639, NTSC.Den * 1_000_000, 100_000},
		{PAL.Num * 19997, PAL.Den * 1_000_000, 100_000},
		{10, 3, 999},
	}
	for _, tt := range tests {
		s := NewStepper(tt.num, tt.den)
		var sum uint64
		for range tt.n {
			if p := s.Peek(); p != s.Peek() {
				t.Fatalf("Peek not idempotent")
			}
			want := s.Peek()
			got := s.Next()
			if got != want {
				t.Fatalf("Next() = %d, Peek() said %d", got, want)
			}
			sum += got
		}
		// n*num may overflow; compare through the quotient and remainder.
		q, r := tt.num/tt.den, tt.num%tt.den
		want := tt.n*q + (tt.n*r)/tt.den
		if sum != want {
			t.Errorf("sum of %d steps of %d/%d = %d, want %d", tt.n, tt.num, tt.den, sum, want)
		}
	}
}

func TestInterruptString(t *testing.T) {
	if got := (NMI | IRQ).String(); got != "nmi|irq" {
		t.Errorf("String() = %q, want nmi|irq", got)
	}
	if got := Interrupt(0).String(); got != "" {
		t.Errorf("String() = %q, want empty", got)
	}
}
