package field

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		n, m, want int
	}{
		{0, 10, 0},
		{9, 10, 9},
		{10, 10, 0},
		{-1, 10, 9},
		{-10, 10, 0},
		{-11, 10, 9},
		{25, 10, 5},
		{7, 1, 0},
	}
	for _, tt := range tests {
		if got := Wrap(tt.n, tt.m); got != tt.want {
			t.Errorf("Wrap(%d, %d) = %d, want %d", tt.n, tt.m, got, tt.want)
		}
	}

	// Always in range, and congruent to n
	for n := -50; n <= 50; n++ {
		got := Wrap(n, 7)
		if got < 0 || got >= 7 || (n-got)%7 != 0 {
			t.Fatalf("Wrap(%d, 7) = %d out of range or not congruent", n, got)
		}
	}
}

func TestResolve(t *testing.T) {
	x, y := Toroidal.Resolve(-1, 12, 10, 10)
	if x != 9 || y != 2 {
		t.Errorf("toroidal resolve = (%d,%d), want (9,2)", x, y)
	}
	x, y = Clamped.Resolve(-1, 12, 10, 10)
	if x != 0 || y != 9 {
		t.Errorf("clamped resolve = (%d,%d), want (0,9)", x, y)
	}
}

func TestAddAccumulates(t *testing.T) {
	f := New(4, 4, Toroidal)
	for range 5 {
		f.Add(1, 2, 2.5)
	}
	if got := f.Get(1, 2); got != 12.5 {
		t.Errorf("Get = %v, want 12.5", got)
	}
	// Out-of-range writes land on the wrapped cell
	f.Add(5, -2, 1)
	if got := f.Get(1, 2); got != 13.5 {
		t.Errorf("wrapped Add: Get = %v, want 13.5", got)
	}
}

func TestDecayFloorsAtZero(t *testing.T) {
	f := New(3, 3, Toroidal)
	f.Set(0, 0, 0.05)
	f.Set(1, 1, 1.0)
	f.DecayAll(0.1)

	if got := f.Get(0, 0); got != 0 {
		t.Errorf("decayed small value = %v, want 0", got)
	}
	if got := f.Get(1, 1); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("decayed value = %v, want 0.9", got)
	}

	p := NewProcessor(0.1, 0, 1, DiffuseDecay, 1)
	for range 20 {
		p.Process(f)
	}
	for i, v := range f.Values() {
		if v != 0 {
			t.Fatalf("cell %d = %v after repeated decay, want 0", i, v)
		}
	}
}

func TestUniformFieldStaysUniform(t *testing.T) {
	for _, b := range []Boundary{Toroidal, Clamped} {
		t.Run(b.String(), func(t *testing.T) {
			f := New(12, 9, b)
			for i := range f.data {
				f.data[i] = 3.7
			}
			p := NewProcessor(0, 1, 2, DiffuseDecay, 1)
			for range 10 {
				p.Process(f)
			}
			for i, v := range f.Values() {
				if v != 3.7 {
					t.Fatalf("cell %d = %v, want exactly 3.7", i, v)
				}
			}
		})
	}
}

func TestDiffusionSpreadsSpikeSymmetrically(t *testing.T) {
	f := New(9, 9, Toroidal)
	f.Set(4, 4, 9)

	p := NewProcessor(0, 1, 1, DiffuseDecay, 1)
	p.Process(f)

	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			want := 0.0
			if x >= 3 && x <= 5 && y >= 3 && y <= 5 {
				want = 1
			}
			if got := f.Get(x, y); got != want {
				t.Errorf("(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestDiffusionConservesMassOnTorus(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	f := New(32, 24, Toroidal)
	for i := range f.data {
		f.data[i] = rng.Float64() * 10
	}
	before := f.Total()

	p := NewProcessor(0, 0.7, 1, DiffuseDecay, 1)
	for range 5 {
		p.Process(f)
	}
	if after := f.Total(); math.Abs(after-before) > 1e-9*before {
		t.Errorf("total changed from %v to %v", before, after)
	}
}

func TestClampedCornerDropsMissingNeighbours(t *testing.T) {
	f := New(5, 5, Clamped)
	f.Set(0, 0, 4)

	p := NewProcessor(0, 1, 1, DiffuseDecay, 1)
	p.Diffuse(f)

	// Corner sees 4 in-grid cells: 4 + (3 * -4)/4
	if got := f.Get(0, 0); got != 1 {
		t.Errorf("corner = %v, want 1", got)
	}
	// Diagonal neighbour sees all 9 cells
	if got := f.Get(1, 1); got != 4.0/9 {
		t.Errorf("diagonal = %v, want 4/9", got)
	}
}

func TestFusedMatchesDiffuseThenDecay(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	a := New(20, 20, Toroidal)
	for i := range a.data {
		a.data[i] = rng.Float64()
	}
	b := New(20, 20, Toroidal)
	if err := b.CopyFrom(a.Values()); err != nil {
		t.Fatal(err)
	}

	seq := NewProcessor(0.05, 0.8, 1, DiffuseDecay, 1)
	fused := NewProcessor(0.05, 0.8, 1, Fused, 1)
	for range 3 {
		seq.Process(a)
		fused.Process(b)
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			t.Fatalf("cell %d: diffuse_decay %v != fused %v", i, a.data[i], b.data[i])
		}
	}
}

func TestDecayDiffuseOrderDiffers(t *testing.T) {
	a := New(5, 5, Toroidal)
	a.Set(2, 2, 0.9)
	b := New(5, 5, Toroidal)
	b.Set(2, 2, 0.9)

	NewProcessor(0.1, 1, 1, DiffuseDecay, 1).Process(a)
	NewProcessor(0.1, 1, 1, DecayDiffuse, 1).Process(b)

	// Diffuse first: 0.1 everywhere near the spike, then decayed to 0.
	if a.Total() > 1e-12 {
		t.Errorf("diffuse_decay total = %v, want 0", a.Total())
	}
	// Decay first: 0.8 spread over 9 cells survives.
	if math.Abs(b.Total()-0.8) > 1e-12 {
		t.Errorf("decay_diffuse total = %v, want 0.8", b.Total())
	}
}

func TestParallelDiffusionMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	a := New(64, 96, Toroidal)
	for i := range a.data {
		a.data[i] = rng.Float64() * 5
	}
	b := New(64, 96, Toroidal)
	b.CopyFrom(a.Values())

	NewProcessor(0.01, 0.5, 2, DiffuseDecay, 1).Process(a)
	NewProcessor(0.01, 0.5, 2, DiffuseDecay, 4).Process(b)

	for i := range a.data {
		if a.data[i] != b.data[i] {
			t.Fatalf("cell %d: sequential %v != parallel %v", i, a.data[i], b.data[i])
		}
	}
}

func TestNormalize(t *testing.T) {
	f := New(2, 2, Toroidal)
	got := f.Normalize(nil)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for i, v := range got {
		if v != 0 {
			t.Errorf("zero field normalized[%d] = %v, want 0", i, v)
		}
	}

	f.Set(0, 0, 4)
	f.Set(1, 1, 1)
	got = f.Normalize(got)
	if got[0] != 1 || got[3] != 0.25 || got[1] != 0 {
		t.Errorf("normalized = %v, want [1 0 0 0.25]", got)
	}
	// Source untouched
	if f.Get(0, 0) != 4 {
		t.Errorf("Normalize modified field")
	}
}

func TestCopyFromRejectsWrongLength(t *testing.T) {
	f := New(3, 3, Toroidal)
	if err := f.CopyFrom(make([]float64, 8)); err == nil {
		t.Error("expected error for short slice")
	}
}

func BenchmarkProcess(b *testing.B) {
	f := New(400, 400, Toroidal)
	rng := rand.New(rand.NewPCG(1, 1))
	for i := range f.data {
		f.data[i] = rng.Float64()
	}

	for _, workers := range []int{1, 4} {
		p := NewProcessor(0.1, 1, 1, DiffuseDecay, workers)
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				p.Process(f)
			}
		})
	}
}
