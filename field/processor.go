package field

import (
	"runtime"
	"sync"
)

// Order selects how decay and diffusion are combined.
type Order uint8

const (
	DiffuseDecay Order = iota // diffuse, then decay
	DecayDiffuse              // decay, then diffuse
	Fused                     // one pass; equal to DiffuseDecay
)

// minRowsPerWorker keeps tiny grids single-threaded.
const minRowsPerWorker = 16

// Processor applies decay and box-mean diffusion to a Field once per step.
//
// Diffusion reads a stable copy of the grid and writes a separate buffer,
// so a cell's new value depends only on values from the previous step.
type Processor struct {
	DecayRate     float64 // subtracted per step, floored at 0
	DiffusionRate float64 // blend toward box mean in [0,1]; 0 disables
	HalfWidth     int     // kernel is (1+2*HalfWidth)^2; 0 disables
	Order         Order

	workers int
	scratch []float64
}

// NewProcessor creates a processor. workers <= 0 uses GOMAXPROCS.
func NewProcessor(decayRate, diffusionRate float64, halfWidth int, order Order, workers int) *Processor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Processor{
		DecayRate:     decayRate,
		DiffusionRate: diffusionRate,
		HalfWidth:     halfWidth,
		Order:         order,
		workers:       workers,
	}
}

// Process runs one step of the configured transform.
func (p *Processor) Process(f *Field) {
	switch p.Order {
	case DecayDiffuse:
		p.Decay(f)
		p.Diffuse(f)
	case Fused:
		if !p.diffusing() {
			p.Decay(f)
			return
		}
		p.diffuse(f, p.DecayRate)
	default:
		p.Diffuse(f)
		p.Decay(f)
	}
}

// Decay subtracts DecayRate from every cell, flooring at zero.
func (p *Processor) Decay(f *Field) {
	if p.DecayRate == 0 {
		return
	}
	f.DecayAll(p.DecayRate)
}

// Diffuse blends every cell toward the mean of its neighbourhood.
func (p *Processor) Diffuse(f *Field) {
	if !p.diffusing() {
		return
	}
	p.diffuse(f, 0)
}

func (p *Processor) diffusing() bool {
	return p.DiffusionRate > 0 && p.HalfWidth > 0
}

// diffuse writes the blended (and optionally decayed) grid into scratch,
// then swaps it in as the field's storage.
func (p *Processor) diffuse(f *Field, decay float64) {
	n := len(f.data)
	if cap(p.scratch) < n {
		p.scratch = make([]float64, n)
	}
	dst := p.scratch[:n]
	src := f.data

	workers := p.workers
	if maxW := f.h / minRowsPerWorker; workers > maxW {
		workers = maxW
	}
	if workers <= 1 {
		p.diffuseRows(f, src, dst, 0, f.h, decay)
	} else {
		var wg sync.WaitGroup
		chunk := (f.h + workers - 1) / workers
		for y0 := 0; y0 < f.h; y0 += chunk {
			y1 := min(y0+chunk, f.h)
			wg.Add(1)
			go func(y0, y1 int) {
				defer wg.Done()
				p.diffuseRows(f, src, dst, y0, y1, decay)
			}(y0, y1)
		}
		wg.Wait()
	}

	p.scratch = f.swap(dst)
}

// diffuseRows processes rows [y0, y1). Under the clamped policy,
// out-of-grid neighbours are dropped from both sum and count.
func (p *Processor) diffuseRows(f *Field, src, dst []float64, y0, y1 int, decay float64) {
	w, h, k := f.w, f.h, p.HalfWidth
	r := p.DiffusionRate
	toroidal := f.boundary == Toroidal

	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			c := src[y*w+x]

			// Summing offsets from the centre keeps a uniform field exactly uniform.
			var sum float64
			count := 0
			for dy := -k; dy <= k; dy++ {
				yy := y + dy
				if toroidal {
					yy = Wrap(yy, h)
				} else if yy < 0 || yy >= h {
					continue
				}
				row := yy * w
				for dx := -k; dx <= k; dx++ {
					xx := x + dx
					if toroidal {
						xx = Wrap(xx, w)
					} else if xx < 0 || xx >= w {
						continue
					}
					sum += src[row+xx] - c
					count++
				}
			}

			v := c + r*(sum/float64(count)) - decay
			if v < 0 {
				v = 0
			}
			dst[y*w+x] = v
		}
	}
}
