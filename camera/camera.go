// Package camera maps between grid cells and window pixels for a pan and
// zoom view over the trail field.
package camera

import "math"

// Camera controls the viewport into the grid. At zoom 1 the whole grid
// fills the viewport; higher zoom shows a smaller region.
type Camera struct {
	// Center of the view in grid coordinates
	X, Y float32

	Zoom float32

	ViewportW, ViewportH float32
	WorldW, WorldH       float32

	// Wrap lets the view pan across edges of a toroidal grid. Without it
	// the visible region is kept inside the grid.
	Wrap bool

	MinZoom, MaxZoom float32
}

// New creates a camera centered on the grid at zoom 1.
func New(viewportW, viewportH, worldW, worldH float32, wrap bool) *Camera {
	return &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		Wrap:      wrap,
		MinZoom:   1,
		MaxZoom:   16,
	}
}

// Visible returns the grid-space rectangle shown in the viewport. With
// Wrap the origin may be negative or the extent may pass the grid edge.
func (c *Camera) Visible() (x, y, w, h float32) {
	w = c.WorldW / c.Zoom
	h = c.WorldH / c.Zoom
	return c.X - w/2, c.Y - h/2, w, h
}

// Scale returns screen pixels per grid cell along each axis.
func (c *Camera) Scale() (sx, sy float32) {
	return c.ViewportW * c.Zoom / c.WorldW, c.ViewportH * c.Zoom / c.WorldH
}

// WorldToScreen converts grid coordinates to screen coordinates, taking
// the shortest way around the grid when wrapping.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	dx, dy := wx-c.X, wy-c.Y
	if c.Wrap {
		dx = toroidalDelta(wx, c.X, c.WorldW)
		dy = toroidalDelta(wy, c.Y, c.WorldH)
	}
	scaleX, scaleY := c.Scale()
	return c.ViewportW/2 + dx*scaleX, c.ViewportH/2 + dy*scaleY
}

// ScreenToWorld converts screen coordinates to grid coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	scaleX, scaleY := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/scaleX
	wy = c.Y + (sy-c.ViewportH/2)/scaleY
	if c.Wrap {
		wx = mod(wx, c.WorldW)
		wy = mod(wy, c.WorldH)
	}
	return wx, wy
}

// IsVisible reports whether a point within margin cells of (wx, wy)
// could appear on screen.
func (c *Camera) IsVisible(wx, wy, margin float32) bool {
	sx, sy := c.WorldToScreen(wx, wy)
	scaleX, scaleY := c.Scale()
	mx, my := margin*scaleX, margin*scaleY
	return sx >= -mx && sx <= c.ViewportW+mx && sy >= -my && sy <= c.ViewportH+my
}

// Pan moves the view by a drag of (dx, dy) screen pixels: the content
// follows the pointer.
func (c *Camera) Pan(dx, dy float32) {
	scaleX, scaleY := c.Scale()
	c.X -= dx / scaleX
	c.Y -= dy / scaleY
	c.constrain()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.constrain()
}

// ZoomAt multiplies the zoom by factor while keeping the cell under the
// screen point (sx, sy) in place.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	if c.Wrap {
		// Unwrap so the anchor is on the same side as the pointer
		wx = c.X + toroidalDelta(wx, c.X, c.WorldW)
		wy = c.Y + toroidalDelta(wy, c.Y, c.WorldH)
	}
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	scaleX, scaleY := c.Scale()
	c.X = wx - (sx-c.ViewportW/2)/scaleX
	c.Y = wy - (sy-c.ViewportH/2)/scaleY
	c.constrain()
}

// Resize updates the viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = 1
}

func (c *Camera) constrain() {
	if c.Wrap {
		c.X = mod(c.X, c.WorldW)
		c.Y = mod(c.Y, c.WorldH)
		return
	}
	halfW := c.WorldW / c.Zoom / 2
	halfH := c.WorldH / c.Zoom / 2
	c.X = clamp(c.X, halfW, c.WorldW-halfW)
	c.Y = clamp(c.Y, halfH, c.WorldH-halfH)
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a toroidal space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

func clamp(x, lo, hi float32) float32 {
	return min(max(x, lo), hi)
}
