// Package render draws top-down debug views of a combat snapshot.
package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	"firefight/internal/config"
	"firefight/internal/game"
	"firefight/internal/game/spatial"

	"github.com/fogleman/gg"
)

// Options controls the output image.
type Options struct {
	Size       int  // Longest image side in pixels
	ShowAim    bool // Draw a short aim line per character
	ShowGrid   bool // Draw the broad-phase cell grid
	AimLength  float64
	MarkerSize float64 // Character radius in pixels
}

// DefaultOptions returns a readable view for arenas of a few thousand units.
func DefaultOptions() Options {
	return Options{
		Size:       800,
		ShowAim:    true,
		ShowGrid:   true,
		AimLength:  24,
		MarkerSize: 6,
	}
}

// Palette
var (
	colorBackground = color.RGBA{12, 12, 28, 255}
	colorGrid       = color.RGBA{30, 30, 45, 255}
	colorProp       = color.RGBA{90, 90, 110, 255}
	colorPropMoving = color.RGBA{130, 110, 70, 255}
	colorCharacter  = color.RGBA{80, 170, 255, 255}
	colorBot        = color.RGBA{255, 149, 0, 255}
	colorDead       = color.RGBA{255, 62, 62, 160}
	colorAccepted   = color.RGBA{83, 255, 69, 255}
	colorRejected   = color.RGBA{255, 62, 62, 255}
	colorHPBack     = color.RGBA{51, 51, 51, 255}
)

// Renderer turns snapshots into images. Safe for concurrent use; each call
// borrows a context from a pool.
type Renderer struct {
	opts Options
	pool sync.Pool
}

// NewRenderer creates a renderer. Zero option fields take defaults.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Size <= 0 {
		opts.Size = def.Size
	}
	if opts.AimLength <= 0 {
		opts.AimLength = def.AimLength
	}
	if opts.MarkerSize <= 0 {
		opts.MarkerSize = def.MarkerSize
	}
	return &Renderer{opts: opts}
}

// view maps world units onto one image.
type view struct {
	scale  float64
	width  int
	height int
}

func newView(arena config.WorldConfig, size int) view {
	w, d := arena.Width, arena.Depth
	if w <= 0 || d <= 0 {
		w, d = 1, 1
	}
	scale := float64(size) / math.Max(w, d)
	return view{
		scale:  scale,
		width:  max(1, int(math.Round(w*scale))),
		height: max(1, int(math.Round(d*scale))),
	}
}

func (v view) pt(p spatial.Vec3) (float64, float64) { return p.X * v.scale, p.Y * v.scale }

func (r *Renderer) context(v view) *gg.Context {
	if dc, ok := r.pool.Get().(*gg.Context); ok && dc.Width() == v.width && dc.Height() == v.height {
		return dc
	}
	return gg.NewContext(v.width, v.height)
}

// Render draws the snapshot and returns a copy of the image.
func (r *Renderer) Render(snap *game.CombatSnapshot) image.Image {
	arena := snap.Arena
	v := newView(arena, r.opts.Size)
	dc := r.context(v)
	defer r.pool.Put(dc)

	dc.SetColor(colorBackground)
	dc.DrawRectangle(0, 0, float64(v.width), float64(v.height))
	dc.Fill()

	if r.opts.ShowGrid && arena.GridCellSize > 0 {
		r.drawGrid(dc, v, arena)
	}
	r.drawProps(dc, v, snap.Props)
	r.drawTracers(dc, v, snap.Tracers)
	r.drawCharacters(dc, v, snap.Characters)
	r.drawFlashes(dc, v, snap.Flashes)

	src := dc.Image()
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.(*image.RGBA).Pix)
	return out
}

// WritePNG renders the snapshot as PNG into w.
func (r *Renderer) WritePNG(w io.Writer, snap *game.CombatSnapshot) error {
	return png.Encode(w, r.Render(snap))
}

func (r *Renderer) drawGrid(dc *gg.Context, v view, arena config.WorldConfig) {
	dc.SetColor(colorGrid)
	dc.SetLineWidth(1)
	step := arena.GridCellSize * v.scale
	for x := step; x < float64(v.width); x += step {
		dc.DrawLine(x, 0, x, float64(v.height))
		dc.Stroke()
	}
	for y := step; y < float64(v.height); y += step {
		dc.DrawLine(0, y, float64(v.width), y)
		dc.Stroke()
	}
}

func (r *Renderer) drawProps(dc *gg.Context, v view, props []game.PropSnapshot) {
	for _, p := range props {
		if p.Mobility == game.MobilityStatic.String() {
			dc.SetColor(colorProp)
		} else {
			dc.SetColor(colorPropMoving)
		}
		x, y := v.pt(p.Box.Min)
		x2, y2 := v.pt(p.Box.Max)
		dc.DrawRectangle(x, y, math.Max(1, x2-x), math.Max(1, y2-y))
		dc.Fill()
	}
}

func (r *Renderer) drawTracers(dc *gg.Context, v view, tracers []game.TracerSnapshot) {
	dc.SetLineWidth(1.5)
	for _, t := range tracers {
		c := colorRejected
		if t.Accepted {
			c = colorAccepted
		}
		c.A = uint8(math.Max(0, math.Min(1, t.Alpha)) * 255)
		dc.SetColor(c)
		x1, y1 := v.pt(t.From)
		x2, y2 := v.pt(t.To)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}
}

func (r *Renderer) drawCharacters(dc *gg.Context, v view, chars []game.CharacterSnapshot) {
	radius := r.opts.MarkerSize
	for _, c := range chars {
		x, y := v.pt(c.Position)

		if c.IsDead {
			dc.SetColor(colorDead)
			dc.SetLineWidth(2)
			dc.DrawLine(x-radius, y-radius, x+radius, y+radius)
			dc.Stroke()
			dc.DrawLine(x+radius, y-radius, x-radius, y+radius)
			dc.Stroke()
			continue
		}

		if c.IsBot {
			dc.SetColor(colorBot)
		} else {
			dc.SetColor(colorCharacter)
		}
		dc.DrawCircle(x, y, radius)
		dc.Fill()

		if r.opts.ShowAim && !c.Aim.IsZero() {
			ax, ay := c.Aim.X, c.Aim.Y
			if l := math.Hypot(ax, ay); l > 0 {
				dc.SetLineWidth(2)
				dc.DrawLine(x, y, x+ax/l*r.opts.AimLength, y+ay/l*r.opts.AimLength)
				dc.Stroke()
			}
		}

		if c.MaxHP > 0 {
			barW := radius * 3
			pct := math.Max(0, c.HP/c.MaxHP)
			dc.SetColor(colorHPBack)
			dc.DrawRectangle(x-barW/2, y-radius-6, barW, 3)
			dc.Fill()
			switch {
			case pct > 0.5:
				dc.SetColor(colorAccepted)
			case pct > 0.25:
				dc.SetColor(colorBot)
			default:
				dc.SetColor(colorRejected)
			}
			dc.DrawRectangle(x-barW/2, y-radius-6, barW*pct, 3)
			dc.Fill()
		}
	}
}

func (r *Renderer) drawFlashes(dc *gg.Context, v view, flashes []game.FlashSnapshot) {
	for _, f := range flashes {
		if f.Confirmed {
			dc.SetColor(color.White)
		} else {
			dc.SetColor(colorRejected)
		}
		x, y := v.pt(f.Point)
		dc.DrawCircle(x, y, math.Max(2, f.Radius*v.scale))
		dc.Fill()
	}
}
