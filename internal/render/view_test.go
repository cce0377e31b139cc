package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"firefight/internal/config"
	"firefight/internal/game"
	"firefight/internal/game/spatial"
)

func testSnapshot() *game.CombatSnapshot {
	return &game.CombatSnapshot{
		Arena: config.WorldConfig{Width: 1000, Depth: 500, GridCellSize: 250},
		Characters: []game.CharacterSnapshot{
			{ID: "a", Position: spatial.V(100, 100, 88), Aim: spatial.V(1, 0, 0), HP: 100, MaxHP: 100},
			{ID: "b", Position: spatial.V(900, 400, 88), HP: 0, MaxHP: 100, IsDead: true, IsBot: true},
		},
		Props: []game.PropSnapshot{
			{ID: "crate", Box: spatial.BoxAround(spatial.V(500, 100, 50), spatial.V(50, 50, 50)), Mobility: game.MobilityStatic.String()},
		},
		Tracers: []game.TracerSnapshot{
			{From: spatial.V(100, 100, 88), To: spatial.V(900, 400, 88), Accepted: true, Alpha: 1},
		},
		Flashes: []game.FlashSnapshot{
			{Point: spatial.V(900, 400, 88), Radius: 10, Confirmed: true},
		},
	}
}

func TestRenderKeepsAspectRatio(t *testing.T) {
	r := NewRenderer(Options{Size: 400})
	img := r.Render(testSnapshot())

	b := img.Bounds()
	if b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("Expected 400x200, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderDrawsEntities(t *testing.T) {
	r := NewRenderer(Options{Size: 400})
	img := r.Render(testSnapshot())

	// Prop center at (500, 100) world = (200, 40) pixels.
	if got := color.RGBAModel.Convert(img.At(200, 40)); got != colorProp {
		t.Errorf("Expected prop color at its center, got %v", got)
	}
	// Living character at (100, 100) world = (40, 40) pixels.
	if got := color.RGBAModel.Convert(img.At(40, 40)); got != colorCharacter {
		t.Errorf("Expected character color, got %v", got)
	}
	// A corner stays background.
	if got := color.RGBAModel.Convert(img.At(399, 0)); got != colorBackground {
		t.Errorf("Expected background in the corner, got %v", got)
	}
}

func TestRenderReturnsIndependentImages(t *testing.T) {
	r := NewRenderer(Options{Size: 200})
	snap := testSnapshot()

	first := r.Render(snap)
	before := first.At(20, 20)

	snap.Characters = nil
	r.Render(snap)

	if first.At(20, 20) != before {
		t.Error("Expected an earlier image to survive later renders")
	}
}

func TestWritePNG(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	var buf bytes.Buffer
	if err := r.WritePNG(&buf, &game.CombatSnapshot{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if img.Bounds().Dx() != DefaultOptions().Size {
		t.Errorf("Expected %dpx wide for an empty arena, got %d", DefaultOptions().Size, img.Bounds().Dx())
	}
}

func BenchmarkRender(b *testing.B) {
	r := NewRenderer(DefaultOptions())
	snap := testSnapshot()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r.Render(snap)
	}
}
