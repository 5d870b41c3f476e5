package lumen

import (
	"image"
	"image/color"
	"math"
	"testing"
)

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func TestFeedbackDecaysGeometrically(t *testing.T) {
	const w, h = 4, 4
	f := &feedbackStage{}
	f.resize(w, h)
	f.back.Fill(white)

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	final := image.NewRGBA(image.Rect(0, 0, w, h)) // fully transparent
	want := 255.0
	for frame := 1; frame <= 5; frame++ {
		f.composite(out, final, 50, black)
		want *= 0.5
		got := float64(out.RGBAAt(2, 2).R)
		if math.Abs(got-want) > 2 {
			t.Fatalf("frame %d: red = %v, want ~%v", frame, got, want)
		}
		if a := out.RGBAAt(2, 2).A; a != 255 {
			t.Fatalf("frame %d: alpha = %d, want opaque", frame, a)
		}
	}
}

func TestFeedbackZeroAmountIsPassThrough(t *testing.T) {
	f := &feedbackStage{}
	f.resize(3, 3)
	f.back.Fill(white)

	out := image.NewRGBA(image.Rect(0, 0, 3, 3))
	final := image.NewRGBA(image.Rect(0, 0, 3, 3))
	final.SetRGBA(1, 1, red)
	f.composite(out, final, 0, black)

	assertPixel(t, out, 0, 0, black)
	assertPixel(t, out, 1, 1, red)
	// The back buffer still tracks the output.
	assertPixel(t, f.back.Image(), 0, 0, black)
	assertPixel(t, f.back.Image(), 1, 1, red)
}

func TestFeedbackOpaqueFinalCovers(t *testing.T) {
	f := &feedbackStage{}
	f.resize(2, 2)
	f.back.Fill(white)
	out := image.NewRGBA(image.Rect(0, 0, 2, 2))
	f.composite(out, solidImage(2, 2, blue), 100, black)
	assertPixel(t, out, 1, 0, blue)
}

func TestFeedbackFullAmountKeepsTrail(t *testing.T) {
	f := &feedbackStage{}
	f.resize(2, 2)
	f.back.Fill(white)
	out := image.NewRGBA(image.Rect(0, 0, 2, 2))
	f.composite(out, image.NewRGBA(image.Rect(0, 0, 2, 2)), 100, black)
	assertPixel(t, out, 0, 1, white)
}

func TestFeedbackResizeDiscardsTrail(t *testing.T) {
	f := &feedbackStage{}
	if f.generation() != 0 {
		t.Fatal("generation before first use should be 0")
	}
	out := image.NewRGBA(image.Rect(0, 0, 4, 4))
	f.composite(out, solidImage(4, 4, red), 50, black)
	gen := f.generation()

	f.composite(out, solidImage(4, 4, red), 50, black)
	if f.generation() != gen {
		t.Error("same size should keep the back buffer")
	}

	big := image.NewRGBA(image.Rect(0, 0, 6, 5))
	f.resize(6, 5)
	if f.generation() != gen+1 {
		t.Errorf("generation = %d, want %d", f.generation(), gen+1)
	}
	f.composite(big, image.NewRGBA(big.Rect), 100, black)
	// The old red trail is gone; only the background remains.
	assertPixel(t, big, 3, 3, black)
}
