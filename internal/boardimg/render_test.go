package boardimg

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestRenderStartPosition(t *testing.T) {
	data, err := Render(startFEN)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	want := squareSize*boardSquares + margin*2
	b := img.Bounds()
	if b.Dx() != want || b.Dy() != want {
		t.Fatalf("image size %dx%d, want %dx%d", b.Dx(), b.Dy(), want, want)
	}
}

func TestRenderSparsePosition(t *testing.T) {
	if _, err := Render("8/8/8/4k3/8/8/8/4K3 w - - 0 1"); err != nil {
		t.Fatalf("Render kings-only: %v", err)
	}
}

func TestRenderRejectsBadFEN(t *testing.T) {
	for _, fen := range []string{"", "   ", "not a position"} {
		if _, err := Render(fen); err == nil {
			t.Fatalf("Render(%q) should fail", fen)
		}
	}
}

func TestPieceAssetsAllPresent(t *testing.T) {
	for _, prefix := range []string{"w", "b"} {
		for _, suffix := range []string{"K", "Q", "R", "B", "N", "P"} {
			name := "assets/pieces/" + prefix + suffix + ".svg"
			if _, err := pieceFiles.ReadFile(name); err != nil {
				t.Fatalf("missing piece asset %s: %v", name, err)
			}
		}
	}
}

func TestSpriteSetRendersAndCaches(t *testing.T) {
	set := &spriteSet{cache: map[spriteKey]image.Image{}}
	for _, color := range []nchess.Color{nchess.White, nchess.Black} {
		for pt := range pieceLetters {
			piece := nchess.NewPiece(pt, color)
			img, err := set.image(piece, 64)
			if err != nil {
				t.Fatalf("sprite %v: %v", piece, err)
			}
			if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
				t.Fatalf("sprite %v size %dx%d, want 64x64", piece, b.Dx(), b.Dy())
			}
			again, err := set.image(piece, 64)
			if err != nil {
				t.Fatalf("cached sprite %v: %v", piece, err)
			}
			if again != img {
				t.Fatalf("sprite %v was re-rendered instead of cached", piece)
			}
		}
	}
}
