package boardimg

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

var pieceLetters = map[nchess.PieceType]string{
	nchess.King:   "K",
	nchess.Queen:  "Q",
	nchess.Rook:   "R",
	nchess.Bishop: "B",
	nchess.Knight: "N",
	nchess.Pawn:   "P",
}

type spriteKey struct {
	piece nchess.Piece
	size  int
}

// spriteSet rasterizes the embedded piece art on demand and memoizes
// the result per piece and pixel size. Rendering a board asks for the
// same dozen sprites over and over, so a miss is rare after warmup.
type spriteSet struct {
	mu    sync.RWMutex
	cache map[spriteKey]image.Image
}

var sprites = &spriteSet{cache: map[spriteKey]image.Image{}}

func (s *spriteSet) image(piece nchess.Piece, size int) (image.Image, error) {
	key := spriteKey{piece: piece, size: size}

	s.mu.RLock()
	img, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return img, nil
	}

	img, err := rasterize(piece, size)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = img
	s.mu.Unlock()
	return img, nil
}

func rasterize(piece nchess.Piece, size int) (image.Image, error) {
	name := assetName(piece)
	data, err := pieceFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read piece asset %s: %w", name, err)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(normalizeStyles(data)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %s: %w", name, err)
	}
	if icon.ViewBox.W <= 0 {
		icon.ViewBox.W = float64(size)
	}
	if icon.ViewBox.H <= 0 {
		icon.ViewBox.H = float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)
	return img, nil
}

func assetName(piece nchess.Piece) string {
	side := "b"
	if piece.Color() == nchess.White {
		side = "w"
	}
	return fmt.Sprintf("assets/pieces/%s%s.svg", side, pieceLetters[piece.Type()])
}

// oksvg chokes on a space after the colon in inline style declarations.
func normalizeStyles(svg []byte) []byte {
	for _, prop := range []string{"fill", "stroke", "stop-color"} {
		svg = bytes.ReplaceAll(svg, []byte(prop+": #"), []byte(prop+":#"))
	}
	return svg
}
