// Package boardimg renders a chess position as a PNG image.
package boardimg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// Squares are rasterized at 2x and downscaled for smoother piece
	// edges.
	renderScale  = 2
	squareSize   = 72
	boardSquares = 8
	margin       = 24
)

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	backgroundColor     = color.RGBA{28, 31, 46, 255}
	coordinateTextColor = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
)

// Render draws the board described by fen, white at the bottom.
func Render(fen string) ([]byte, error) {
	if strings.TrimSpace(fen) == "" {
		return nil, fmt.Errorf("fen is empty")
	}
	option, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	game := nchess.NewGame(option)
	board := game.Position().Board()

	hiSquare := squareSize * renderScale
	hiBoard := hiSquare * boardSquares
	hiImg := image.NewRGBA(image.Rect(0, 0, hiBoard, hiBoard))

	drawSquares(hiImg, hiSquare)
	if err := drawPieces(hiImg, board, hiSquare); err != nil {
		return nil, err
	}

	boardSize := squareSize * boardSquares
	totalSize := boardSize + margin*2
	img := image.NewRGBA(image.Rect(0, 0, totalSize, totalSize))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	boardRect := image.Rect(margin, margin, margin+boardSize, margin+boardSize)
	xdraw.CatmullRom.Scale(img, boardRect, hiImg, hiImg.Bounds(), xdraw.Src, nil)

	drawCoordinates(img, boardRect)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	rankOrder = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	fileOrder = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

func drawSquares(dst imagedraw.Image, size int) {
	for row, rank := range rankOrder {
		for col, file := range fileOrder {
			x := col * size
			y := row * size
			clr := squareColor(nchess.NewSquare(file, rank))
			imagedraw.Draw(dst, image.Rect(x, y, x+size, y+size), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func drawPieces(dst imagedraw.Image, board *nchess.Board, size int) error {
	boardMap := board.SquareMap()
	for row, rank := range rankOrder {
		for col, file := range fileOrder {
			piece := boardMap[nchess.NewSquare(file, rank)]
			if piece == nchess.NoPiece {
				continue
			}
			img, err := sprites.image(piece, size)
			if err != nil {
				return err
			}
			x := col * size
			y := row * size
			imagedraw.Draw(dst, image.Rect(x, y, x+size, y+size), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawCoordinates(img *image.RGBA, boardRect image.Rectangle) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(coordinateTextColor),
		Face: basicfont.Face7x13,
	}

	for col := 0; col < boardSquares; col++ {
		label := string(rune('a' + col))
		x := boardRect.Min.X + col*squareSize + squareSize/2 - 3
		y := boardRect.Max.Y + margin/2 + 4
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(label)
	}
	for row := 0; row < boardSquares; row++ {
		label := fmt.Sprintf("%d", boardSquares-row)
		x := boardRect.Min.X - margin/2 - 3
		y := boardRect.Min.Y + row*squareSize + squareSize/2 + 4
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(label)
	}
}
