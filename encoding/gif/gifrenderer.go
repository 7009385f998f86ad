package gif

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/gorgonia/reversi/game"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

var regular *truetype.Font

const (
	dpi             = 72.0
	fontsize        = 12.0
	lineheight      = 1.2
	captionLines    = 3
	dummyLongString = `Epoch 100000, Game Number: 10000`
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

// palette indices
const (
	paper uint8 = iota
	ink
	felt
	grid
	white
	marker
)

var globPalette = color.Palette{
	paper:  color.Gray{253},
	ink:    color.Gray{0},
	felt:   color.RGBA{0, 110, 50, 255},
	grid:   color.RGBA{0, 60, 25, 255},
	white:  color.Gray{255},
	marker: color.RGBA{220, 30, 30, 255},
}

// DefaultCell is the default width of a square in pixels.
const DefaultCell = 32

// Encoder renders every position it is given as a frame of an animated GIF. It implements the
// reversi.OutputEncoder interface.
type Encoder struct {
	Cell       int // width of a square in pixels
	Delay      int // delay after each frame, in 100ths of a second
	FinalDelay int // delay after a finished game

	font.Drawer
	w   io.Writer
	out *gif.GIF

	h, wd       int // frame size
	pad         int
	dy          int // line height
	initialized bool
}

// NewEncoder creates an encoder that writes the animation to w on Flush.
func NewEncoder(w io.Writer, cell int) *Encoder {
	if cell <= 0 {
		cell = DefaultCell
	}
	return &Encoder{
		Cell:       cell,
		Delay:      50,
		FinalDelay: 300,
		Drawer: font.Drawer{
			Src: image.Black,
		},
		w:   w,
		out: &gif.GIF{LoopCount: -1},
		pad: 10,
	}
}

func (enc *Encoder) init(rows, cols int) {
	enc.Face = truetype.NewFace(regular, &truetype.Options{
		Size:    fontsize,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	enc.dy = int(math.Ceil(fontsize * lineheight * dpi / 72))

	boardW := cols * enc.Cell
	textW := font.MeasureString(enc.Face, dummyLongString).Ceil()
	enc.wd = maxInt(boardW, textW) + 2*enc.pad
	enc.h = rows*enc.Cell + captionLines*enc.dy + 3*enc.pad
	enc.initialized = true
}

// Encode renders the current position of the meta state.
func (enc *Encoder) Encode(ms game.MetaState) error {
	g := ms.State()
	rows, cols := g.BoardSize()
	board := g.Board()
	if len(board) != rows*cols {
		return errors.Errorf("board of %d cells is not %d×%d", len(board), rows, cols)
	}
	if !enc.initialized {
		enc.init(rows, cols)
	}

	im := image.NewPaletted(image.Rect(0, 0, enc.wd, enc.h), globPalette)
	draw.Draw(im, im.Bounds(), image.NewUniform(globPalette[paper]), image.Point{}, draw.Src)
	enc.drawBoard(im, rows, cols, board, g.LastMove())

	y := enc.pad + rows*enc.Cell + enc.pad + enc.dy
	enc.Dst = im
	enc.caption(ms.Name(), y)
	y += enc.dy
	enc.caption(fmt.Sprintf("Epoch %d, Game Number: %d", ms.Epoch(), ms.GameNumber()), y)
	y += enc.dy

	black, white := g.Score(game.Player(game.Black)), g.Score(game.Player(game.White))
	delay := enc.Delay
	if ended, winner := g.Ended(); ended {
		delay = enc.FinalDelay
		result := "Draw"
		if winner.IsValid() {
			result = fmt.Sprintf("Winner: %s", winner)
		}
		enc.caption(fmt.Sprintf("X %v O %v. %s", black, white, result), y)
	} else {
		enc.caption(fmt.Sprintf("X %v O %v. %s to move", black, white, g.ToMove()), y)
	}

	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, delay)
	return nil
}

// Flush writes the gif into the writer
func (enc *Encoder) Flush() error {
	if len(enc.out.Image) == 0 {
		return errors.New("no frames to write")
	}
	return gif.EncodeAll(enc.w, enc.out)
}

// Frames returns the number of frames rendered so far.
func (enc *Encoder) Frames() int { return len(enc.out.Image) }

func (enc *Encoder) caption(s string, y int) {
	enc.Dot = fixed.P(enc.pad, y)
	enc.DrawString(s)
}

func (enc *Encoder) drawBoard(im *image.Paletted, rows, cols int, board []game.Colour, last game.PlayerMove) {
	cell := enc.Cell
	origin := image.Pt(enc.pad, enc.pad)
	area := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(cols*cell, rows*cell))}
	draw.Draw(im, area, image.NewUniform(globPalette[felt]), image.Point{}, draw.Src)

	for i := 0; i <= rows; i++ {
		hline(im, area.Min.X, area.Max.X, area.Min.Y+i*cell, grid)
	}
	for j := 0; j <= cols; j++ {
		vline(im, area.Min.Y, area.Max.Y, area.Min.X+j*cell, grid)
	}

	for i, c := range board {
		cx := area.Min.X + (i%cols)*cell + cell/2
		cy := area.Min.Y + (i/cols)*cell + cell/2
		switch c {
		case game.Black:
			disc(im, cx, cy, cell*2/5, ink)
		case game.White:
			disc(im, cx, cy, cell*2/5, white)
		}
		if !last.Single.IsPass() && int(last.Single) == i {
			disc(im, cx, cy, maxInt(cell/10, 1), marker)
		}
	}
}

func disc(im *image.Paletted, cx, cy, r int, idx uint8) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				im.SetColorIndex(cx+x, cy+y, idx)
			}
		}
	}
}

func hline(im *image.Paletted, x0, x1, y int, idx uint8) {
	for x := x0; x <= x1; x++ {
		im.SetColorIndex(x, y, idx)
	}
}

func vline(im *image.Paletted, y0, y1, x int, idx uint8) {
	for y := y0; y <= y1; y++ {
		im.SetColorIndex(x, y, idx)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
