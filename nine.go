package main

import (
	"image"

	"github.com/hajimehoshi/ebiten"
)

// Nine draws a source image stretched as a nine-patch: corners keep their
// size, edges stretch along one axis, the center along both.
type Nine struct {
	images              *ebiten.Image
	alpha               float64
	R, G, B, Scale      float64
	positions           [4][2]int // source cuts: outer, inner, inner, outer
	x, y, width, height int
	targetPositions     [3][2]float64
	scales              [3][2]float64
}

// newPanel builds a rounded frame source of side px with a border of b px.
func newPanel(px, b int) (*Nine, error) {
	img, err := ebiten.NewImage(px, px, ebiten.FilterNearest)
	if err != nil {
		return nil, err
	}
	pix := make([]byte, 4*px*px)
	for y := 0; y < px; y++ {
		for x := 0; x < px; x++ {
			edge := x < b || y < b || x >= px-b || y >= px-b
			corner := (x == 0 || x == px-1) && (y == 0 || y == px-1)
			var v, a byte = 0x30, 0xd0
			if edge {
				v, a = 0xe0, 0xff
			}
			if corner {
				a = 0
			}
			i := 4 * (y*px + x)
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, a
		}
	}
	if err := img.ReplacePixels(pix); err != nil {
		return nil, err
	}
	return &Nine{
		images:    img,
		alpha:     1,
		R:         1, G: 1, B: 1, Scale: 1,
		positions: [4][2]int{{0, 0}, {b, b}, {px - b, px - b}, {px, px}},
	}, nil
}

func (n *Nine) SetPosition(x, y int) {
	n.x = x
	n.y = y
	n.SetSize(n.width, n.height)
}

func (n *Nine) SetSize(width, height int) {
	n.width = width
	n.height = height
	left := n.Scale * float64(n.positions[1][0]-n.positions[0][0])
	top := n.Scale * float64(n.positions[1][1]-n.positions[0][1])
	right := n.Scale * float64(n.positions[3][0]-n.positions[2][0])
	bottom := n.Scale * float64(n.positions[3][1]-n.positions[2][1])

	n.targetPositions[0] = [2]float64{float64(n.x), float64(n.y)}
	n.targetPositions[1] = [2]float64{float64(n.x) + left, float64(n.y) + top}
	n.targetPositions[2] = [2]float64{float64(n.x+n.width) - right, float64(n.y+n.height) - bottom}

	innerW := n.targetPositions[2][0] - n.targetPositions[1][0]
	innerH := n.targetPositions[2][1] - n.targetPositions[1][1]
	n.scales[0] = [2]float64{n.Scale, n.Scale}
	n.scales[1] = [2]float64{
		innerW / float64(n.positions[2][0]-n.positions[1][0]),
		innerH / float64(n.positions[2][1]-n.positions[1][1]),
	}
	n.scales[2] = n.scales[0]
}

func (n *Nine) Draw(screen *ebiten.Image) {
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			src := image.Rect(
				n.positions[col][0], n.positions[row][1],
				n.positions[col+1][0], n.positions[row+1][1])
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(n.scales[col][0], n.scales[row][1])
			op.GeoM.Translate(n.targetPositions[col][0], n.targetPositions[row][1])
			op.ColorM.Scale(n.R, n.G, n.B, n.alpha)
			screen.DrawImage(n.images.SubImage(src).(*ebiten.Image), op)
		}
	}
}
