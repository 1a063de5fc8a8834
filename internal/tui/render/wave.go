package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// waveOutline 是 144x40 画布上的水面轮廓；前 9 个点随帧起伏，最后 2 个点固定为底边。
var waveOutline = [11][2]float64{
	{-5, 26}, {10, 32}, {30, 25}, {50, 32}, {70, 25}, {80, 32},
	{120, 23}, {135, 30}, {150, 26}, {150, 45}, {-5, 45},
}

const (
	waveCanvasW   = 144.0
	waveCanvasH   = 40.0
	waveMoving    = 9
	waveAmplitude = 4.0
)

// WaveColor 为水面颜色。
var WaveColor = lipgloss.Color("#45B1E8")

// WaveRows rasterizes the water strip into height rows of width cells. Frame 0 is
// the resting shape; later frames bob the surface points in alternating phase.
// '~' marks the surface cell of each column and '█' the water beneath it.
func WaveRows(width, height, frame int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	surface := make([]float64, width)
	for x := 0; x < width; x++ {
		px := (float64(x) + 0.5) * waveCanvasW / float64(width)
		surface[x] = surfaceAt(px, frame)
	}
	rows := make([]string, height)
	for y := 0; y < height; y++ {
		top := float64(y) * waveCanvasH / float64(height)
		bottom := float64(y+1) * waveCanvasH / float64(height)
		var b strings.Builder
		for x := 0; x < width; x++ {
			switch {
			case surface[x] >= bottom:
				b.WriteByte(' ')
			case surface[x] >= top:
				b.WriteRune('~')
			default:
				b.WriteRune('█')
			}
		}
		rows[y] = b.String()
	}
	return rows
}

// RenderWave 输出带颜色的水面条带。
func RenderWave(width, height, frame int) string {
	rows := WaveRows(width, height, frame)
	style := lipgloss.NewStyle().Foreground(WaveColor)
	for i, r := range rows {
		rows[i] = style.Render(r)
	}
	return strings.Join(rows, "\n")
}

func pointY(i, frame int) float64 {
	y := waveOutline[i][1]
	if i >= waveMoving || frame == 0 {
		return y
	}
	phase := float64(frame)*math.Pi/2 + float64(i)*math.Pi/2
	return y + waveAmplitude*math.Sin(phase)
}

// surfaceAt 在运动的 9 个点之间线性插值出 px 处的水面高度。
func surfaceAt(px float64, frame int) float64 {
	if px <= waveOutline[0][0] {
		return pointY(0, frame)
	}
	for i := 0; i < waveMoving-1; i++ {
		x0, x1 := waveOutline[i][0], waveOutline[i+1][0]
		if px >= x0 && px <= x1 {
			t := (px - x0) / (x1 - x0)
			y0, y1 := pointY(i, frame), pointY(i+1, frame)
			return y0 + t*(y1-y0)
		}
	}
	return pointY(waveMoving-1, frame)
}
