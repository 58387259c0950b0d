package camera

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Green is the colour used for boxes and labels.
var Green = color.RGBA{0, 255, 0, 0}

// DrawBox outlines r and writes label just above it.
func DrawBox(img *gocv.Mat, r image.Rectangle, label string, scale float64, thickness int) {
	gocv.Rectangle(img, r, Green, 2)
	if label == "" {
		return
	}
	gocv.PutText(img, label, LabelOrigin(r), gocv.FontHersheySimplex, scale, Green, thickness)
}

// DrawCaption writes text in the top left corner.
func DrawCaption(img *gocv.Mat, text string) {
	gocv.PutText(img, text, image.Pt(10, 30), gocv.FontHersheySimplex, 0.7, Green, 2)
}

// LabelOrigin places a label 10px above r, or inside it when r touches the top.
func LabelOrigin(r image.Rectangle) image.Point {
	y := r.Min.Y - 10
	if y < 10 {
		y = r.Min.Y + 20
	}
	return image.Pt(r.Min.X, y)
}
