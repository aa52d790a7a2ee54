package asset

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// PlaceholderSize はプレースホルダー画像の一辺の長さです。
	PlaceholderSize = 512

	placeholderLabelLimit = 50
	placeholderMargin     = 10
)

var (
	placeholderBackground = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	placeholderForeground = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
)

// PlaceholderLabel はプロンプトの先頭を切り出したプレースホルダー用ラベルを返します。
func PlaceholderLabel(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > placeholderLabelLimit {
		runes = runes[:placeholderLabelLimit]
	}
	return fmt.Sprintf("Placeholder for: %s...", string(runes))
}

// RenderPlaceholder は単色背景にラベルを描いた PNG 画像を生成します。
// 長いラベルは画像幅で折り返します。
func RenderPlaceholder(width, height int, label string) ([]byte, error) {
	if width <= 0 || height <= 0 {
		width, height = PlaceholderSize, PlaceholderSize
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderBackground}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderForeground),
		Face: face,
	}

	lines := wrapLabel(label, (width-2*placeholderMargin)/face.Advance)
	lineHeight := face.Height
	y := height/2 - (len(lines)*lineHeight)/2 + face.Ascent
	for _, line := range lines {
		d.Dot = fixed.P(placeholderMargin, y)
		d.DrawString(line)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("プレースホルダー画像のエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePlaceholder はプレースホルダー画像を path に保存します。
func WritePlaceholder(path, label string) error {
	data, err := RenderPlaceholder(PlaceholderSize, PlaceholderSize, label)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// wrapLabel は1行あたり perLine 文字でラベルを折り返します。
func wrapLabel(label string, perLine int) []string {
	runes := []rune(label)
	if perLine <= 0 || len(runes) <= perLine {
		return []string{label}
	}
	var lines []string
	for len(runes) > 0 {
		n := min(perLine, len(runes))
		lines = append(lines, string(runes[:n]))
		runes = runes[n:]
	}
	return lines
}
