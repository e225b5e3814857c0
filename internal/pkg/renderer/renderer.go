// Package renderer turns canvas documents into preview images.
package renderer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/internal/pkg/env"
)

// A4 at 96 dpi.
const (
	pageLong  = 1123
	pageShort = 794
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)

// Artifact is an encoded preview.
type Artifact struct {
	Data        []byte
	ContentType string
}

// DataURL embeds the artifact in a data: URL.
func (a *Artifact) DataURL() string {
	return "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Extension returns the file extension matching the content type.
func (a *Artifact) Extension() string {
	switch a.ContentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// Renderer produces a preview of a design document.
type Renderer interface {
	Render(ctx context.Context, doc []byte, orientation string) (*Artifact, error)
}

// Config controls preview encoding.
type Config struct {
	Format string
	Width  int
}

// LoadConfig reads PREVIEW_FORMAT and PREVIEW_WIDTH.
func LoadConfig() Config {
	return Config{
		Format: strings.ToLower(env.GetEnv("PREVIEW_FORMAT", FormatPNG)),
		Width:  env.GetEnvInt("PREVIEW_WIDTH", 800),
	}
}

// ImagingRenderer rasterizes the background and box-shaped objects of a canvas
// document. Text is drawn as a bar covering its line box.
type ImagingRenderer struct {
	cfg Config
}

func NewImagingRenderer(cfg Config) *ImagingRenderer {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	switch cfg.Format {
	case FormatPNG, FormatJPEG, FormatWebP:
	default:
		cfg.Format = FormatPNG
	}
	return &ImagingRenderer{cfg: cfg}
}

type canvasDoc struct {
	Background      string         `json:"background"`
	BackgroundColor string         `json:"backgroundColor"`
	Objects         []canvasObject `json:"objects"`
}

type canvasObject struct {
	Type     string   `json:"type"`
	Left     float64  `json:"left"`
	Top      float64  `json:"top"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	ScaleX   *float64 `json:"scaleX"`
	ScaleY   *float64 `json:"scaleY"`
	Fill     string   `json:"fill"`
	Opacity  *float64 `json:"opacity"`
	FontSize float64  `json:"fontSize"`
	Visible  *bool    `json:"visible"`
}

// PageSize returns the canvas size for an orientation.
func PageSize(orientation string) (int, int) {
	if orientation == models.OrientationPortrait {
		return pageShort, pageLong
	}
	return pageLong, pageShort
}

func (r *ImagingRenderer) Render(ctx context.Context, doc []byte, orientation string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var canvas canvasDoc
	if err := json.Unmarshal(doc, &canvas); err != nil {
		return nil, fmt.Errorf("parse canvas: %w", err)
	}

	w, h := PageSize(orientation)
	bg := canvas.Background
	if bg == "" {
		bg = canvas.BackgroundColor
	}
	bgColor, ok := parseColor(bg)
	if !ok {
		bgColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	img := imaging.New(w, h, bgColor)

	for _, obj := range canvas.Objects {
		if obj.Visible != nil && !*obj.Visible {
			continue
		}
		img = drawObject(img, obj)
	}

	if r.cfg.Width < w {
		img = imaging.Resize(img, r.cfg.Width, 0, imaging.Lanczos)
	}
	return r.encode(img)
}

func drawObject(dst *image.NRGBA, obj canvasObject) *image.NRGBA {
	fill, ok := parseColor(obj.Fill)
	if !ok {
		return dst
	}
	sx, sy := 1.0, 1.0
	if obj.ScaleX != nil {
		sx = *obj.ScaleX
	}
	if obj.ScaleY != nil {
		sy = *obj.ScaleY
	}
	width := obj.Width * sx
	height := obj.Height * sy

	switch strings.ToLower(obj.Type) {
	case "rect", "image", "circle", "ellipse", "triangle":
	case "textbox", "text", "i-text":
		if obj.FontSize > 0 {
			height = obj.FontSize * 1.16 * sy
		}
	default:
		return dst
	}

	area, ok := clipToPage(dst.Bounds(), obj.Left, obj.Top, width, height)
	if !ok {
		return dst
	}
	opacity := 1.0
	if obj.Opacity != nil {
		opacity = *obj.Opacity
	}
	box := imaging.New(area.Dx(), area.Dy(), fill)
	return imaging.Overlay(dst, box, area.Min, opacity)
}

// clipToPage returns the part of the box that lies on the page. Clamping happens in
// float space, before any conversion to int.
func clipToPage(page image.Rectangle, left, top, width, height float64) (image.Rectangle, bool) {
	if !(width > 0) || !(height > 0) || !isFinite(left) || !isFinite(top) {
		return image.Rectangle{}, false
	}
	clamp := func(v, lo, hi float64) int {
		return int(math.Max(lo, math.Min(hi, math.Round(v))))
	}
	minX, maxX := float64(page.Min.X), float64(page.Max.X)
	minY, maxY := float64(page.Min.Y), float64(page.Max.Y)
	r := image.Rect(
		clamp(left, minX, maxX), clamp(top, minY, maxY),
		clamp(left+width, minX, maxX), clamp(top+height, minY, maxY),
	)
	if r.Empty() {
		return image.Rectangle{}, false
	}
	return r, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (r *ImagingRenderer) encode(img image.Image) (*Artifact, error) {
	var buf bytes.Buffer
	switch r.cfg.Format {
	case FormatWebP:
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 85)
		if err != nil {
			return nil, fmt.Errorf("error creating encoder options: %w", err)
		}
		if err := webp.Encode(&buf, img, options); err != nil {
			return nil, fmt.Errorf("error encoding WebP preview: %w", err)
		}
		return &Artifact{Data: buf.Bytes(), ContentType: "image/webp"}, nil
	case FormatJPEG:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
			return nil, fmt.Errorf("error encoding JPEG preview: %w", err)
		}
		return &Artifact{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
	default:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("error encoding PNG preview: %w", err)
		}
		return &Artifact{Data: buf.Bytes(), ContentType: "image/png"}, nil
	}
}
