package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoreel/internal/demo"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))))
}

func TestStampSource(t *testing.T) {
	catalog := demo.DefaultCatalog()
	src := NewStampSource(catalog)
	defer src.Close()

	require.Equal(t, catalog.Len(), src.PageCount())

	w, h, err := src.PageSize(0)
	require.NoError(t, err)
	assert.Equal(t, 595.0, w)
	assert.Equal(t, 842.0, h)

	img, err := src.RenderPage(0, 72)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 595, 842), img.Bounds())

	// The first scene is flagged; its zone is filled.
	c := catalog.At(0).Zone.Center()
	px := img.At(int(c.X*595/100), int(c.Y*842/100))
	assert.Equal(t, color.RGBAModel.Convert(forged), color.RGBAModel.Convert(px))

	// The QR code leaves black modules in the bottom left corner.
	dark := false
	for y := 650; y < 810 && !dark; y++ {
		for x := 35; x < 135; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r == 0 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark, "no QR code modules found")

	big, err := src.RenderPage(1, 144)
	require.NoError(t, err)
	assert.Equal(t, 1190, big.Bounds().Dx())

	_, err = src.RenderPage(catalog.Len(), 72)
	assert.Error(t, err)
	_, err = src.RenderPage(0, 0)
	assert.Error(t, err)
	_, _, err = src.PageSize(-1)
	assert.Error(t, err)
}

func TestImageSource(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 40, 30)
	writePNG(t, filepath.Join(dir, "a.png"), 20, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	src, err := NewImageSource(dir)
	require.NoError(t, err)
	require.Equal(t, 2, src.PageCount())

	w, h, err := src.PageSize(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 10}, []float64{w, h})

	img, err := src.RenderPage(1, 300)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	_, err = src.RenderPage(2, 72)
	assert.Error(t, err)

	_, err = NewImageSource(t.TempDir())
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "page.png")
	writePNG(t, pngPath, 10, 10)
	txtPath := filepath.Join(dir, "page.txt")
	require.NoError(t, os.WriteFile(txtPath, nil, 0644))

	src, err := Open("", nil)
	require.NoError(t, err)
	assert.IsType(t, &StampSource{}, src)

	src, err = Open(pngPath, nil)
	require.NoError(t, err)
	assert.IsType(t, &ImageSource{}, src)

	src, err = Open(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, src.PageCount())

	_, err = Open(txtPath, nil)
	assert.Error(t, err)

	_, err = Open(filepath.Join(dir, "missing.pdf"), nil)
	assert.Error(t, err)
}
