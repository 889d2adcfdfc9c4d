package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestSaveDataURL(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	rel, err := s.SaveDataURL("recipes", pngDataURL(t, 4, 3))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, "recipes/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))
	assert.Equal(t, "/media/"+rel, URL(rel))

	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 3, cfg.Height)
}

func TestSaveDataURLDownscales(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	rel, err := s.SaveDataURL("recipes", pngDataURL(t, 3200, 800))
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 1600, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
}

func TestSaveDataURLRejectsGarbage(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, in := range []string{
		"",
		"not a data url",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,!!!",
		"data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not an image")),
	} {
		_, err := s.SaveDataURL("recipes", in)
		assert.ErrorIs(t, err, ErrInvalidImage, "input %q", in)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	rel, err := s.SaveDataURL("avatars", pngDataURL(t, 2, 2))
	require.NoError(t, err)

	require.NoError(t, s.Remove(rel))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Remove(rel))
	assert.NoError(t, s.Remove(""))
}

func TestURLEmpty(t *testing.T) {
	assert.Equal(t, "", URL(""))
}
