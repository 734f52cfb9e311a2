package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agora/internal/config"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAvatarService_Upload(t *testing.T) {
	db := testutil.NewTestDB(t)
	u := testutil.CreateUser(t, db, "")
	dir := t.TempDir()
	svc := NewAvatarService(repository.NewUserRepository(db), &config.Config{MediaDir: dir, MediaURL: "/media"})
	ctx := context.Background()

	first, err := svc.Upload(ctx, u.ID, pngBytes(t, 300, 200))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(first.ProfileImage, "/media/avatars/"))
	firstPath := svc.localPath(first.ProfileImage)
	require.FileExists(t, firstPath)

	f, err := os.Open(firstPath)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(f)
	_ = f.Close()
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, AvatarSize, cfg.Width)
	assert.Equal(t, AvatarSize, cfg.Height)

	second, err := svc.Upload(ctx, u.ID, pngBytes(t, 64, 64))
	require.NoError(t, err)
	assert.NotEqual(t, first.ProfileImage, second.ProfileImage)
	assert.NoFileExists(t, firstPath)

	entries, err := os.ReadDir(filepath.Join(dir, "avatars"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAvatarService_RejectsBadInput(t *testing.T) {
	db := testutil.NewTestDB(t)
	u := testutil.CreateUser(t, db, "")
	svc := NewAvatarService(repository.NewUserRepository(db), &config.Config{MediaDir: t.TempDir(), MediaURL: "/media", AvatarMaxUploadSizeMB: 1})
	ctx := context.Background()

	_, err := svc.Upload(ctx, u.ID, nil)
	assertCode(t, err, models.CodeValidation)

	_, err = svc.Upload(ctx, u.ID, []byte("definitely not an image"))
	assertCode(t, err, models.CodeValidation)
	assert.NotEmpty(t, fieldMessages(t, err, "image"))

	_, err = svc.Upload(ctx, u.ID, make([]byte, 2*1024*1024))
	assertCode(t, err, models.CodeValidation)

	_, err = svc.Upload(ctx, 999, pngBytes(t, 8, 8))
	assertCode(t, err, models.CodeNotFound)
}

func TestAvatarService_LocalPathIgnoresForeignURLs(t *testing.T) {
	svc := &AvatarService{dir: "/srv/avatars", baseURL: "/media/avatars"}
	assert.Equal(t, "", svc.localPath("https://cdn.example.com/a.webp"))
	assert.Equal(t, "", svc.localPath(""))
	assert.Equal(t, filepath.Join("/srv/avatars", "a.webp"), svc.localPath("/media/avatars/../a.webp"))
}
