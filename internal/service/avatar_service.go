package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"os"
	"path/filepath"

	"agora/internal/config"
	"agora/internal/models"
	"agora/internal/repository"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	AvatarSize               = 256
	AvatarWebPQuality        = 80
	DefaultAvatarMaxUploadMB = 5
)

// AvatarService re-encodes uploaded profile pictures as square WebP files
// under the media directory.
type AvatarService struct {
	users    repository.UserRepository
	dir      string
	baseURL  string
	maxBytes int64
}

func NewAvatarService(users repository.UserRepository, cfg *config.Config) *AvatarService {
	maxMB := DefaultAvatarMaxUploadMB
	if cfg.AvatarMaxUploadSizeMB > 0 {
		maxMB = cfg.AvatarMaxUploadSizeMB
	}
	return &AvatarService{
		users:    users,
		dir:      filepath.Join(cfg.MediaDir, "avatars"),
		baseURL:  cfg.MediaURL + "/avatars",
		maxBytes: int64(maxMB) * 1024 * 1024,
	}
}

// MaxBytes is the upload size limit.
func (s *AvatarService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores content as the avatar of userID and returns the updated user.
// The previous avatar file is removed once the new one is recorded.
func (s *AvatarService) Upload(ctx context.Context, userID uint, content []byte) (*models.User, error) {
	if len(content) == 0 {
		return nil, imageFieldError("No file was submitted.")
	}
	if int64(len(content)) > s.maxBytes {
		return nil, imageFieldError(fmt.Sprintf("File too large (max %dMB).", s.maxBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, imageFieldError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, imageFieldError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeWebP(squareThumbnail(decoded, AvatarSize), AvatarWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	name := fmt.Sprintf("%d-%s.webp", userID, uuid.NewString())
	path := filepath.Join(s.dir, name)
	if err := writeBytesToFile(path, encoded); err != nil {
		return nil, models.NewInternalError(err)
	}

	previous := user.ProfileImage
	user.ProfileImage = s.baseURL + "/" + name
	if err := s.users.Update(ctx, user); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	if old := s.localPath(previous); old != "" {
		_ = os.Remove(old)
	}
	return user, nil
}

// localPath maps an avatar URL issued by this service back to its file.
func (s *AvatarService) localPath(url string) string {
	prefix := s.baseURL + "/"
	if len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		return ""
	}
	return filepath.Join(s.dir, filepath.Base(url[len(prefix):]))
}

func imageFieldError(msg string) error {
	return models.NewFieldValidationError(map[string][]string{"image": {msg}})
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// squareThumbnail center-crops src to a square and scales it to size.
func squareThumbnail(src image.Image, size int) image.Image {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	crop := image.Rect(0, 0, side, side).Add(image.Point{
		X: b.Min.X + (b.Dx()-side)/2,
		Y: b.Min.Y + (b.Dy()-side)/2,
	})

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
