package artwork

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"github.com/contre95/vinylshelf/src/features/config"
)

const maxCoverBytes = 20 << 20

// Service downloads cover images and serves resized JPEG thumbnails from a
// disk cache.
type Service struct {
	config   *config.Manager
	client   *http.Client
	cacheDir string
	group    singleflight.Group
}

// NewService creates a cover service caching under the user cache directory.
func NewService(cfg *config.Manager) (*Service, error) {
	dir := filepath.Join(xdg.CacheHome, "vinylshelf", "covers")
	return NewServiceWithDir(cfg, dir, &http.Client{Timeout: 15 * time.Second})
}

// NewServiceWithDir creates a cover service caching under dir.
func NewServiceWithDir(cfg *config.Manager, dir string, client *http.Client) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cover cache directory: %w", err)
	}
	slog.Debug("Cover cache ready", "path", dir)
	return &Service{config: cfg, client: client, cacheDir: dir}, nil
}

// Thumbnail returns the JPEG thumbnail of the image at url. Concurrent
// requests for the same image share one download.
func (s *Service) Thumbnail(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty cover URL")
	}
	covers := s.config.Get().Covers
	path := filepath.Join(s.cacheDir, cacheKey(url, covers.Size, covers.Quality)+".jpg")

	if data, ok := s.cached(path, covers.CacheTTL); ok {
		slog.Debug("Using cached cover", "path", path)
		return data, nil
	}

	v, err, _ := s.group.Do(path, func() (any, error) {
		img, err := s.download(ctx, url)
		if err != nil {
			return nil, err
		}
		data, err := encodeThumbnail(img, covers.Size, covers.Quality)
		if err != nil {
			return nil, err
		}
		s.store(path, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func cacheKey(url string, size, quality int) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("%s|%d|%d", url, size, quality))))
}

func (s *Service) cached(path string, ttl time.Duration) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if ttl > 0 && time.Since(info.ModTime()) >= ttl {
		_ = os.Remove(path)
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *Service) store(path string, data []byte) {
	tmp, err := os.CreateTemp(s.cacheDir, "cover-*")
	if err != nil {
		slog.Warn("Failed to cache cover", "error", err)
		return
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		slog.Warn("Failed to cache cover", "error", err)
		return
	}
	tmp.Close()
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		slog.Warn("Failed to cache cover", "error", err)
	}
}

func (s *Service) download(ctx context.Context, url string) (image.Image, error) {
	slog.Debug("Downloading cover", "url", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover download failed with status %d", resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover image: %w", err)
	}
	return img, nil
}

// encodeThumbnail fits img inside size x size, keeping its aspect ratio. A
// size of 0 keeps the original dimensions.
func encodeThumbnail(img image.Image, size, quality int) ([]byte, error) {
	if size > 0 {
		img = resize.Thumbnail(uint(size), uint(size), img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
