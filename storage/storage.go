// Package storage saves uploaded images (menu photos, dish pictures) and
// returns their public URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/xbirks/alergenu-sub000/config"
)

type ImageStore interface {
	Save(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// New returns the R2 store when it is configured, the local store otherwise.
func New(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	if cfg.R2.Enabled() {
		return NewR2Client(ctx, cfg.R2)
	}
	return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL+"/uploads"), nil
}

// ObjectKey builds "<restaurant>/<kind>/<unix-nano>-<clean name>".
func ObjectKey(restaurantID, kind, filename string) string {
	name := strings.ToLower(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	clean := strings.Trim(b.String(), "-.")
	if clean == "" {
		clean = "upload"
	}
	return fmt.Sprintf("%s/%s/%d-%s", restaurantID, kind, time.Now().UnixNano(), clean)
}
