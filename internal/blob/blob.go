// Package blob stores proof attachments in object storage.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

type Store interface {
	// Put writes r under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

// Key builds <userID>/<proofID>/<unix-ms>-<filename>.
func Key(userID, proofID, filename string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s/%s/%d-%s", userID, proofID, at.UnixMilli(), name)
}
