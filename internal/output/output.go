// Package output abstracts where generated programs land: a local
// directory, or a GCS bucket for batch runs feeding a shared corpus.
package output

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Sink stores one named program source.
type Sink interface {
	Store(ctx context.Context, name string, data []byte) error
}

// DirSink writes programs into a local directory, creating it on first use.
type DirSink struct {
	Dir string
}

var _ Sink = (*DirSink)(nil)

func (s *DirSink) Store(ctx context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	klog.FromContext(ctx).V(1).Info("stored program", "path", path, "bytes", len(data))
	return nil
}

// GCSSink uploads programs as objects under gs://<bucket>/<prefix>/.
type GCSSink struct {
	Bucket string
	Prefix string
}

var _ Sink = (*GCSSink)(nil)

func (s *GCSSink) Store(ctx context.Context, name string, data []byte) error {
	log := klog.FromContext(ctx)

	key := name
	if s.Prefix != "" {
		key = s.Prefix + "/" + name
	}
	gcsURL := "gs://" + s.Bucket + "/" + key

	client, err := storage.NewClient(ctx)
	if err != nil {
		return errors.Wrap(err, "creating GCS storage client")
	}
	defer client.Close()

	startedAt := time.Now()
	w := client.Bucket(s.Bucket).Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		return errors.Wrapf(err, "uploading to %q", gcsURL)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "closing GCS writer for %q", gcsURL)
	}

	log.Info("uploaded program", "url", gcsURL, "bytes", len(data), "duration", time.Since(startedAt))
	return nil
}
