package blog

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// Upload is a file chosen by the user, not yet read.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Attachment is an upload that has been read and type-checked.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// DataURI renders the attachment as an inline data URI.
func (a *Attachment) DataURI() string {
	return "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// EncodeMedia reads the image and video uploads concurrently and returns once
// both have finished. Nil uploads are skipped. Nothing is committed here; the
// caller hands the result to CreatePost or EditPost.
func EncodeMedia(ctx context.Context, image, video *Upload, maxBytes int64) (Media, error) {
	var media Media
	g, gctx := errgroup.WithContext(ctx)
	if image != nil {
		g.Go(func() error {
			a, err := readUpload(gctx, image, "image/", maxBytes)
			media.Image = a
			return err
		})
	}
	if video != nil {
		g.Go(func() error {
			a, err := readUpload(gctx, video, "video/", maxBytes)
			media.Video = a
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Media{}, err
	}
	if err := ctx.Err(); err != nil {
		return Media{}, err
	}
	return media, nil
}

// EncodeImage reads a single image upload, e.g. a profile picture.
func EncodeImage(ctx context.Context, up *Upload, maxBytes int64) (*Attachment, error) {
	m, err := EncodeMedia(ctx, up, nil, maxBytes)
	if err != nil {
		return nil, err
	}
	return m.Image, nil
}

func readUpload(ctx context.Context, up *Upload, prefix string, maxBytes int64) (*Attachment, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxMediaBytes
	}
	rc, err := up.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", up.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", up.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrMediaTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), prefix) {
		return nil, ErrMediaType
	}
	ct := mt.String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return &Attachment{Name: up.Name, ContentType: ct, Data: data}, nil
}
