package profile

import (
	"bytes"
	"io"

	"github.com/disintegration/imaging"
	pkgerrors "github.com/pkg/errors"
)

// compressAvatar decodes an image, bounds its longest side to maxDimension
// and re-encodes as JPEG, stepping the quality down until the result fits in
// maxBytes. Orientation metadata is applied during decode so rotated camera
// shots come out upright.
func compressAvatar(r io.Reader, maxDimension, maxBytes int) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[profile.compressAvatar] imaging.Decode")
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	for quality := 90; quality >= 40; quality -= 10 {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, pkgerrors.Wrap(err, "[profile.compressAvatar] imaging.Encode")
		}
		if buf.Len() <= maxBytes {
			return buf.Bytes(), nil
		}
	}
	return nil, pkgerrors.Errorf("[profile.compressAvatar] image exceeds %d bytes at minimum quality", maxBytes)
}
