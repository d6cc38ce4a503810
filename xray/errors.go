package xray

import "errors"

var (
	// ErrImageDecode marks request bytes that do not decode to a raster
	// image. Fatal for the request.
	ErrImageDecode = errors.New("image bytes do not decode to a supported raster format")

	// ErrClassifier marks an unexpected failure inside model inference.
	// Fatal for the request, never retried.
	ErrClassifier = errors.New("classifier inference failed")
)

// IsImageDecode reports whether err stems from undecodable image bytes.
func IsImageDecode(err error) bool {
	return errors.Is(err, ErrImageDecode)
}

// IsClassifier reports whether err stems from classifier inference.
func IsClassifier(err error) bool {
	return errors.Is(err, ErrClassifier)
}
