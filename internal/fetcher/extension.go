package fetcher

import (
	"errors"
	"mime"
	"net/url"
	"path"
	"strings"
)

// defaultExtension is used when neither the URL nor the content type tell the
// image format. Favicons without a clear type are almost always ICO files.
const defaultExtension = ".ico"

// urlExtensions lists the URL path extensions that are trusted as is.
var urlExtensions = map[string]struct{}{ //nolint: gochecknoglobals
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".svg":  {},
	".ico":  {},
}

// contentTypeExtensions maps normalized media types to file extensions.
var contentTypeExtensions = map[string]string{ //nolint: gochecknoglobals
	"image/svg+xml": ".svg",
	"image/svg":     ".svg",
	"image/png":     ".png",
	"image/x-png":   ".png",
	"image/apng":    ".png",
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/pjpeg":   ".jpg",
}

// Extension infers the file extension of a logo, in order of preference:
//  1. the URL path extension, if it is one of png, jpg, jpeg, webp, svg or ico
//  2. the media type of contentType, through contentTypeExtensions
//  3. ".ico"
//
// The returned extension is lower-case and includes the leading dot.
func Extension(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		if _, ok := urlExtensions[ext]; ok {
			return ext
		}
	}

	if ext, ok := contentTypeExtensions[mediaTypeOf(contentType)]; ok {
		return ext
	}

	return defaultExtension
}

// mediaTypeOf returns the lower-case media type of a Content-Type header.
// Servers often send broken parameters or repeated values, so when the header
// does not parse as a whole, the part before the first ";" or "," is used.
func mediaTypeOf(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil || errors.Is(err, mime.ErrInvalidMediaParameter) {
		return mediaType
	}

	head, _, _ := strings.Cut(contentType, ";")
	head, _, _ = strings.Cut(head, ",")

	return strings.ToLower(strings.TrimSpace(head))
}
