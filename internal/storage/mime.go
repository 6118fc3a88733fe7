package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

// Audiovisual formats which the platform mime tables often lack. These
// are registered once so classification doesn't depend on the host.
var extraContentTypes = map[string]string{
	".mxf":  "application/mxf",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".avi":  "video/x-msvideo",
	".dv":   "video/x-dv",
	".mkv":  "video/x-matroska",
	".wav":  "audio/x-wav",
	".aif":  "audio/x-aiff",
	".aiff": "audio/x-aiff",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func init() {
	for ext, typ := range extraContentTypes {
		if err := mime.AddExtensionType(ext, typ); err != nil {
			log.Warnf("failed to register content type %s for extension %s: %s\n", typ, ext, err)
		}
	}
}

// ContentTypeFor makes a best-effort guess of the content type of a file
// based on the extension of the filename. Parameters (such as charset) are
// dropped. If no type is known for the extension, an empty string is returned
// and the caller should leave the content type unset rather than guessing.
func ContentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}

	typ := mime.TypeByExtension(ext)
	if typ == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(typ)
	if err != nil {
		base, _, _ := strings.Cut(typ, ";")
		return strings.TrimSpace(base)
	}

	return mediaType
}
