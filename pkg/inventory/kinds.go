package inventory

import (
	"path/filepath"
	"strings"

	"mediaagent/pkg/proto"
)

// Extension table (lowercase, with leading dot).
//
//nolint:gochecknoglobals // static lookup table
var kindByExt = map[string]proto.MediaKind{
	".mkv": proto.KindVideo, ".mp4": proto.KindVideo, ".avi": proto.KindVideo,
	".m4v": proto.KindVideo, ".mov": proto.KindVideo, ".wmv": proto.KindVideo,
	".flv": proto.KindVideo, ".webm": proto.KindVideo, ".ts": proto.KindVideo,
	".m2ts": proto.KindVideo, ".mpg": proto.KindVideo, ".mpeg": proto.KindVideo,
	".mxf": proto.KindVideo, ".ogv": proto.KindVideo,

	".wav": proto.KindAudio, ".mp3": proto.KindAudio, ".aac": proto.KindAudio,
	".m4a": proto.KindAudio, ".flac": proto.KindAudio, ".ogg": proto.KindAudio,
	".opus": proto.KindAudio, ".aiff": proto.KindAudio, ".ac3": proto.KindAudio,

	".jpg": proto.KindImage, ".jpeg": proto.KindImage, ".png": proto.KindImage,
	".gif": proto.KindImage, ".bmp": proto.KindImage, ".tif": proto.KindImage,
	".tiff": proto.KindImage, ".webp": proto.KindImage, ".exr": proto.KindImage,

	".srt": proto.KindSubtitle, ".vtt": proto.KindSubtitle, ".ass": proto.KindSubtitle,
	".ssa": proto.KindSubtitle, ".sub": proto.KindSubtitle, ".scc": proto.KindSubtitle,

	".txt": proto.KindDocument, ".md": proto.KindDocument, ".pdf": proto.KindDocument,
	".doc": proto.KindDocument, ".docx": proto.KindDocument, ".csv": proto.KindDocument,
	".json": proto.KindDocument, ".xml": proto.KindDocument,
}

// KindFor classifies a path by its extension.
func KindFor(path string) proto.MediaKind {
	if kind, ok := kindByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return kind
	}
	return proto.KindOther
}

// probeable reports whether ffprobe has anything useful to say about kind.
func probeable(kind proto.MediaKind) bool {
	return kind == proto.KindVideo || kind == proto.KindAudio
}
