package activity

import "strings"

var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true,
	"svg": true, "webp": true, "heic": true, "avif": true,
}

var mediaExtensions = map[string]bool{
	"mp3": true, "wav": true, "ogg": true, "aac": true, "flac": true, "m4a": true,
	"mp4": true, "mkv": true, "avi": true, "mov": true, "webm": true, "flv": true,
}

// typeLabels maps extensions to the short badge shown next to an entry.
var typeLabels = map[string]string{
	"pdf": "PDF",
	"zip": "ZIP", "rar": "ZIP", "7z": "ZIP", "tar": "ZIP", "gz": "ZIP",
	"mp4": "VID", "mkv": "VID", "avi": "VID", "mov": "VID", "webm": "VID",
	"doc": "DOC", "docx": "DOC", "odt": "DOC",
	"mp3": "MP3", "wav": "MP3", "ogg": "MP3", "aac": "MP3", "flac": "MP3",
	"png": "IMG", "jpg": "IMG", "jpeg": "IMG", "gif": "IMG", "bmp": "IMG", "svg": "IMG", "webp": "IMG",
	"txt": "TXT",
	"xls": "XLS", "xlsx": "XLS", "csv": "XLS",
	"ppt": "PPT", "pptx": "PPT",
	"exe": "EXE", "msi": "EXE", "dmg": "EXE",
}

// extension returns the lower-cased text after the last dot, or "" when the
// name has no dot.
func extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// Classify infers a category from a filename. Unknown and missing
// extensions fall into documents.
func Classify(filename string) Category {
	ext := extension(filename)
	switch {
	case imageExtensions[ext]:
		return CategoryImages
	case mediaExtensions[ext]:
		return CategoryMedia
	default:
		return CategoryDocuments
	}
}

// TypeLabel returns a short upper-case badge for filename, e.g. "PDF".
func TypeLabel(filename string) string {
	ext := extension(filename)
	if ext == "" {
		return "FILE"
	}
	if label, ok := typeLabels[ext]; ok {
		return label
	}
	label := strings.ToUpper(ext)
	if r := []rune(label); len(r) > 3 {
		label = string(r[:3])
	}
	return label
}
