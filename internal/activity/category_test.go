package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     Category
	}{
		{"photo.png", CategoryImages},
		{"PHOTO.JPEG", CategoryImages},
		{"scan.HeIc", CategoryImages},
		{"song.mp3", CategoryMedia},
		{"clip.MKV", CategoryMedia},
		{"voice.m4a", CategoryMedia},
		{"report.pdf", CategoryDocuments},
		{"archive.tar.gz", CategoryDocuments},
		{"setup.exe", CategoryDocuments},
		{"README", CategoryDocuments},
		{"trailing.", CategoryDocuments},
		{"", CategoryDocuments},
		{".png", CategoryImages},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.filename))
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	valid := map[Category]bool{CategoryImages: true, CategoryMedia: true, CategoryDocuments: true}
	names := []string{"a", "a.b", "a.b.c", "ümlaut.ŻÓŁW", "..", "x.png ", "emoji.🎉", "\x00.\x00"}
	for _, name := range names {
		got := Classify(name)
		assert.True(t, valid[got], "Classify(%q) = %q", name, got)
		assert.Equal(t, got, Classify(name), "Classify must be deterministic")
	}
}

func TestTypeLabel(t *testing.T) {
	assert.Equal(t, "PDF", TypeLabel("paper.PDF"))
	assert.Equal(t, "ZIP", TypeLabel("bundle.7z"))
	assert.Equal(t, "VID", TypeLabel("movie.webm"))
	assert.Equal(t, "IMG", TypeLabel("icon.svg"))
	assert.Equal(t, "XLS", TypeLabel("sheet.csv"))
	assert.Equal(t, "EXE", TypeLabel("installer.dmg"))
	assert.Equal(t, "JSO", TypeLabel("data.json"))
	assert.Equal(t, "GO", TypeLabel("main.go"))
	assert.Equal(t, "FILE", TypeLabel("Makefile"))
}
