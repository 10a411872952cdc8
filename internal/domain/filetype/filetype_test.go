package filetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyByExtension(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  []byte
		category Category
	}{
		{"ini", "tank.ini", []byte("[core]\nname=tank"), CategoryText},
		{"upper case", "README.MD", []byte("# hi"), CategoryText},
		{"lua", "ai.lua", nil, CategoryText},
		{"png", "icon.png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, CategoryImage},
		{"svg", "logo.svg", []byte("<svg/>"), CategoryImage},
		{"ogg", "music.ogg", []byte("OggS\x00\x02"), CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, Classify(tt.file, tt.content).Category)
		})
	}
}

func TestClassifyBySniffing(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	info := Classify("unit_sprite", png)
	assert.Equal(t, CategoryImage, info.Category)
	assert.Equal(t, "image/png", info.MIME)

	info = Classify("LICENSE", []byte("Permission is hereby granted, free of charge"))
	assert.Equal(t, CategoryText, info.Category)
	assert.Equal(t, "utf-8", info.Charset)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "ini", Extension("Tank.INI"))
	assert.Equal(t, "", Extension("Makefile"))
	assert.True(t, IsText("map.tmx"))
	assert.True(t, IsImage("a.JPEG"))
}

func TestDetectCharset(t *testing.T) {
	assert.Equal(t, "utf-8", DetectCharset([]byte("plain ascii")))
	assert.Equal(t, "utf-8", DetectCharset(nil))
}
