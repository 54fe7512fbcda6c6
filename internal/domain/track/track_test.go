package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_IsAudio(t *testing.T) {
	tests := []struct {
		name      string
		mediaType MediaType
		expected  bool
	}{
		{
			name:      "audiobook is audio",
			mediaType: MediaTypeAudiobook,
			expected:  true,
		},
		{
			name:      "radio is audio",
			mediaType: MediaTypeRadio,
			expected:  true,
		},
		{
			name:      "music is audio",
			mediaType: MediaTypeMusic,
			expected:  true,
		},
		{
			name:      "book is not audio",
			mediaType: MediaTypeBook,
			expected:  false,
		},
		{
			name:      "unknown type is not audio",
			mediaType: MediaType("VIDEO"),
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trk := &Track{ID: "test-id", Type: tt.mediaType}
			assert.Equal(t, tt.expected, trk.IsAudio())
		})
	}
}

func TestAudioOnly(t *testing.T) {
	tracks := []Track{
		{ID: "a", Type: MediaTypeAudiobook},
		{ID: "b", Type: MediaTypeBook},
		{ID: "c", Type: MediaTypeRadio},
		{ID: "d", Type: MediaTypeBook},
		{ID: "e", Type: MediaTypeMusic},
	}

	filtered := AudioOnly(tracks)

	ids := make([]string, len(filtered))
	for i, trk := range filtered {
		ids[i] = trk.ID
	}
	assert.Equal(t, []string{"a", "c", "e"}, ids, "order must be preserved")
}

func TestAudioOnly_Empty(t *testing.T) {
	assert.Empty(t, AudioOnly(nil))
	assert.Empty(t, AudioOnly([]Track{{ID: "b", Type: MediaTypeBook}}))
}

func TestIndexOf(t *testing.T) {
	tracks := []Track{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	assert.Equal(t, 1, IndexOf(tracks, "b"))
	assert.Equal(t, -1, IndexOf(tracks, "x"))
	assert.Equal(t, -1, IndexOf(nil, "a"))
}
