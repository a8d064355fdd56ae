package lms_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YounesFetouaki/edu-path/core/lms"
	"github.com/YounesFetouaki/edu-path/testutil"
)

func TestChapterInput_DurationMinutes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    *int
		wantErr bool
	}{
		{name: "number", body: `{"durationMinutes": 15}`, want: testutil.IntPtr(15)},
		{name: "numeric string", body: `{"durationMinutes": "15"}`, want: testutil.IntPtr(15)},
		{name: "padded string", body: `{"durationMinutes": " 20 "}`, want: testutil.IntPtr(20)},
		{name: "absent", body: `{"title": "x"}`},
		{name: "null", body: `{"durationMinutes": null}`},
		{name: "not a number", body: `{"durationMinutes": "soon"}`, wantErr: true},
		{name: "decimal", body: `{"durationMinutes": "1.5"}`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ci lms.ChapterInput
			err := json.Unmarshal([]byte(tc.body), &ci)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, ci.DurationMinutes)

			var uc lms.UpdateChapter
			require.NoError(t, json.Unmarshal([]byte(tc.body), &uc))
			assert.Equal(t, tc.want, uc.DurationMinutes)
		})
	}
}

func TestChapterInput_KeepsOtherFields(t *testing.T) {
	var ci lms.ChapterInput
	err := json.Unmarshal([]byte(`{"title": "Perceptrons", "contentType": "quiz", "quizId": 4, "durationMinutes": "5"}`), &ci)
	require.NoError(t, err)
	assert.Equal(t, "Perceptrons", ci.Title)
	assert.Equal(t, lms.ContentQuiz, ci.ContentType)
	assert.Equal(t, testutil.IntPtr(4), ci.QuizID)
	assert.Equal(t, testutil.IntPtr(5), ci.DurationMinutes)
}

func TestNewCourse_ThumbnailURL(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"title": "AI", "thumbnailUrl": "https://cdn.edupath.com/a.png"}`, "https://cdn.edupath.com/a.png"},
		{`{"title": "AI", "thumbnail_url": "https://cdn.edupath.com/b.png"}`, "https://cdn.edupath.com/b.png"},
		{`{"title": "AI", "thumbnailUrl": "https://cdn.edupath.com/a.png", "thumbnail_url": "https://cdn.edupath.com/b.png"}`, "https://cdn.edupath.com/a.png"},
	}
	for _, tc := range tests {
		var nc lms.NewCourse
		require.NoError(t, json.Unmarshal([]byte(tc.body), &nc))
		assert.Equal(t, "AI", nc.Title)
		assert.Equal(t, tc.want, nc.ThumbnailURL)
	}
}
