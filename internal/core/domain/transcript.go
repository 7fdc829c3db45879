package domain

import "time"

// Segment is one caption entry of a video transcript.
type Segment struct {
	Text     string        `json:"text"`
	Start    time.Duration `json:"start"`
	Duration time.Duration `json:"duration"`
}

// Transcript is the caption track of a video.
type Transcript struct {
	VideoID  string    `json:"video_id"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// IsEmpty reports whether the transcript has no segments.
func (t *Transcript) IsEmpty() bool {
	return t == nil || len(t.Segments) == 0
}

// Text joins all segments with single spaces.
func (t *Transcript) Text() string {
	n := 0
	for _, s := range t.Segments {
		n += len(s.Text) + 1
	}
	buf := make([]byte, 0, n)
	for i, s := range t.Segments {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, s.Text...)
	}
	return string(buf)
}
