package provider

// Wire types for the speech-analysis provider API. Unknown or missing fields
// decode to their zero values; slices stay empty rather than nil-panicking
// downstream.

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type createJobRequest struct {
	AudioURL          string `json:"audio_url"`
	AutoChapters      bool   `json:"auto_chapters"`
	SentimentAnalysis bool   `json:"sentiment_analysis"`
}

type jobResponse struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Text       string          `json:"text"`
	Chapters   []wireChapter   `json:"chapters"`
	Sentiments []wireSentiment `json:"sentiment_analysis_results"`
	Error      string          `json:"error"`
}

type wireChapter struct {
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Summary string `json:"summary"`
}

type wireSentiment struct {
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}
