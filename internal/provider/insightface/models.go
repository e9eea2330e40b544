package insightface

// DetectRequest for POST /detect
type DetectRequest struct {
	Img   string `json:"img"`   // base64 encoded JPEG
	Model string `json:"model"` // "buffalo_s", "buffalo_l", ...
}

// DetectResponse from POST /detect
type DetectResponse struct {
	Faces []FaceResult `json:"faces"`
}

// FaceResult mirrors one insightface Face: bbox as x1,y1,x2,y2 in pixels
// and the normed embedding.
type FaceResult struct {
	BBox      [4]float64 `json:"bbox"`
	Embedding []float32  `json:"embedding"`
	DetScore  float64    `json:"det_score"`
}
