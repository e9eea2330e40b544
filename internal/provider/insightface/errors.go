package insightface

import "errors"

var (
	ErrDetectorUnavailable = errors.New("face detector unavailable")
	ErrInvalidResponse     = errors.New("invalid response from face detector")
	ErrEncodeFrame         = errors.New("encode frame for face detector")
)
