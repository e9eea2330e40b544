package repository

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

// featuresSize is the byte length of a valid features blob.
const featuresSize = domain.EmbeddingDim * 4

// EncodeFeatures packs an embedding as little-endian IEEE-754 float32s.
func EncodeFeatures(embedding []float32) ([]byte, error) {
	if len(embedding) != domain.EmbeddingDim {
		return nil, domain.ErrValidationFailed.WithError(
			fmt.Errorf("embedding has %d values, want %d", len(embedding), domain.EmbeddingDim))
	}
	buf := make([]byte, featuresSize)
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf, nil
}

// DecodeFeatures is the inverse of EncodeFeatures. Any length other than
// featuresSize is reported as domain.ErrCorruptRecord.
func DecodeFeatures(blob []byte) ([]float32, error) {
	if len(blob) != featuresSize {
		return nil, domain.ErrCorruptRecord.WithError(
			fmt.Errorf("features blob has %d bytes, want %d", len(blob), featuresSize))
	}
	out := make([]float32, domain.EmbeddingDim)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}
