package meals

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
)

var ErrNoFoodDetected = errors.New("no food detected")

// ImageAPI is the subset of the backend client used for photo analysis.
type ImageAPI interface {
	Predict(ctx context.Context, img apiclient.Image) ([]apiclient.Detection, error)
	UploadPredicted(ctx context.Context, img apiclient.Image) (string, error)
}

// Analysis is the outcome of a photo analysis.
type Analysis struct {
	Detections []apiclient.Detection `json:"detections"`
	ImageID    string                `json:"image_id"`
}

// MenuName is the best guess for the meal title.
func (a Analysis) MenuName() string {
	if len(a.Detections) == 0 {
		return ""
	}
	return a.Detections[0].ClassName
}

// Analyzer runs classify-then-upload. The upload is attempted only after a successful
// classification; if the upload fails the classification is discarded.
type Analyzer struct {
	api    ImageAPI
	logger Logger

	mu     sync.Mutex
	last   *Analysis
	errMsg string
}

func NewAnalyzer(api ImageAPI, logger Logger) *Analyzer {
	return &Analyzer{api: api, logger: logger}
}

func (a *Analyzer) Analyze(ctx context.Context, img apiclient.Image) (*Analysis, error) {
	a.reset()

	detections, err := a.api.Predict(ctx, img)
	if err != nil {
		return nil, a.fail("predict", err)
	}
	if len(detections) == 0 {
		return nil, a.fail("predict", ErrNoFoodDetected)
	}

	imageID, err := a.api.UploadPredicted(ctx, img)
	if err != nil {
		return nil, a.fail("upload", err)
	}

	result := &Analysis{Detections: detections, ImageID: imageID}

	a.mu.Lock()
	a.last = result
	a.mu.Unlock()

	logf(a.logger, "INFO meals.analyzer: analyzed menu=%q image_id=%s detections=%d", result.MenuName(), imageID, len(detections))
	return result, nil
}

// Last returns the last successful analysis, nil after a failure.
func (a *Analyzer) Last() *Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func (a *Analyzer) Err() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errMsg
}

func (a *Analyzer) reset() {
	a.mu.Lock()
	a.last = nil
	a.errMsg = ""
	a.mu.Unlock()
}

func (a *Analyzer) fail(step string, err error) error {
	logf(a.logger, "WARN meals.analyzer: %s_failed err=%v", step, err)

	msg := apiclient.UserMessage(err)
	if errors.Is(err, ErrNoFoodDetected) {
		msg = "음식을 인식하지 못했습니다. 다른 사진으로 시도해 주세요."
	}

	a.mu.Lock()
	a.errMsg = msg
	a.mu.Unlock()
	return fmt.Errorf("%s: %w", step, err)
}
