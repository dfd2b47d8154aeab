package moderation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Category classifies why a message was flagged.
type Category string

const (
	CategoryViolence  Category = "violence"
	CategorySexual    Category = "sexual"
	CategorySelfHarm  Category = "self_harm"
	CategoryOffensive Category = "offensive"
)

// Verdict is the classifier's decision for one message. Category and
// Explanation are empty when the message is not violating.
type Verdict struct {
	Violating   bool
	Category    Category
	Explanation string
}

// Classifier decides whether a message violates the content policy.
type Classifier interface {
	Classify(ctx context.Context, message string) (Verdict, error)
}

// ErrUnavailable marks a moderation backend failure. A failure is never a
// pass: callers must fail the request instead of continuing.
var ErrUnavailable = errors.New("moderation unavailable")

// Warning is the fixed text shown instead of an answer when a message is
// flagged.
const Warning = "Te rog să folosești un limbaj respectuos. Mesajul tău pare să conțină conținut nepotrivit."

// Gate runs the classifier in front of the recommendation pipeline. Every
// query goes through it before any retrieval or generation happens.
type Gate struct {
	classifier Classifier
	logger     *zap.Logger
}

func NewGate(classifier Classifier, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{classifier: classifier, logger: logger}
}

// Check classifies the message. The returned error wraps ErrUnavailable when
// the classifier backend fails.
func (g *Gate) Check(ctx context.Context, message string) (Verdict, error) {
	verdict, err := g.classifier.Classify(ctx, message)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if verdict.Violating {
		g.logger.Info("message flagged",
			zap.String("category", string(verdict.Category)),
			zap.String("explanation", verdict.Explanation))
	}
	return verdict, nil
}
