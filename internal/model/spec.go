package model

import (
	"fmt"

	"equitycli/internal/config"
	apperrors "equitycli/internal/errors"
)

// Kind identifies a model family. The set is closed: each kind maps to one
// fit/predict implementation.
type Kind string

const (
	// KindMomentum is a stateless directional rule over raw feature values.
	KindMomentum Kind = "momentum"
	// KindLinear is least-squares regression solved by normal equations.
	KindLinear Kind = "linear"
	// KindMLP is a single-hidden-layer neural regressor with seeded
	// initialization and fixed-epoch training.
	KindMLP Kind = "mlp"
)

// Spec fully determines a model run. Identical Spec plus identical feature
// data reproduces identical output.
type Spec struct {
	Kind         Kind
	Seed         int64
	TrainSplit   float64
	FeatureNames []string
	Target       string
	HiddenUnits  int
	Epochs       int
	LearningRate float64
	MinSamples   int
}

// SpecFromConfig builds a Spec from the model configuration and the feature
// columns the engine produced for this run.
func SpecFromConfig(cfg config.ModelConfig, featureNames []string) Spec {
	return Spec{
		Kind:         Kind(cfg.Kind),
		Seed:         cfg.Seed,
		TrainSplit:   cfg.TrainSplit,
		FeatureNames: featureNames,
		Target:       cfg.Target,
		HiddenUnits:  cfg.HiddenUnits,
		Epochs:       cfg.Epochs,
		LearningRate: cfg.LearningRate,
		MinSamples:   cfg.MinSamples,
	}
}

// Validate checks structural soundness of the spec itself. Compatibility with
// a concrete feature set is checked when the dataset is assembled.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindMomentum, KindLinear, KindMLP:
	default:
		return apperrors.NewConfigurationError("model.kind",
			fmt.Sprintf("unknown model kind %q", s.Kind))
	}
	if len(s.FeatureNames) == 0 {
		return apperrors.NewConfigurationError("model.features", "no feature columns configured")
	}
	if s.Target == "" {
		return apperrors.NewConfigurationError("model.target", "target column is required")
	}
	if s.TrainSplit <= 0 || s.TrainSplit >= 1 {
		return apperrors.NewConfigurationError("model.train_split",
			fmt.Sprintf("train split %.2f must be in (0, 1)", s.TrainSplit))
	}
	if s.MinSamples < 2 {
		return apperrors.NewConfigurationError("model.min_samples",
			fmt.Sprintf("minimum samples %d must be at least 2", s.MinSamples))
	}
	if s.Kind == KindMLP {
		if s.HiddenUnits < 1 {
			return apperrors.NewConfigurationError("model.hidden_units", "at least one hidden unit required")
		}
		if s.Epochs < 1 {
			return apperrors.NewConfigurationError("model.epochs", "at least one training epoch required")
		}
		if s.LearningRate <= 0 {
			return apperrors.NewConfigurationError("model.learning_rate", "learning rate must be positive")
		}
	}
	return nil
}
