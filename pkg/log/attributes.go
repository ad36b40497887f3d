// Standard attribute keys. Keys are hierarchical ("model.name",
// "data.samples") so log pipelines can filter on a prefix.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator, e.g. "LinearRegression".
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies one training run. The pipeline sets it to the
	// report's run id.
	EstimatorIDKey = "estimator.id"

	// OperationKey is one of the Operation constants below.
	OperationKey = "ml.operation"

	// ComponentKey is the package or subsystem emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey is one of the Phase constants below.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ColumnKey   = "data.column"
	PathKey     = "data.path"

	// TrainSizeKey and TestSizeKey are the partition sizes after splitting.
	TrainSizeKey = "data.train_size"
	TestSizeKey  = "data.test_size"
)

// Performance Metrics
const (
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey is R² expressed as a percentage.
	AccuracyKey = "metrics.accuracy"
	R2ScoreKey  = "metrics.r2_score"
	RMSEKey     = "metrics.rmse"
	MAEKey      = "metrics.mae"
)

// Prediction and Output Context
const (
	PredsKey = "preds.count"
)

// Error and Warning Context
const (
	ErrorTypeKey = "error.type"

	// StacktraceKey carries the cockroachdb/errors stack trace of a logged error.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters and Configuration
const (
	HyperParamsKey = "model.hyperparams"
	RandomSeedKey  = "config.random_seed"
)

// Standard attribute value constants.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationLoad         = "load"
	OperationSave         = "save"

	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
