package config

// Default column aliases. The workbook corpus this tool grew up on mixes
// Spanish and English headers, so both spellings are recognized out of the box.
var (
	defaultTimestampAliases = []string{"fecha", "date", "timestamp", "time", "day"}
	defaultOpenAliases      = []string{"open", "apertura", "opening price"}
	defaultHighAliases      = []string{"high", "maximo", "máximo", "highest price"}
	defaultLowAliases       = []string{"low", "minimo", "mínimo", "lowest price"}
	defaultCloseAliases     = []string{"close", "precio", "price", "closing price", "adj close", "cierre"}
	defaultVolumeAliases    = []string{"volume", "volumen", "vol", "traded volume"}
)

// defaultDateFormats lists the date layouts tried in order when coercing
// timestamp cells. Excel serial numbers are handled separately by the loader.
var defaultDateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"01-02-06",
	"1/2/06 15:04",
	"Jan 2, 2006",
}

// DefaultFeatures returns the standard engineered feature set: the moving
// average and momentum windows the original spreadsheets carried as
// precomputed columns, now derived from raw prices.
func DefaultFeatures() []FeatureConfig {
	return []FeatureConfig{
		{Name: "sma_21", Kind: "sma", Window: 21},
		{Name: "sma_55", Kind: "sma", Window: 55},
		{Name: "sma_144", Kind: "sma", Window: 144},
		{Name: "mom_10", Kind: "momentum", Window: 10},
		{Name: "mom_70", Kind: "momentum", Window: 70},
		{Name: "mom_300", Kind: "momentum", Window: 300},
		{Name: "direction", Kind: "direction", Window: 2},
	}
}

// ApplyDefaults fills in zero-valued slice fields with built-in defaults.
// Scalar defaults come from envconfig struct tags.
func (a *AnalysisConfig) ApplyDefaults() {
	if len(a.TimestampAliases) == 0 {
		a.TimestampAliases = defaultTimestampAliases
	}
	if len(a.OpenAliases) == 0 {
		a.OpenAliases = defaultOpenAliases
	}
	if len(a.HighAliases) == 0 {
		a.HighAliases = defaultHighAliases
	}
	if len(a.LowAliases) == 0 {
		a.LowAliases = defaultLowAliases
	}
	if len(a.CloseAliases) == 0 {
		a.CloseAliases = defaultCloseAliases
	}
	if len(a.VolumeAliases) == 0 {
		a.VolumeAliases = defaultVolumeAliases
	}
	if len(a.DateFormats) == 0 {
		a.DateFormats = defaultDateFormats
	}
	if len(a.Features) == 0 {
		a.Features = DefaultFeatures()
	}
}

// FeatureNames returns the configured feature names excluding the model target.
func (a *AnalysisConfig) FeatureNames() []string {
	var names []string
	for _, f := range a.Features {
		if f.Name == a.Model.Target {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// DefaultAnalysis returns a fully populated analysis configuration without
// reading the environment. Used by tests and as the CLI fallback.
func DefaultAnalysis() AnalysisConfig {
	cfg := AnalysisConfig{
		MinObservations:    30,
		MaxDroppedFraction: 0.2,
		Model: ModelConfig{
			Kind:         "mlp",
			Seed:         42,
			TrainSplit:   0.8,
			Target:       "direction",
			HiddenUnits:  32,
			Epochs:       200,
			LearningRate: 0.05,
			MinSamples:   30,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}
