package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/kpseq/kpseq"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Dataset       DatasetConfig       `mapstructure:"dataset"`
	Preprocessing PreprocessingConfig `mapstructure:"preprocessing"`
	Embeddings    EmbeddingsConfig    `mapstructure:"embeddings"`
	Model         ModelConfig         `mapstructure:"model"`
	Evaluation    EvaluationConfig    `mapstructure:"evaluation"`
	Tokenizer     TokenizerConfig     `mapstructure:"tokenizer"`
	Store         StoreConfig         `mapstructure:"store"`
	Log           LogConfig           `mapstructure:"log"`
	Seed          int64               `mapstructure:"seed"`
}

// DatasetConfig locates the corpus. Profile selects the hyperparameter defaults.
type DatasetConfig struct {
	Profile    string `mapstructure:"profile"`
	Folder     string `mapstructure:"folder"`
	Train      string `mapstructure:"train"`
	Test       string `mapstructure:"test"`
	Validation string `mapstructure:"validation"`
}

// PreprocessingConfig stores the encoding parameters.
type PreprocessingConfig struct {
	MaxDocumentLength int  `mapstructure:"maxDocumentLength"`
	MaxVocabularySize int  `mapstructure:"maxVocabularySize"`
	EmbeddingsSize    int  `mapstructure:"embeddingsSize"`
	StemTest          bool `mapstructure:"stemTest"`
	NumClasses        int  `mapstructure:"numClasses"`
	Workers           int  `mapstructure:"workers"`
}

// EmbeddingsConfig selects the pretrained vector source.
type EmbeddingsConfig struct {
	Source string `mapstructure:"source"` // file, hash or none
	Path   string `mapstructure:"path"`
}

// ModelConfig selects the predictor and carries the training parameters of the profile.
type ModelConfig struct {
	Kind              string  `mapstructure:"kind"` // onnx or oracle
	Path              string  `mapstructure:"path"`
	BatchSize         int     `mapstructure:"batchSize"`
	Epochs            int     `mapstructure:"epochs"`
	KPWeight          float64 `mapstructure:"kpWeight"`
	ExecutionProvider string  `mapstructure:"executionProvider"`
	DeviceID          int     `mapstructure:"deviceId"`
}

// EvaluationConfig stores the scoring options.
type EvaluationConfig struct {
	StemMode      string `mapstructure:"stemMode"`
	Average       string `mapstructure:"average"` // micro or macro
	TopK          []int  `mapstructure:"topK"`
	PatternFilter bool   `mapstructure:"patternFilter"`
	AnnotationDir string `mapstructure:"annotationDir"`
}

// TokenizerConfig selects how raw text becomes tokens.
type TokenizerConfig struct {
	Kind      string `mapstructure:"kind"` // word or wordpiece
	VocabPath string `mapstructure:"vocabPath"`
	Lowercase bool   `mapstructure:"lowercase"`
}

// StoreConfig stores the run database connection details.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// LogConfig stores the logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables, then fills every key the
// file leaves unset from the selected dataset profile.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("etc", kpseq.DefaultAppName))
		v.AddConfigPath(kpseq.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.AutomaticEnv()                                   // Read in environment variables that match
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // preprocessing.maxDocumentLength becomes PREPROCESSING_MAXDOCUMENTLENGTH

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	profile, err := LookupProfile(v.GetString("dataset.profile"))
	if err != nil {
		return nil, err
	}
	applyProfile(v, profile)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	AppConfig = cfg
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.profile", "hulth")
	v.SetDefault("dataset.train", "train.jsonl")
	v.SetDefault("dataset.test", "test.jsonl")
	v.SetDefault("dataset.validation", "validation.jsonl")

	v.SetDefault("preprocessing.maxDocumentLength", kpseq.DefaultMaxDocumentLength)
	v.SetDefault("preprocessing.maxVocabularySize", kpseq.DefaultMaxVocabularySize)
	v.SetDefault("preprocessing.embeddingsSize", kpseq.DefaultEmbeddingsSize)
	v.SetDefault("preprocessing.numClasses", kpseq.NumLabels)
	v.SetDefault("preprocessing.workers", 3)

	v.SetDefault("embeddings.source", "none")
	v.SetDefault("model.kind", "oracle")
	v.SetDefault("model.executionProvider", "cpu")

	v.SetDefault("evaluation.average", "micro")
	v.SetDefault("evaluation.topK", kpseq.DefaultTopK)
	v.SetDefault("evaluation.patternFilter", true)

	v.SetDefault("tokenizer.kind", "word")
	v.SetDefault("tokenizer.lowercase", true)

	v.SetDefault("store.enabled", false)
	v.SetDefault("store.dsn", kpseq.DefaultStoreDSN)
	v.SetDefault("log.level", "info")
	v.SetDefault("seed", kpseq.DefaultSeed)
}

// applyProfile overrides the generic defaults with the profile's. Keys set in the file or the
// environment still win since defaults have the lowest precedence.
func applyProfile(v *viper.Viper, p Profile) {
	v.SetDefault("dataset.folder", p.Folder)
	v.SetDefault("preprocessing.maxDocumentLength", p.MaxDocumentLength)
	v.SetDefault("preprocessing.maxVocabularySize", p.MaxVocabularySize)
	v.SetDefault("preprocessing.embeddingsSize", p.EmbeddingsSize)
	v.SetDefault("preprocessing.stemTest", p.StemTest)
	v.SetDefault("model.batchSize", p.BatchSize)
	v.SetDefault("model.epochs", p.Epochs)
	v.SetDefault("model.kpWeight", p.KPWeight)
	v.SetDefault("evaluation.stemMode", p.StemMode)
}

// Validate rejects settings no run could use.
func (c *Config) Validate() error {
	if _, err := LookupProfile(c.Dataset.Profile); err != nil {
		return err
	}
	positive := []struct {
		field string
		value int
	}{
		{"preprocessing.maxDocumentLength", c.Preprocessing.MaxDocumentLength},
		{"preprocessing.maxVocabularySize", c.Preprocessing.MaxVocabularySize},
		{"preprocessing.embeddingsSize", c.Preprocessing.EmbeddingsSize},
	}
	for _, p := range positive {
		if p.value < 1 {
			return kpseq.NewConfigurationError(p.field, "must be positive, got %d", p.value)
		}
	}
	if c.Preprocessing.NumClasses < kpseq.NumLabels {
		return kpseq.NewConfigurationError("preprocessing.numClasses", "must be at least %d, got %d",
			kpseq.NumLabels, c.Preprocessing.NumClasses)
	}
	switch strings.ToLower(c.Evaluation.StemMode) {
	case "none", "both", "results":
	default:
		return kpseq.NewConfigurationError("evaluation.stemMode", "unknown stem mode %q", c.Evaluation.StemMode)
	}
	switch strings.ToLower(c.Evaluation.Average) {
	case "micro", "macro":
	default:
		return kpseq.NewConfigurationError("evaluation.average", "must be micro or macro, got %q", c.Evaluation.Average)
	}
	for _, k := range c.Evaluation.TopK {
		if k < 1 {
			return kpseq.NewConfigurationError("evaluation.topK", "must be positive, got %d", k)
		}
	}
	return nil
}

// Profile returns the dataset profile the config was built from.
func (c *Config) Profile() Profile {
	p, _ := LookupProfile(c.Dataset.Profile)
	return p
}
