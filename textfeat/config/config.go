package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/quillfeed/textfeat/textfeat"

	"github.com/spf13/viper"
)

// Config stores all configuration of the library.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Hashing   HashingConfig   `mapstructure:"hashing"`
	Segmenter SegmenterConfig `mapstructure:"segmenter"`
	Workers   int             `mapstructure:"workers"`
}

// EmbeddingConfig stores text-to-embedding-matrix transformer settings.
type EmbeddingConfig struct {
	InputCol       string `mapstructure:"inputCol"`
	OutputCol      string `mapstructure:"outputCol"`
	EmbeddingSize  int    `mapstructure:"embeddingSize"`
	SequenceLength int    `mapstructure:"sequenceLength"`
	OutputMode     string `mapstructure:"outputMode"`    // "matrix" or "flat"
	UnknownPolicy  string `mapstructure:"unknownPolicy"` // "drop" or "unk"
	Trainer        string `mapstructure:"trainer"`       // "hash" or "onnx"
	ModelPath      string `mapstructure:"modelPath"`
}

// HashingConfig stores bag-of-words hashing transformer settings.
type HashingConfig struct {
	InputCol    string `mapstructure:"inputCol"`
	OutputCol   string `mapstructure:"outputCol"`
	NumFeatures int    `mapstructure:"numFeatures"`
	Binary      bool   `mapstructure:"binary"`
	Normalize   bool   `mapstructure:"normalize"`
}

// SegmenterConfig stores the dictionary bundle for the text segmenter.
type SegmenterConfig struct {
	Backend     string `mapstructure:"backend"` // "whitespace", "dict" or "wordpiece"
	DicDir      string `mapstructure:"dicDir"`
	DicZipName  string `mapstructure:"dicZipName"`
	AutoExtract bool   `mapstructure:"autoExtract"`
	VocabPath   string `mapstructure:"vocabPath"` // wordpiece vocab.txt
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("embedding.inputCol", "text")
	viper.SetDefault("embedding.outputCol", "features")
	viper.SetDefault("embedding.embeddingSize", internal.DefaultEmbeddingSize)
	viper.SetDefault("embedding.sequenceLength", internal.DefaultSequenceLength)
	viper.SetDefault("embedding.outputMode", "matrix")
	viper.SetDefault("embedding.unknownPolicy", "drop")
	viper.SetDefault("embedding.trainer", "hash")

	viper.SetDefault("hashing.inputCol", "text")
	viper.SetDefault("hashing.outputCol", "features")
	viper.SetDefault("hashing.numFeatures", internal.DefaultNumFeatures)

	viper.SetDefault("segmenter.backend", "whitespace")
	viper.SetDefault("segmenter.dicDir", internal.DefaultDictDir)
	viper.SetDefault("segmenter.autoExtract", false)

	viper.SetDefault("workers", 0) // 0 = derive from CPU count

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. embedding.embeddingSize becomes EMBEDDING_EMBEDDINGSIZE

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}
