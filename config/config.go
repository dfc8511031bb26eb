// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config holds the postsearch configuration and loads it from YAML
// or TOML files.
package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/poiesic/postsearch/ai"
	"github.com/poiesic/postsearch/corpus"
	"github.com/poiesic/postsearch/storage"
)

// Default locations, relative to the blog repository root.
const (
	DefaultCorpusRoot = "src/_posts"
	DefaultCLIOutput  = "tools/search/output"
	DefaultWebOutput  = "public/output"
	DefaultCacheDir   = "tools/search/output/.cache"
)

// Log levels accepted by log_level.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Config represents the application configuration.
type Config struct {
	CorpusRoot       string    `yaml:"corpus_root" toml:"corpus_root"`
	Outputs          []Output  `yaml:"outputs" toml:"outputs"`
	Embedding        Embedding `yaml:"embedding" toml:"embedding"`
	NormalizeVectors bool      `yaml:"normalize_vectors" toml:"normalize_vectors"`
	TopK             int       `yaml:"top_k" toml:"top_k"`
	Workers          int       `yaml:"workers" toml:"workers"`
	MaxRetries       int       `yaml:"max_retries" toml:"max_retries"`
	RetryDelay       Duration  `yaml:"retry_delay" toml:"retry_delay"`
	CacheDir         string    `yaml:"cache_dir" toml:"cache_dir"`
	OnUnreadable     string    `yaml:"on_unreadable" toml:"on_unreadable"`
	LogLevel         string    `yaml:"log_level" toml:"log_level"`
}

// Output is one index target. The first output is the one search reads.
type Output struct {
	Dir    string `yaml:"dir" toml:"dir"`
	Format string `yaml:"format" toml:"format"`
}

// Validate validates the output configuration.
func (o *Output) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Dir, validation.Required),
		validation.Field(&o.Format, validation.Required, validation.In(storage.FormatNPY, storage.FormatJSON)),
	)
}

// Embedding configures the embedding provider.
type Embedding struct {
	Provider          string  `yaml:"provider" toml:"provider"`
	Host              string  `yaml:"host" toml:"host"`
	Model             string  `yaml:"model" toml:"model"`
	Token             string  `yaml:"token" toml:"token"`
	BatchSize         int     `yaml:"batch_size" toml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
}

// Validate validates the embedding configuration.
func (e *Embedding) Validate() error {
	e.Provider = strings.ToLower(strings.TrimSpace(e.Provider))
	return validation.ValidateStruct(e,
		validation.Field(&e.Provider, validation.Required, validation.In(ai.ProviderOpenAI, ai.ProviderOllama)),
		validation.Field(&e.Host, validation.Required),
		validation.Field(&e.Model, validation.Required),
		validation.Field(&e.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&e.RequestsPerSecond, validation.Min(0.0)),
	)
}

// Default returns a new Config with the defaults of the blog repository layout.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		CorpusRoot: DefaultCorpusRoot,
		Outputs: []Output{
			{Dir: DefaultCLIOutput, Format: storage.FormatNPY},
			{Dir: DefaultWebOutput, Format: storage.FormatJSON},
		},
		Embedding: Embedding{
			Provider:  aiDefaults.Provider,
			Host:      aiDefaults.EmbeddingHost,
			Model:     aiDefaults.EmbeddingModel,
			BatchSize: aiDefaults.BatchSize,
		},
		NormalizeVectors: true,
		TopK:             10,
		Workers:          max(1, runtime.NumCPU()/2),
		MaxRetries:       3,
		RetryDelay:       Duration(time.Second),
		CacheDir:         DefaultCacheDir,
		OnUnreadable:     string(corpus.ErrorPolicyFail),
		LogLevel:         "info",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.CorpusRoot, validation.Required),
		validation.Field(&c.Outputs, validation.Required),
		validation.Field(&c.TopK, validation.Required, validation.Min(1)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxRetries, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryDelay, validation.Min(Duration(0))),
		validation.Field(&c.OnUnreadable, validation.In(string(corpus.ErrorPolicyFail), string(corpus.ErrorPolicySkip))),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	); err != nil {
		return err
	}

	for i := range c.Outputs {
		if err := c.Outputs[i].Validate(); err != nil {
			return fmt.Errorf("outputs[%d]: %w", i, err)
		}
	}

	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	return nil
}

// AIConfig returns the embedding provider configuration.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(c.Embedding.Provider),
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIToken(c.Embedding.Token),
		ai.WithBatchSize(c.Embedding.BatchSize),
		ai.WithRequestsPerSecond(c.Embedding.RequestsPerSecond),
	)
}

// Targets returns the index store targets, primary first.
func (c *Config) Targets() []storage.Target {
	targets := make([]storage.Target, len(c.Outputs))
	for i, o := range c.Outputs {
		targets[i] = storage.Target{Dir: o.Dir, Format: o.Format}
	}
	return targets
}

// ErrorPolicy returns the unreadable-document policy.
func (c *Config) ErrorPolicy() (corpus.ErrorPolicy, error) {
	return corpus.ParseErrorPolicy(c.OnUnreadable)
}

// SlogLevel returns the configured log level, or info when unset.
func (c *Config) SlogLevel() slog.Level {
	if level, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return level
	}
	return slog.LevelInfo
}
