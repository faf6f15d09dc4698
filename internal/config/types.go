// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

// Config holds all configurable settings for json2variant.
type Config struct {
	// Defaults are the conversion defaults, overridable per run by flags.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Output holds settings for the produced parquet file.
	Output OutputConfig `yaml:"output"`
}

// DefaultsConfig holds conversion defaults.
type DefaultsConfig struct {
	// BatchBytes is the flush threshold in bytes of accumulated source
	// JSON text.
	BatchBytes int64 `yaml:"batch_bytes"`

	// Format is the default input format: auto, ndjson or single.
	Format string `yaml:"format"`

	// Workers is the number of concurrent encode workers. 1 means the
	// pipeline runs strictly sequentially.
	Workers int `yaml:"workers"`

	// SkipInvalid makes malformed documents a warning instead of a fatal
	// error. Encode and write failures always abort.
	SkipInvalid bool `yaml:"skip_invalid"`
}

// OutputConfig holds settings for the produced parquet file.
type OutputConfig struct {
	// Compression selects the parquet page compression codec:
	// snappy, zstd, gzip, brotli or none.
	Compression string `yaml:"compression"`
}

// DefaultConfig returns the built-in defaults used when no config file or
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			BatchBytes:  100_000_000,
			Format:      "auto",
			Workers:     1,
			SkipInvalid: false,
		},
		Output: OutputConfig{
			Compression: "snappy",
		},
	}
}
