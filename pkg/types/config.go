package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "fastqfetch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// MetadataConfig holds settings for the GEO metadata stage.
type MetadataConfig struct {
	HTTPConfig `yaml:",inline"`

	// DataDir is the base directory for downloaded data
	// (contains metadata/, fastq/, manifest/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// NoCache forces a fresh SOFT download even when a cached copy exists.
	NoCache bool `json:"no_cache" yaml:"no_cache"`
}

// ResolveConfig holds settings for the accession resolution stage.
type ResolveConfig struct {
	HTTPConfig `yaml:",inline"`

	// EnableENA controls whether the ENA portal backend is used.
	EnableENA bool `json:"enable_ena" yaml:"enable_ena"`

	// EnableEutils controls whether the NCBI eutils backend is used.
	EnableEutils bool `json:"enable_eutils" yaml:"enable_eutils"`

	// NCBIAPIKey is an optional NCBI API key for higher eutils rate limits.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`

	// RequestDelay is the delay between consecutive resolver requests (default 1s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// DownloadConfig holds settings for the FASTQ download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// OutputDir is the directory downloaded files are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Methods is the ordered download method chain. Each run is attempted
	// with each method in turn until one succeeds
	// (e.g. ["ena-ftp", "aws-http", "prefetch"]).
	Methods []string `json:"methods" yaml:"methods"`

	// Processes is the number of parallel downloads (default 10, the
	// maximum simultaneous requests NCBI recommends per client).
	Processes int `json:"processes" yaml:"processes"`

	// MaxProcesses runs one worker per run, ignoring Processes.
	MaxProcesses bool `json:"max_processes" yaml:"max_processes"`

	// Force re-downloads runs the manifest already marks as done.
	Force bool `json:"force" yaml:"force"`

	// AscpKeyPath is the ssh key used by the ena-ascp method.
	AscpKeyPath string `json:"ascp_key_path,omitempty" yaml:"ascp_key_path,omitempty"`
}

// ManifestConfig holds settings for the SQLite download manifest.
type ManifestConfig struct {
	// DataDir is the base directory for downloaded data; the manifest
	// database lives in DataDir/manifest/.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Metadata MetadataConfig `json:"metadata" yaml:"metadata"`
	Resolve  ResolveConfig  `json:"resolve" yaml:"resolve"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Manifest ManifestConfig `json:"manifest" yaml:"manifest"`
}
