// Copyright Nora Vasquez, 2026. All rights reserved.

package types

// DownloadState tracks a run through the download pipeline.
type DownloadState string

const (
	StatePending     DownloadState = "pending"
	StateDownloading DownloadState = "downloading"
	StateDone        DownloadState = "done"
	StateFailed      DownloadState = "failed"
)

// Run holds the resolved identity and file locations of a sequencing run.
// One GEO sample usually maps to one run, but multi-run samples occur;
// the resolver emits one Run per run accession.
type Run struct {
	// Accession is the SRA run accession (e.g. "SRR21904321").
	Accession string `json:"accession" yaml:"accession"`

	// SampleAccession is the SRA sample accession (SRS/ERS), when known.
	SampleAccession string `json:"sample_accession,omitempty" yaml:"sample_accession,omitempty"`

	// ExperimentAccession is the SRA experiment accession (SRX/ERX), when known.
	ExperimentAccession string `json:"experiment_accession,omitempty" yaml:"experiment_accession,omitempty"`

	// StudyAccession is the SRA study accession (e.g. "SRP403008").
	StudyAccession string `json:"study_accession,omitempty" yaml:"study_accession,omitempty"`

	// SourceAccession is the accession the run was resolved from
	// (e.g. the GEO sample "GSM6561269").
	SourceAccession string `json:"source_accession,omitempty" yaml:"source_accession,omitempty"`

	// Title is the sample or experiment title, when the backend reports one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// LibraryLayout is "SINGLE" or "PAIRED", when known.
	LibraryLayout string `json:"library_layout,omitempty" yaml:"library_layout,omitempty"`

	// FastqURLs lists the FASTQ file URLs reported by ENA, in mate order.
	FastqURLs []string `json:"fastq_urls,omitempty" yaml:"fastq_urls,omitempty"`

	// FastqBytes lists the file sizes matching FastqURLs.
	FastqBytes []int64 `json:"fastq_bytes,omitempty" yaml:"fastq_bytes,omitempty"`

	// FastqMD5s lists the hex MD5 digests matching FastqURLs.
	FastqMD5s []string `json:"fastq_md5s,omitempty" yaml:"fastq_md5s,omitempty"`

	// Source identifies which backend resolved the run ("ena", "eutils").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// TotalBytes returns the summed size of the run's FASTQ files.
func (r Run) TotalBytes() int64 {
	var n int64
	for _, b := range r.FastqBytes {
		n += b
	}
	return n
}

// HasFastqURLs reports whether ENA file locations are known for the run.
func (r Run) HasFastqURLs() bool {
	return len(r.FastqURLs) > 0
}
