package constants

// JobStatus is the canonical lifecycle status of a processing job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending            JobStatus = "PENDING"
	JobStatusIngesting          JobStatus = "INGESTING"
	JobStatusPreprocessing      JobStatus = "PREPROCESSING"
	JobStatusSplitting          JobStatus = "SPLITTING"
	JobStatusClassifying        JobStatus = "CLASSIFYING"
	JobStatusExtracting         JobStatus = "EXTRACTING"
	JobStatusValidating         JobStatus = "VALIDATING"
	JobStatusCompleted          JobStatus = "COMPLETED"
	JobStatusFailed             JobStatus = "FAILED"
	JobStatusPartiallyCompleted JobStatus = "PARTIALLY_COMPLETED"
	JobStatusCancelled          JobStatus = "CANCELLED"
)

// IsTerminal reports whether the status marks the end of a job's lifecycle.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusPartiallyCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// DocumentConfidence is the banded confidence level of a processed document.
type DocumentConfidence string

const (
	ConfidenceHigh    DocumentConfidence = "HIGH"
	ConfidenceMedium  DocumentConfidence = "MEDIUM"
	ConfidenceLow     DocumentConfidence = "LOW"
	ConfidenceVeryLow DocumentConfidence = "VERY_LOW"
)

// ConfidenceFromScore maps a numeric score onto a confidence band.
func ConfidenceFromScore(score float64) DocumentConfidence {
	switch {
	case score >= 0.9:
		return ConfidenceHigh
	case score >= 0.7:
		return ConfidenceMedium
	case score >= 0.5:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// Rank orders confidence bands from worst (0) to best (3).
func (c DocumentConfidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}
