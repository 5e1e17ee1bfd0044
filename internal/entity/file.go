package entity

// FileReference is a normalized reference to a file from any source.
type FileReference struct {
	SourceType      string            `json:"source_type"`
	SourceReference string            `json:"source_reference"`
	Filename        string            `json:"filename"`
	MIMEType        string            `json:"mime_type"`
	FileSizeBytes   int64             `json:"file_size_bytes"`
	ContentPath     string            `json:"content_path,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// PageImage is a single preprocessed page.
type PageImage struct {
	PageNumber          int      `json:"page_number"`
	ImagePath           string   `json:"image_path"`
	Width               int      `json:"width,omitempty"`
	Height              int      `json:"height,omitempty"`
	DPI                 int      `json:"dpi,omitempty"`
	RotationApplied     float64  `json:"rotation_applied,omitempty"`
	EnhancementsApplied []string `json:"enhancements_applied,omitempty"`
	QualityScore        float64  `json:"quality_score"`
}

// PreprocessResult is the output of the preprocessing stage.
type PreprocessResult struct {
	Pages          []PageImage `json:"pages"`
	TotalPages     int         `json:"total_pages"`
	FileFormat     string      `json:"file_format"`
	OverallQuality float64     `json:"overall_quality"`
	IsScanned      bool        `json:"is_scanned"`
	HasTextLayer   bool        `json:"has_text_layer"`
}

// DocumentBoundary is a detected [start, end] page sub-range representing
// one logical document within a multi-document file. Pages are 1-based
// inclusive.
type DocumentBoundary struct {
	StartPage        int     `json:"start_page"`
	EndPage          int     `json:"end_page"`
	Confidence       float64 `json:"confidence"`
	Reasoning        string  `json:"reasoning,omitempty"`
	DetectedTypeHint string  `json:"detected_type_hint,omitempty"`
}

// SplittingResult is the output of the boundary detection stage.
type SplittingResult struct {
	Boundaries             []DocumentBoundary `json:"boundaries"`
	TotalDocumentsDetected int                `json:"total_documents_detected"`
	TotalPages             int                `json:"total_pages"`
	StrategyUsed           string             `json:"strategy_used"`
	Confidence             float64            `json:"confidence"`
}
