package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fireflysoft/intellidoc/internal/common"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func newTestService(cfg common.PipelineConfig) *Service {
	return NewService(cfg, nil, NewLocalSource())
}

func TestIngestLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.pdf", 2048)
	svc := newTestService(common.PipelineConfig{MaxFileSizeMB: 1})

	ref, err := svc.Ingest(context.Background(), "local", path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if ref.Filename != "scan.pdf" {
		t.Errorf("filename = %q", ref.Filename)
	}
	if ref.MIMEType != "application/pdf" {
		t.Errorf("mime = %q, want application/pdf", ref.MIMEType)
	}
	if ref.FileSizeBytes != 2048 {
		t.Errorf("size = %d, want 2048", ref.FileSizeBytes)
	}
	if ref.ContentPath != path {
		t.Errorf("local files are read in place, content path = %q", ref.ContentPath)
	}
}

func TestIngestUnknownSourceType(t *testing.T) {
	svc := newTestService(common.PipelineConfig{})
	_, err := svc.Ingest(context.Background(), "carrier_pigeon", "ref")
	if !common.HasCode(err, common.CodeFileSource) {
		t.Errorf("error code = %q, want FILE_SOURCE_ERROR", common.ErrorCode(err))
	}
}

func TestIngestSourceTypeCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.pdf", 10)
	svc := newTestService(common.PipelineConfig{})

	if _, err := svc.Ingest(context.Background(), "LOCAL", path); err != nil {
		t.Errorf("uppercase source type rejected: %v", err)
	}
}

func TestIngestRejectsUnsupportedMIME(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", 10)
	svc := newTestService(common.PipelineConfig{})

	_, err := svc.Ingest(context.Background(), "local", path)
	if !common.HasCode(err, common.CodeUnsupportedFileType) {
		t.Errorf("error code = %q, want UNSUPPORTED_FILE_TYPE", common.ErrorCode(err))
	}
}

func TestIngestRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.pdf", 2*1024*1024)
	svc := newTestService(common.PipelineConfig{MaxFileSizeMB: 1})

	_, err := svc.Ingest(context.Background(), "local", path)
	if !common.HasCode(err, common.CodeFileTooLarge) {
		t.Errorf("error code = %q, want FILE_TOO_LARGE", common.ErrorCode(err))
	}
}

func TestIngestNoSizeLimitWhenUnconfigured(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.pdf", 2*1024*1024)
	svc := newTestService(common.PipelineConfig{})

	if _, err := svc.Ingest(context.Background(), "local", path); err != nil {
		t.Errorf("zero MaxFileSizeMB means no limit: %v", err)
	}
}

func TestIngestMIMEOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "photo.png", 10)
	svc := newTestService(common.PipelineConfig{SupportedMIMETypes: []string{"application/pdf"}})

	_, err := svc.Ingest(context.Background(), "local", path)
	if !common.HasCode(err, common.CodeUnsupportedFileType) {
		t.Errorf("override allow-list not enforced: %q", common.ErrorCode(err))
	}
}

func TestLocalSourceMissingFile(t *testing.T) {
	svc := newTestService(common.PipelineConfig{})
	_, err := svc.Ingest(context.Background(), "local", filepath.Join(t.TempDir(), "nope.pdf"))
	if !common.HasCode(err, common.CodeFileSource) {
		t.Errorf("error code = %q, want FILE_SOURCE_ERROR", common.ErrorCode(err))
	}
}

func TestLocalSourceDirectory(t *testing.T) {
	svc := newTestService(common.PipelineConfig{})
	_, err := svc.Ingest(context.Background(), "local", t.TempDir())
	if !common.HasCode(err, common.CodeFileSource) {
		t.Errorf("error code = %q, want FILE_SOURCE_ERROR", common.ErrorCode(err))
	}
}
