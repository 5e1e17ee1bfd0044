package ingestion

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// LocalSource reads files already on the local filesystem. No copy is
// made; the pipeline reads the file in place.
type LocalSource struct{}

func NewLocalSource() *LocalSource {
	return &LocalSource{}
}

func (s *LocalSource) Type() string { return constants.SourceLocal }

func (s *LocalSource) Fetch(_ context.Context, reference, _ string) (*entity.FileReference, error) {
	info, err := os.Stat(reference)
	if err != nil {
		return nil, common.NewFileSource(constants.SourceLocal, reference, err.Error())
	}
	if info.IsDir() {
		return nil, common.NewFileSource(constants.SourceLocal, reference, "path is a directory")
	}
	return &entity.FileReference{
		SourceType:      constants.SourceLocal,
		SourceReference: reference,
		Filename:        filepath.Base(reference),
		MIMEType:        constants.MIMETypeForPath(reference),
		FileSizeBytes:   info.Size(),
		ContentPath:     reference,
	}, nil
}
