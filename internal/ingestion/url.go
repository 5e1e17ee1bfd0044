package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/constants"
	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// URLSource downloads files over HTTP(S) into the staging directory.
type URLSource struct {
	client *http.Client
}

func NewURLSource(timeout time.Duration) *URLSource {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &URLSource{client: &http.Client{Timeout: timeout}}
}

func (s *URLSource) Type() string { return constants.SourceURL }

func (s *URLSource) Fetch(ctx context.Context, reference, destDir string) (*entity.FileReference, error) {
	u, err := url.Parse(reference)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, common.NewFileSource(constants.SourceURL, reference, "not a valid http(s) URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
	if err != nil {
		return nil, common.NewFileSource(constants.SourceURL, reference, err.Error())
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, common.NewFileSource(constants.SourceURL, reference, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, common.NewFileSource(constants.SourceURL, reference,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	filename := path.Base(u.Path)
	if filename == "" || filename == "/" || filename == "." {
		filename = "download"
	}

	staged := path.Join(destDir, fmt.Sprintf("idp-%s-%s", uuid.NewString(), filename))
	out, err := os.Create(staged)
	if err != nil {
		return nil, common.NewFileSource(constants.SourceURL, reference, err.Error())
	}
	defer out.Close()
	size, err := io.Copy(out, resp.Body)
	if err != nil {
		os.Remove(staged)
		return nil, common.NewFileSource(constants.SourceURL, reference, err.Error())
	}

	mime, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	mime = strings.TrimSpace(mime)
	if mime == "" || mime == "application/octet-stream" {
		mime = constants.MIMETypeForPath(filename)
	}

	return &entity.FileReference{
		SourceType:      constants.SourceURL,
		SourceReference: reference,
		Filename:        filename,
		MIMEType:        mime,
		FileSizeBytes:   size,
		ContentPath:     staged,
	}, nil
}
