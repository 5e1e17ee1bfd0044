package preprocessing

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"

	"github.com/fireflysoft/intellidoc/internal/common"
)

// FitzExtractor rasterizes document pages through MuPDF. It handles PDF
// and the raster image formats MuPDF can open directly.
type FitzExtractor struct {
	dpi int
}

func NewFitzExtractor(dpi int) *FitzExtractor {
	if dpi <= 0 {
		dpi = 300
	}
	return &FitzExtractor{dpi: dpi}
}

type extractedPage struct {
	Image  image.Image
	Path   string
	Width  int
	Height int
}

// ExtractPages renders every page of the file to a PNG under destDir and
// reports whether the document carries a selectable text layer.
func (e *FitzExtractor) ExtractPages(contentPath, destDir string, maxPages int) (pages []extractedPage, hasText bool, err error) {
	doc, err := fitz.New(contentPath)
	if err != nil {
		return nil, false, common.WrapAppError(common.CodePageExtraction,
			fmt.Sprintf("cannot open %s", filepath.Base(contentPath)), err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}

	batch := uuid.NewString()
	for i := 0; i < total; i++ {
		img, err := doc.ImageDPI(i, float64(e.dpi))
		if err != nil {
			return nil, false, common.WrapAppError(common.CodePageExtraction,
				fmt.Sprintf("cannot render page %d", i+1), err)
		}
		if txt, err := doc.Text(i); err == nil && len(txt) > 0 {
			hasText = true
		}

		path := filepath.Join(destDir, fmt.Sprintf("idp-page-%s-%04d.png", batch, i+1))
		f, err := os.Create(path)
		if err != nil {
			return nil, false, common.WrapAppError(common.CodePageExtraction,
				fmt.Sprintf("cannot stage page %d", i+1), err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return nil, false, common.WrapAppError(common.CodePageExtraction,
				fmt.Sprintf("cannot encode page %d", i+1), err)
		}
		f.Close()

		b := img.Bounds()
		pages = append(pages, extractedPage{Image: img, Path: path, Width: b.Dx(), Height: b.Dy()})
	}
	return pages, hasText, nil
}
