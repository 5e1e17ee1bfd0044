package classification

import (
	"context"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/fireflysoft/intellidoc/internal/entity"
)

// KeywordClassifier scores candidates by matching their sample keywords
// against OCR text from the pages. It is a cheap offline alternative to
// the vision model, used when no VLM is configured or as a fallback.
type KeywordClassifier struct {
	languages []string
}

func NewKeywordClassifier(languages ...string) *KeywordClassifier {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &KeywordClassifier{languages: languages}
}

func (k *KeywordClassifier) ClassifyDocument(ctx context.Context, pages []entity.PageImage, candidates []*entity.DocumentType) (*entity.ClassificationResult, int, error) {
	text, err := k.ocrPages(ctx, pages)
	if err != nil {
		return nil, 0, err
	}
	lower := strings.ToLower(text)

	result := &entity.ClassificationResult{Reasoning: "keyword match against OCR text"}
	for _, dt := range candidates {
		if len(dt.SampleKeywords) == 0 {
			continue
		}
		hits := 0
		var matched []string
		for _, kw := range dt.SampleKeywords {
			if kw = strings.TrimSpace(strings.ToLower(kw)); kw == "" {
				continue
			}
			if strings.Contains(lower, kw) {
				hits++
				matched = append(matched, kw)
			}
		}
		if hits == 0 {
			continue
		}
		// Keyword evidence is weak; cap well below VLM-grade confidence.
		conf := 0.85 * float64(hits) / float64(len(dt.SampleKeywords))
		result.Candidates = append(result.Candidates, entity.ClassificationCandidate{
			DocumentTypeID:   dt.ID,
			DocumentTypeCode: dt.Code,
			Confidence:       conf,
			Reasoning:        "matched keywords: " + strings.Join(matched, ", "),
		})
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Confidence > result.Candidates[j].Confidence
	})
	if len(result.Candidates) > 0 {
		result.BestMatch = &result.Candidates[0]
		result.Confidence = result.Candidates[0].Confidence
	}
	return result, 0, nil
}

func (k *KeywordClassifier) ocrPages(ctx context.Context, pages []entity.PageImage) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(k.languages...); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := client.SetImage(p.ImagePath); err != nil {
			return "", err
		}
		text, err := client.Text()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
