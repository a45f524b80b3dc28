package sentiment

import (
	"context"
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/sentiscope/internal/models"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

// Score is the scorer output for one text.
type Score struct {
	Label        models.Label `json:"label"`
	Polarity     float64      `json:"polarity"`
	Subjectivity float64      `json:"subjectivity"`
}

type Scorer interface {
	Score(ctx context.Context, text string) (Score, error)
}

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders markdown and strips the resulting markup so
// only the readable words reach the lexicon. Input is escaped first, so
// angle-bracketed text the user wrote is kept as text rather than treated
// as an HTML tag.
func ConvertMarkdownToText(input string) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.UseXHTML,
	})
	escaped := html.EscapeString(RemoveLinks(input))
	output := blackfriday.Run([]byte(escaped),
		blackfriday.WithNoExtensions(),
		blackfriday.WithRenderer(renderer))

	plainText := html.UnescapeString(tagPattern.ReplaceAllString(string(output), ""))
	return strings.Join(strings.Fields(RemoveLinks(plainText)), " ")
}

// LabelFor is the only classification rule: the sign of the polarity.
func LabelFor(polarity float64) models.Label {
	switch {
	case polarity > 0:
		return models.LabelPositive
	case polarity < 0:
		return models.LabelNegative
	default:
		return models.LabelNeutral
	}
}

type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score never fails; the error is part of the Scorer contract for
// implementations backed by remote state.
func (v *VaderScorer) Score(_ context.Context, text string) (Score, error) {
	plainText := ConvertMarkdownToText(text)
	if plainText == "" {
		return Score{Label: models.LabelNeutral}, nil
	}

	sentiment := v.analyzer.PolarityScores(plainText)
	polarity := clamp(sentiment.Compound, -1, 1)
	subjectivity := clamp(sentiment.Positive+sentiment.Negative, 0, 1)

	return Score{
		Label:        LabelFor(polarity),
		Polarity:     polarity,
		Subjectivity: subjectivity,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
