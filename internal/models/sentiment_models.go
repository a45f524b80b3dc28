package models

import "time"

type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// SentimentResult is one scored text. ID and Timestamp are passed through
// from CSV input and are empty for single-text requests.
type SentimentResult struct {
	ID           string  `json:"id,omitempty" dynamodbav:"id,omitempty"`
	Text         string  `json:"text" dynamodbav:"text"`
	Sentiment    Label   `json:"sentiment" dynamodbav:"sentiment"`
	Polarity     float64 `json:"polarity" dynamodbav:"polarity"`
	Subjectivity float64 `json:"subjectivity" dynamodbav:"subjectivity"`
	Timestamp    string  `json:"timestamp,omitempty" dynamodbav:"timestamp,omitempty"`
}

type Statistics struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

func (s *Statistics) Add(label Label) {
	switch label {
	case LabelPositive:
		s.Positive++
	case LabelNegative:
		s.Negative++
	default:
		s.Neutral++
	}
}

func (s Statistics) Total() int {
	return s.Positive + s.Negative + s.Neutral
}

type BatchResult struct {
	Results    []SentimentResult `json:"results"`
	Statistics Statistics        `json:"statistics"`
}

type Source string

const (
	SourceText Source = "text"
	SourceCSV  Source = "csv"
)

// ArchivedBatch is what the result sinks receive after a successful analysis.
type ArchivedBatch struct {
	BatchID    string            `json:"batch_id"`
	Username   string            `json:"username"`
	Source     Source            `json:"source"`
	CreatedAt  time.Time         `json:"created_at"`
	Results    []SentimentResult `json:"results"`
	Statistics Statistics        `json:"statistics"`
}
