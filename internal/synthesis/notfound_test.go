package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundClassifierMatch(t *testing.T) {
	classifier := NewNotFoundClassifier(nil)

	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"canonical fallback", NotFoundAnswer, true},
		{"empty answer", "", true},
		{"whitespace only", "   \n\t", true},
		{"case insensitive", "The Documents DO NOT CONTAIN that detail.", true},
		{"phrase mid sentence", "Unfortunately I could not find any mention of a salary.", true},
		{"not mentioned", "That topic is not mentioned in the document.", true},
		{"substantive answer", "The candidate worked at Acme Corp for five years.", false},
		{"negation of different kind", "The contract does contain a termination clause.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Match(tt.answer))
		})
	}
}

func TestNotFoundClassifierCustomPhrases(t *testing.T) {
	classifier := NewNotFoundClassifier([]string{"nichts gefunden"})

	assert.True(t, classifier.Match("Leider nichts gefunden."))
	// Default phrases are replaced, not extended.
	assert.False(t, classifier.Match("The documents do not contain this."))
}
