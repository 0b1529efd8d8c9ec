package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/voicenotes/pkg/dictation"
)

func TestParseLine(t *testing.T) {
	assert.Equal(t, event{kind: kindPartial, text: "hel"}, parseLine("partial hel"))
	assert.Equal(t, event{kind: kindFinal, text: "hello there"}, parseLine("final hello there\r"))
	assert.Equal(t, event{kind: kindError, text: "no-speech"}, parseLine("error no-speech"))
	assert.Equal(t, event{kind: kindError, text: "unknown"}, parseLine("error"))
	assert.Equal(t, event{kind: kindFinal, text: "just words"}, parseLine("just words"))
	assert.Equal(t, kindSkip, parseLine("   ").kind)
}

func TestTracker_ReplacesOpenHypothesis(t *testing.T) {
	var tr tracker
	steps := []struct {
		ev   event
		want []dictation.Segment
	}{
		{event{kindPartial, "hel"}, []dictation.Segment{{Transcript: "hel"}}},
		{event{kindPartial, "hello"}, []dictation.Segment{{Transcript: "hello"}}},
		{event{kindFinal, "hello there"}, []dictation.Segment{{Transcript: "hello there", Final: true}}},
		{event{kindPartial, "how"}, []dictation.Segment{
			{Transcript: "hello there", Final: true},
			{Transcript: " how"},
		}},
		{event{kindFinal, "how are you"}, []dictation.Segment{
			{Transcript: "hello there", Final: true},
			{Transcript: " how are you", Final: true},
		}},
	}
	for _, step := range steps {
		got, changed := tr.apply(step.ev)
		assert.True(t, changed)
		assert.Equal(t, step.want, got)
	}

	_, changed := tr.apply(event{kindFinal, "  "})
	assert.False(t, changed, "blank final with no open segment changes nothing")
}
