package llm

import (
	"fmt"
	"strings"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// Prompt builders. Deterministic: built only from the supplied inputs, no
// hidden state, so the same domain request always dispatches the same text.

func segmentsPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You select highlight segments for short-form clips.\n")
	b.WriteString("From the transcript below, pick up to 5 self-contained highlights.\n")
	b.WriteString("Respond with ONLY a JSON array, no prose:\n")
	b.WriteString(`[{"start_ms":0,"end_ms":0,"title":"","keywords":[""]}]` + "\n\n")
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}

func editPlanPrompt(segments models.Segments) string {
	var b strings.Builder
	b.WriteString("You assemble a short-form video out of highlight segments.\n")
	b.WriteString("Order the clips for maximum retention and keep the total under 60 seconds.\n")
	b.WriteString("Respond with ONLY a JSON object, no prose:\n")
	b.WriteString(`{"strategy":"","total_duration_ms":0,"clips":[{"order_index":0,"start_ms":0,"end_ms":0}]}` + "\n\n")
	b.WriteString("Segments:\n")
	for i, s := range segments {
		fmt.Fprintf(&b, "%d. [%dms-%dms] %s\n", i, s.StartMs, s.EndMs, s.Title)
	}
	return b.String()
}

func metadataPrompt(transcript string, segments models.Segments) string {
	var b strings.Builder
	b.WriteString("You write publish metadata for a short educational clip.\n")
	b.WriteString("Respond with ONLY a JSON object, no prose:\n")
	b.WriteString(`{"title":"","description":"","tags":[""],"category":"","difficulty":""}` + "\n\n")
	if len(segments) > 0 {
		b.WriteString("Highlights:\n")
		for _, s := range segments {
			fmt.Fprintf(&b, "- %s\n", s.Title)
		}
		b.WriteString("\n")
	}
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}

func searchQueriesPrompt(topic string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Produce %d video search queries for the topic %q.\n", n, topic)
	b.WriteString("Respond with ONLY a JSON array of strings, no prose.\n")
	return b.String()
}

func evaluationPrompt(candidates []clients.VideoCandidate) string {
	var b strings.Builder
	b.WriteString("You rate video candidates for clip-worthiness.\n")
	b.WriteString("Rate EVERY candidate below, referencing it by its index.\n")
	b.WriteString("Respond with ONLY a JSON array, no prose:\n")
	b.WriteString(`[{"candidate_index":0,"recommendation":"YES|MAYBE|NO","score":0,"reasoning":""}]` + "\n\n")
	b.WriteString("Candidates:\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %q by %s (%d views): %s\n", i, c.Title, c.Channel, c.ViewCount, c.Description)
	}
	return b.String()
}

func quizPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You write a comprehension quiz for an educational clip.\n")
	b.WriteString("Produce 3 multiple-choice questions grounded in the transcript.\n")
	b.WriteString("Respond with ONLY a JSON object, no prose:\n")
	b.WriteString(`{"questions":[{"question":"","options":["",""],"answer_index":0,"explanation":""}]}` + "\n\n")
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}

func subScoresPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You rate the clip potential of a video from its transcript.\n")
	b.WriteString("Rate each dimension 0-100. Respond with ONLY a JSON object, no prose:\n")
	b.WriteString(`{"content_relevance":0,"audio_clarity":0,"visual_quality":0,"educational_value":0}` + "\n\n")
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String()
}
