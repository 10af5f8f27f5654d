package chatbot

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/agritrust/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func parseReply(t *testing.T, b []byte) string {
	t.Helper()
	var r twimlResponse
	require.NoError(t, xml.Unmarshal(b, &r), string(b))
	return r.Message
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, string) (Analysis, error) {
	return Analysis{}, errors.New("model offline")
}

func TestMediaCount(t *testing.T) {
	tests := map[string]int{
		"":    0,
		"0":   0,
		"1":   1,
		" 3 ": 3,
		"-2":  0,
		"abc": 0,
		"1.5": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, InboundMessage{NumMedia: in}.MediaCount(), "NumMedia=%q", in)
	}
}

func TestRespond_WelcomeWithoutMedia(t *testing.T) {
	r := NewResponder(nil, logging.Nop{})

	for _, n := range []string{"0", "", "garbage", "-1"} {
		got := r.Respond(context.Background(), InboundMessage{From: "whatsapp:+234", Body: "hi", NumMedia: n})
		assert.Equal(t, WelcomeText, got)
	}
}

func TestRespond_AnalysisWithMedia(t *testing.T) {
	r := NewResponder(MockAnalyzer{}, logging.Nop{})

	got := r.Respond(context.Background(), InboundMessage{NumMedia: "1", MediaURL: "https://api.twilio.com/m/1"})

	want := "🍅 *AgriTrust Analysis*\n" +
		"----------------\n" +
		"✅ *Quality:* Grade A\n" +
		"💰 *Est. Price:* ₦12,000\n" +
		"----------------\n" +
		"Tap below to mint & sell on Blockchain: 👇\n" +
		"https://your-webapp.com/mint?grade=A&price=12000"
	assert.Equal(t, want, got)
}

func TestRespond_AnalyzerError(t *testing.T) {
	r := NewResponder(failingAnalyzer{}, logging.Nop{})

	got := r.Respond(context.Background(), InboundMessage{NumMedia: "2"})
	assert.Equal(t, analysisFailedText, got)
}

func TestReply_IsTwiML(t *testing.T) {
	r := NewResponder(nil, logging.Nop{})

	b := r.Reply(context.Background(), InboundMessage{NumMedia: "1"})
	assert.True(t, strings.HasPrefix(string(b), "<?xml"))
	msg := parseReply(t, b)
	assert.Contains(t, msg, "Grade A")
	assert.Contains(t, msg, "grade=A&price=12000")
}

func TestReply_FallbackOnEncodeError(t *testing.T) {
	orig := renderMessage
	defer func() { renderMessage = orig }()
	renderMessage = func(string) (string, error) { return "", errors.New("encode failed") }

	r := NewResponder(nil, logging.Nop{})
	b := r.Reply(context.Background(), InboundMessage{NumMedia: "1"})

	msg := parseReply(t, b)
	assert.Equal(t, AnalysisText(Analysis{Grade: "Grade A", Price: "₦12,000", MintURL: "https://your-webapp.com/mint?grade=A&price=12000"}), msg)
	assert.Contains(t, string(b), "&amp;price=12000")
}
