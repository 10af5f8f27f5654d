// Package chatbot turns inbound messaging-gateway payloads into reply text
// and wraps that text in TwiML for the gateway.
package chatbot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/agritrust/internal/logging"
)

const WelcomeText = "👋 Welcome to *AgriTrust Nigeria*!\n\n" +
	"Please send a photo 📸 of your crop to get an instant AI valuation."

const analysisFailedText = "⚠️ Sorry, we could not value that photo. Please try again in a moment."

// InboundMessage is the subset of the gateway form payload the bot reads.
type InboundMessage struct {
	From     string
	Body     string
	NumMedia string
	MediaURL string
}

// MediaCount parses NumMedia. Anything that is not a positive integer
// counts as zero.
func (m InboundMessage) MediaCount() int {
	n, err := strconv.Atoi(strings.TrimSpace(m.NumMedia))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

type Analysis struct {
	Grade      string
	Price      string
	TokenValue string
	MintURL    string
}

// Analyzer values a crop photo.
type Analyzer interface {
	Analyze(ctx context.Context, mediaURL string) (Analysis, error)
}

// MockAnalyzer returns the same valuation for every photo.
type MockAnalyzer struct{}

func (MockAnalyzer) Analyze(context.Context, string) (Analysis, error) {
	return Analysis{
		Grade:      "Grade A",
		Price:      "₦12,000",
		TokenValue: "50 AGRI",
		MintURL:    "https://your-webapp.com/mint?grade=A&price=12000",
	}, nil
}

func AnalysisText(a Analysis) string {
	return fmt.Sprintf("🍅 *AgriTrust Analysis*\n"+
		"----------------\n"+
		"✅ *Quality:* %s\n"+
		"💰 *Est. Price:* %s\n"+
		"----------------\n"+
		"Tap below to mint & sell on Blockchain: 👇\n"+
		"%s", a.Grade, a.Price, a.MintURL)
}

type Responder struct {
	analyzer Analyzer
	log      logging.Logger
}

func NewResponder(analyzer Analyzer, log logging.Logger) *Responder {
	if analyzer == nil {
		analyzer = MockAnalyzer{}
	}
	return &Responder{analyzer: analyzer, log: log.With("module", "chatbot")}
}

// Respond picks the reply text for msg. It holds no state between calls.
func (r *Responder) Respond(ctx context.Context, msg InboundMessage) string {
	r.log.Info(ctx, "message received", "from", msg.From)

	if msg.MediaCount() < 1 {
		return WelcomeText
	}

	r.log.Info(ctx, "analyzing image", "media_url", msg.MediaURL)
	a, err := r.analyzer.Analyze(ctx, msg.MediaURL)
	if err != nil {
		r.log.Error(ctx, "analysis failed", "error", err)
		return analysisFailedText
	}
	r.log.Debug(ctx, "analysis done", "grade", a.Grade, "price", a.Price, "token_value", a.TokenValue)

	return AnalysisText(a)
}

// Reply returns the TwiML document answering msg.
func (r *Responder) Reply(ctx context.Context, msg InboundMessage) []byte {
	text := r.Respond(ctx, msg)

	doc, err := renderMessage(text)
	if err != nil {
		r.log.Error(ctx, "twiml encoding failed", "error", err)
		return fallbackMessage(text)
	}
	return []byte(doc)
}
