package chatbot

import (
	"bytes"
	"encoding/xml"

	"github.com/twilio/twilio-go/twiml"
)

// renderMessage is a seam for tests.
var renderMessage = func(body string) (string, error) {
	return twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: body}})
}

func fallbackMessage(body string) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString("<Response><Message>")
	_ = xml.EscapeText(&b, []byte(body))
	b.WriteString("</Message></Response>")
	return b.Bytes()
}
