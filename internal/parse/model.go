package parse

import "time"

// Message is one chat message recovered from an exported transcript.
type Message struct {
	Timestamp time.Time // local clock, no zone information in the source
	Author    string
	Text      string
	Line      int // 1-based line of the header in the transcript
}

type Result struct {
	Messages  []Message
	Lines     int // physical lines read
	Fallbacks int // headers whose timestamp fell back to the current instant
}
