// Package sym defines canonical glyphs for orion system markers.
// These symbols are stable across CLI output and structured logs.
package sym

// System glyphs
const (
	Pulse      = "꩜" // heartbeat tick / scheduler activity
	PulseOpen  = "✿" // heartbeat started
	PulseClose = "❀" // heartbeat stopped
	DB         = "⊔" // persistence
	AM         = "≡" // configuration
	Proof      = "✦" // proof journal entry
)

// Names maps each glyph to a short name for text-only output
var Names = map[string]string{
	Pulse:      "pulse",
	PulseOpen:  "pulse-open",
	PulseClose: "pulse-close",
	DB:         "db",
	AM:         "am",
	Proof:      "proof",
}

// Name returns the text name of a glyph, or the glyph itself if unknown
func Name(glyph string) string {
	if n, ok := Names[glyph]; ok {
		return n
	}
	return glyph
}
