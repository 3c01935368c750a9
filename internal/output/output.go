// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.

// Package output prints probe results to stdout, either as human-readable
// lines or as a single JSON document, and writes context artifacts to disk.
package output

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// previewBytes is how much of a decoded context is shown as hex in text mode.
const previewBytes = 32

// Report is the machine-readable summary of a run.
type Report struct {
	Stage         string `json:"stage"`
	SessionID     string `json:"sessionId,omitempty"`
	CryptoContext string `json:"cryptoContext,omitempty"`
	DecodedBytes  *int   `json:"decodedBytes,omitempty"`
	DecodedSHA256 string `json:"decodedSha256,omitempty"`
	Artifact      string `json:"artifact,omitempty"`
	Step          string `json:"failedStep,omitempty"`
	Error         string `json:"error,omitempty"`

	// Response is the full getCryptoContext body, kept for inspection.
	Response json.RawMessage `json:"response,omitempty"`
}

// SetDecoded records the decoded length and digest.
func (r *Report) SetDecoded(b []byte) {
	n := len(b)
	sum := sha256.Sum256(b)
	r.DecodedBytes = &n
	r.DecodedSHA256 = hex.EncodeToString(sum[:])
}

// Printer writes step headers and values as they happen in text mode, and
// the final Report in JSON mode.
type Printer struct {
	w      io.Writer
	format string

	header lipgloss.Style
	key    lipgloss.Style
	faint  lipgloss.Style
}

// NewPrinter builds a printer for w. color is "auto", "always" or "never";
// auto enables styling only when w is a terminal.
func NewPrinter(w io.Writer, format, color string) *Printer {
	r := lipgloss.NewRenderer(w)
	if useColor(w, color) {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w:      w,
		format: format,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		key:    r.NewStyle().Foreground(lipgloss.Color("3")),
		faint:  r.NewStyle().Faint(true),
	}
}

func useColor(w io.Writer, color string) bool {
	switch color {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Printer) JSON() bool { return p.format == FormatJSON }

// Step prints a step header such as "[create session]".
func (p *Printer) Step(title string) {
	if p.JSON() {
		return
	}
	fmt.Fprintln(p.w, p.header.Render(title))
}

// Value prints key=value.
func (p *Printer) Value(key, value string) {
	if p.JSON() {
		return
	}
	fmt.Fprintf(p.w, "%s=%s\n", p.key.Render(key), value)
}

// Note prints a free-form, de-emphasised line.
func (p *Printer) Note(msg string) {
	if p.JSON() {
		return
	}
	fmt.Fprintln(p.w, p.faint.Render(msg))
}

// Decoded prints the digest and a hex preview of a decoded context.
func (p *Printer) Decoded(b []byte) {
	if p.JSON() {
		return
	}
	sum := sha256.Sum256(b)
	p.Value("decoded_sha256", hex.EncodeToString(sum[:]))
	preview := hex.EncodeToString(b[:min(len(b), previewBytes)])
	if len(b) > previewBytes {
		preview += "..."
	}
	p.Value("decoded_hex", preview)
}

// Finish emits the report in JSON mode and does nothing in text mode, where
// everything has already been printed.
func (p *Printer) Finish(r Report) error {
	if !p.JSON() {
		return nil
	}
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
