package text

import (
	"errors"
	"testing"
)

func TestTextTransform(t *testing.T) {
	tests := []struct {
		tr   TextTransform
		in   string
		want string
	}{
		{TransformNone, "Main Street", "Main Street"},
		{TransformUppercase, "Main Street", "MAIN STREET"},
		{TransformLowercase, "Main Street", "main street"},
		{TransformCapitalize, "main street", "Main Street"},
	}
	for _, tt := range tests {
		if got := tt.tr.Apply(tt.in, "en"); got != tt.want {
			t.Errorf("Apply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTextTransform(t *testing.T) {
	if tr, ok := ParseTextTransform("UPPERCASE"); !ok || tr != TransformUppercase {
		t.Errorf("ParseTextTransform(UPPERCASE) = %v, %v", tr, ok)
	}
	if _, ok := ParseTextTransform("smallcaps"); ok {
		t.Error("unknown transform accepted")
	}
}

func TestParseAlign(t *testing.T) {
	for s, want := range map[string]Align{"": AlignCenter, "left": AlignLeft, "Right": AlignRight} {
		if got, ok := ParseAlign(s); !ok || got != want {
			t.Errorf("ParseAlign(%q) = %v, %v", s, got, ok)
		}
	}
	if _, ok := ParseAlign("justify"); ok {
		t.Error("unknown align accepted")
	}
}

func TestParametersValidate(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Fatalf("default parameters invalid: %v", err)
	}
	tests := []struct {
		name string
		edit func(*Parameters)
	}{
		{"no family", func(p *Parameters) { p.Family = "" }},
		{"zero size", func(p *Parameters) { p.Size = 0 }},
		{"huge size", func(p *Parameters) { p.Size = 5000 }},
		{"negative stroke", func(p *Parameters) { p.StrokeWidth = -1 }},
		{"negative lines", func(p *Parameters) { p.MaxLines = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.edit(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("Validate() = %v, want ErrInvalidParameters", err)
			}
		})
	}
}

func TestWrapWidth(t *testing.T) {
	p := DefaultParameters()
	if p.wrapWidth() != p.MaxLineWidth {
		t.Errorf("wrapWidth = %d", p.wrapWidth())
	}
	p.WordWrap = false
	if p.wrapWidth() != 0 {
		t.Errorf("wrapWidth without wrap = %d", p.wrapWidth())
	}
}
