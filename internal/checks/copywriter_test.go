package checks

import (
	"strings"
	"testing"

	"github.com/lance13c/lpqa/internal/types"
)

func TestClassifyCase(t *testing.T) {
	tests := map[string]headingCase{
		"Get a free solar quote":      caseSentence,
		"Get a Free Solar Quote":      caseTitle,
		"Why Acme is the one for you": caseSentence,
		"SAVE ON POWER":               caseUpper,
		"Hello":                       caseOther,
		"why lower-case openers fail": caseOther,
	}
	for in, want := range tests {
		if got := classifyCase(in); got != want {
			t.Errorf("classifyCase(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestCheckCapitalisation(t *testing.T) {
	runCases(t, checkCapitalisation, []verdictCase{
		{name: "consistent sentence case", want: types.StatusPass},
		{name: "mixed", want: types.StatusWarn, substr: "Save Money Today", mutate: func(in *Input) {
			in.Desktop.Headings = append(in.Desktop.Headings, types.Heading{Level: 2, Text: "Save Money Today"})
		}},
		{name: "single heading", want: types.StatusSkip, mutate: func(in *Input) {
			in.Desktop.Headings = in.Desktop.Headings[:1]
		}},
	})
}

func TestCheckMetaTitle(t *testing.T) {
	title := func(s string) func(in *Input) {
		return func(in *Input) { in.Desktop.Title = s }
	}
	runCases(t, checkMetaTitle, []verdictCase{
		{name: "good title with og", want: types.StatusPass, substr: "og:title"},
		{name: "missing", want: types.StatusFail, mutate: title("")},
		{name: "too short", want: types.StatusWarn, substr: "only 4", mutate: title("Acme")},
		{name: "too long", want: types.StatusWarn, substr: "keep to 60", mutate: title(strings.Repeat("Solar ", 12))},
		{name: "placeholder", want: types.StatusWarn, substr: "placeholder", mutate: title("Untitled landing page")},
	})
}

func TestCheckCTAWording(t *testing.T) {
	runCases(t, checkCTAClarity, []verdictCase{
		{name: "specific", want: types.StatusPass},
		{name: "vague", want: types.StatusWarn, substr: "Click here", mutate: func(in *Input) {
			in.Mobile.CTAs = []types.CTA{{Text: "Click here"}, {Text: "Submit"}}
		}},
		{name: "none", want: types.StatusWarn, mutate: func(in *Input) {
			in.Mobile.CTAs = nil
		}},
	})
	runCases(t, checkCTAVariety, []verdictCase{
		{name: "two texts", want: types.StatusPass, substr: "2 distinct"},
		{name: "too many", want: types.StatusWarn, substr: "6 distinct", mutate: func(in *Input) {
			for _, s := range []string{"Call now", "Book a visit", "See plans", "Get started"} {
				in.Desktop.CTAs = append(in.Desktop.CTAs, types.CTA{Text: s})
			}
		}},
		{name: "case and spacing collapse", want: types.StatusPass, substr: "2 distinct", mutate: func(in *Input) {
			in.Desktop.CTAs = append(in.Desktop.CTAs, types.CTA{Text: "GET MY  QUOTE"})
		}},
	})
}

func TestCheckFormLabelsAndSpelling(t *testing.T) {
	runCases(t, checkFormLabels, []verdictCase{
		{name: "labelled", want: types.StatusPass, substr: "all 2"},
		{name: "placeholder only", want: types.StatusWarn, substr: "placeholder only", mutate: func(in *Input) {
			in.Desktop.Forms[0].Fields[1].Label = ""
		}},
		{name: "no form", want: types.StatusSkip, reason: types.SkipNotApplicable, mutate: func(in *Input) {
			in.Desktop.Forms = nil
		}},
	})
	runCases(t, checkSpelling, []verdictCase{
		{name: "nothing obvious", want: types.StatusSkip, reason: types.SkipUnautomatable},
		{name: "known misspellings", want: types.StatusWarn, substr: "recieve, seperate", mutate: func(in *Input) {
			in.Desktop.VisibleText += " Recieve a seperate quote. Recieve it today."
		}},
	})
}

func TestCheckCopyParity(t *testing.T) {
	runCases(t, checkCopyParity, []verdictCase{
		{name: "same headings", want: types.StatusPass},
		{name: "heading dropped on mobile", want: types.StatusWarn, substr: "How the rebate works", mutate: func(in *Input) {
			in.Mobile.Headings = in.Mobile.Headings[:2]
		}},
	})
}
