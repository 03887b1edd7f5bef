// Package classifier provides the keyword family tables.
package classifier

import "regexp"

// family is one scored keyword group. Each pattern that matches the user
// text adds the family weight once; the tag is pushed once per family.
type family struct {
	tag      string
	weight   float64
	patterns []*regexp.Regexp
}

func res(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile("(?i)"+p))
	}
	return out
}

// complexFamilies raise the score. Signals that need real-world data
// (search, recommendation, real-time, shopping) weigh the most: a small
// local model cannot serve them at all.
var complexFamilies = []family{
	{tag: "explanation", weight: 0.15, patterns: res(`\bexplain`, `\bdescribe`, `\belaborate`)},
	{tag: "implementation", weight: 0.20, patterns: res(`\bimplement`, `\bcreate\b`, `\bbuild\b`, `\bdevelop`)},
	{tag: "refactoring", weight: 0.20, patterns: res(`\brefactor`, `\boptimize`, `\bimprove`, `\brestructure`)},
	{tag: "debugging", weight: 0.15, patterns: res(`\bdebug`, `\bfix\b`, `\bsolve\b`, `\btroubleshoot`)},
	{tag: "analysis", weight: 0.15, patterns: res(`\banalyze`, `\bcompare`, `\bevaluate`, `\breview`)},
	{tag: "reasoning", weight: 0.10, patterns: res(`\bwhy\b`, `\bhow does\b`, `\bwhat causes\b`)},
	{tag: "detail-request", weight: 0.15, patterns: res(`\bstep by step\b`, `\bin detail\b`, `\bthoroughly\b`)},
	{tag: "generation", weight: 0.15, patterns: res(`\b(write|generate|compose)\s+\w+`)},
	{tag: "search", weight: 0.35, patterns: res(`\bfind\b`, `\bsearch\b`, `\blook up\b`, `\bgoogle\b`, `\bbrowse\b`)},
	{tag: "recommendation", weight: 0.30, patterns: res(`\brecommend`, `\bsuggest`, `\bbest\b`, `\btop\b`, `\bhighest rated\b`)},
	{tag: "real-time", weight: 0.30, patterns: res(`\blatest\b`, `\brecent`, `\bcurrent`, `\btoday\b`, `\bnews\b`, `\bprice`)},
	{tag: "shopping", weight: 0.25, patterns: res(`\bbuy\b`, `\bpurchase`, `\border\b`, `\bshop`, `\bdeal\b`, `\bdiscount`)},
	{tag: "planning", weight: 0.20, patterns: res(`\bsummarize`, `\bplan\b`, `\bdesign`, `\barchitect`)},
	{tag: "assistance", weight: 0.10, patterns: res(`\bhelp me\b`, `\bassist`, `\bguide\b`)},
}

// simpleFamilies lower the score. These are prompts the local tool model
// handles reliably; each family matches at most once.
var simpleFamilies = []family{
	{tag: "file-read", weight: -0.25, patterns: res(`\b(read|cat|show|display|print)\b.*\bfile\b`)},
	{tag: "directory", weight: -0.20, patterns: res(`\blist\b|\bls\b|\bdir\b`)},
	{tag: "command", weight: -0.10, patterns: res(`\brun\b|\bexecute\b|\bexec\b`)},
	{tag: "confirmation", weight: -0.35, patterns: res(`^(yes|no|ok|okay|sure|confirm|yep|nah)\s*[.!?]?$`)},
	{tag: "greeting", weight: -0.30, patterns: res(`^(hello|hi|hey|thanks|thank you)\s*[.!?]?$`)},
}
