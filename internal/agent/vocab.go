package agent

import (
	"strings"
	"unicode"
)

// Confirmation vocabulary, English plus Roman Urdu/Hindi. The sets mirror
// the phrases the assistant has always accepted; matching is against the
// whole normalized utterance.
var affirmativeSet = map[string]struct{}{
	"yes": {}, "yeah": {}, "yep": {}, "yup": {}, "sure": {}, "ok": {}, "okay": {},
	"do it": {}, "go ahead": {}, "confirm": {}, "confirmed": {}, "delete it": {},
	"yes please": {}, "please do": {},
	"haan": {}, "han": {}, "ji": {}, "g": {}, "ji haan": {}, "haan ji": {},
	"karo": {}, "kar do": {}, "kardo": {}, "delete karo": {}, "hata do": {},
	"hatao": {}, "theek hai": {}, "theek": {}, "bilkul": {},
}

var negativeSet = map[string]struct{}{
	"no": {}, "nope": {}, "nah": {}, "cancel": {}, "stop": {}, "dont": {},
	"do not": {}, "never mind": {}, "nevermind": {}, "leave it": {},
	"nahi": {}, "nahin": {}, "nai": {}, "mat karo": {}, "mat kro": {},
	"rehne do": {}, "cancel karo": {}, "nahi karo": {},
}

// Intent keyword tables for the rule classifier. Multi-word phrases are
// checked before single words.
var (
	deleteKeywords = []string{
		"delete", "remove", "erase", "discard", "hatao", "hata do", "mita do",
		"mitao", "delete karo", "remove karo",
	}
	completeKeywords = []string{
		"complete", "completed", "done", "finish", "finished", "mark off",
		"check off", "ho gaya", "hogaya", "ho gya", "mukammal", "kar liya",
		"khatam",
	}
	updateKeywords = []string{
		"update", "rename", "change", "modify", "edit", "badlo", "badal do",
	}
	addKeywords = []string{
		"add", "create", "remember", "note down", "note", "new task",
		"yaad rakhna", "jodo", "banao", "likho",
	}
	listKeywords = []string{
		"list", "show", "display", "what are my", "what's on my",
		"whats on my", "see my", "dikhao", "batao", "sab tasks",
	}
)

// Filler words stripped from utterances before fuzzy matching; they carry
// no information about which task is meant.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "my": {}, "me": {}, "i": {}, "to": {},
	"of": {}, "for": {}, "from": {}, "in": {}, "on": {}, "it": {},
	"task": {}, "tasks": {}, "todo": {}, "todos": {}, "item": {},
	"list": {}, "please": {}, "pls": {}, "can": {}, "you": {}, "kindly": {},
	"wala": {}, "wali": {}, "vala": {}, "mera": {}, "meri": {}, "mere": {},
	"ko": {}, "ka": {}, "ki": {}, "se": {},
}

// normalize lowercases, strips punctuation and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// punctuation dropped
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripStopwords removes filler words from a normalized string.
func stripStopwords(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if _, ok := stopwords[f]; ok {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// Confirmation is the classification of an utterance while a confirmation
// is pending.
type Confirmation int

const (
	ConfirmUnrelated Confirmation = iota
	ConfirmAffirmative
	ConfirmNegative
)

// ClassifyConfirmation matches the whole utterance against the fixed
// confirmation vocabulary. Anything else is unrelated and cancels the
// pending slot.
func ClassifyConfirmation(utterance string) Confirmation {
	n := normalize(utterance)
	if n == "" {
		return ConfirmUnrelated
	}
	if _, ok := affirmativeSet[n]; ok {
		return ConfirmAffirmative
	}
	if _, ok := negativeSet[n]; ok {
		return ConfirmNegative
	}
	return ConfirmUnrelated
}
