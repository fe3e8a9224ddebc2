package main

import "strings"

// Interpreter maps a free-text animation request to a motion name, an
// emotion name and an intensity scalar. It never fails: unmatched input
// degrades to idle/neutral/1.0.
type Interpreter interface {
	Interpret(text string) (motion, emotion string, intensity float64)
}

// KeywordInterpreter is the substring-matching strategy. Template names are
// checked in library definition order, emotions in modifier-table order and
// intensity adverbs in their fixed priority order; the first hit wins in
// each category. Motion matching also accepts simple inflections of the
// template name, so "waving" and "jumps" land on wave and jump.
type KeywordInterpreter struct {
	lib *TemplateLibrary
}

func newKeywordInterpreter(lib *TemplateLibrary) *KeywordInterpreter {
	return &KeywordInterpreter{lib: lib}
}

// motionForms lists the template name and its regular inflections. The
// e-drop and final-consonant-doubling rules cover the builtin set
// (wave -> waving, run -> running); irregular verbs are out of scope.
func motionForms(name string) []string {
	forms := []string{name, name + "s", name + "ed", name + "ing"}
	if strings.HasSuffix(name, "e") {
		stem := strings.TrimSuffix(name, "e")
		forms = append(forms, stem+"ing", stem+"ed")
	} else if len(name) > 0 {
		last := name[len(name)-1:]
		forms = append(forms, name+last+"ing", name+last+"ed")
	}
	return forms
}

func (ki *KeywordInterpreter) Interpret(text string) (string, string, float64) {
	text = strings.ToLower(text)

	motion := "idle"
motions:
	for _, name := range ki.lib.MotionNames() {
		for _, form := range motionForms(name) {
			if strings.Contains(text, form) {
				motion = name
				break motions
			}
		}
	}

	emotion := "neutral"
	for _, name := range ki.lib.EmotionNames() {
		if strings.Contains(text, name) {
			emotion = name
			break
		}
	}

	intensity := 1.0
	for _, iw := range intensityWords {
		if strings.Contains(text, iw.word) {
			intensity = iw.value
			break
		}
	}

	return motion, emotion, intensity
}
