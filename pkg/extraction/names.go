package extraction

import (
	"strings"
	"unicode"
)

// DefaultFamilyRoles is the role vocabulary used for role->name promotion.
// Overridable through ResolverConfig.
func DefaultFamilyRoles() []string {
	return []string{
		"папа", "мама", "отец", "мать", "брат", "сестра",
		"бабушка", "дедушка", "дед", "дядя", "тётя", "тетя",
		"сын", "дочь", "муж", "жена",
		"dad", "mom", "father", "mother", "brother", "sister",
		"grandma", "grandpa", "uncle", "aunt",
		"son", "daughter", "husband", "wife",
	}
}

type token struct {
	text string
	pos  int // rune offset of the first letter
}

// FindNearbyName scans text for a capitalized token within window runes of
// an occurrence of role (case-insensitive). The nearest such token wins.
// Pure function: the window is explicit so the heuristic is testable in
// isolation from persistence.
func FindNearbyName(text, role string, window int) (string, bool) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return "", false
	}

	tokens := tokenize(text)

	best := ""
	bestDist := window + 1
	for _, rt := range tokens {
		if strings.ToLower(rt.text) != role {
			continue
		}
		for _, nt := range tokens {
			if nt.pos == rt.pos {
				continue
			}
			if strings.EqualFold(nt.text, role) {
				continue
			}
			first := []rune(nt.text)[0]
			if !unicode.IsUpper(first) {
				continue
			}
			dist := nt.pos - rt.pos
			if dist < 0 {
				dist = -dist
			}
			if dist <= window && dist < bestDist {
				best = nt.text
				bestDist = dist
			}
		}
	}

	if best == "" {
		return "", false
	}
	return best, true
}

// nameVariants reports whether two extracted names plausibly denote the
// same person: either one is a case-insensitive substring of the other
// ("Анна" / "Анна Петровна"), or the shorter is a diminutive of the
// longer's first name ("Тася" / "Таиса Владимировна", "Витя" / "Виктор").
// The diminutive check requires a shared initial and the vowel-stripped
// stem of the shorter name appearing in order within the longer first
// name, which keeps unrelated names ("Саша" / "Александр") apart.
func nameVariants(a, b string) bool {
	la, lb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	if la == lb || strings.Contains(la, lb) || strings.Contains(lb, la) {
		return true
	}

	shorter, longer := la, lb
	if len([]rune(shorter)) > len([]rune(longer)) {
		shorter, longer = longer, shorter
	}
	return diminutiveOf(shorter, firstWord(longer))
}

func firstWord(s string) string {
	if i := strings.IndexFunc(s, func(r rune) bool { return r == ' ' }); i >= 0 {
		return s[:i]
	}
	return s
}

func diminutiveOf(short, full string) bool {
	stem := strings.TrimRightFunc(short, isVowel)
	stemRunes := []rune(stem)
	fullRunes := []rune(full)
	if len(stemRunes) < 3 || len(fullRunes) == 0 {
		return false
	}
	if stemRunes[0] != fullRunes[0] {
		return false
	}

	// The stem must appear in order within the full name.
	i := 0
	for _, r := range fullRunes {
		if r == stemRunes[i] {
			i++
			if i == len(stemRunes) {
				return true
			}
		}
	}
	return false
}

func isVowel(r rune) bool {
	return strings.ContainsRune("аеёиоуыэюяaeiouyь", r)
}

// tokenize splits text into letter runs with their rune offsets.
func tokenize(text string) []token {
	var tokens []token
	var current []rune
	start := 0

	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsLetter(r) || r == '-' {
			if len(current) == 0 {
				start = i
			}
			current = append(current, r)
			continue
		}
		if len(current) > 0 {
			tokens = append(tokens, token{text: string(current), pos: start})
			current = nil
		}
	}
	if len(current) > 0 {
		tokens = append(tokens, token{text: string(current), pos: start})
	}

	return tokens
}
