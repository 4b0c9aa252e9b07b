package main

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSearch folds s for matching: lower case, no diacritics, single spaces.
func NormalizeSearch(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// FilterStudents keeps the students matching every word of query.
// A word matches the name, the email, or the national ID with punctuation ignored.
func FilterStudents(students []Student, query string) []Student {
	tokens := strings.Fields(NormalizeSearch(query))
	if len(tokens) == 0 {
		return students
	}

	return lo.Filter(students, func(student Student, _ int) bool {
		text := NormalizeSearch(student.Name + " " + student.Email)
		nationalId := strings.ToLower(cleanNationalID(student.NationalId))
		return lo.EveryBy(tokens, func(token string) bool {
			if strings.Contains(text, token) {
				return true
			}
			cleaned := strings.ToLower(cleanNationalID(token))
			return cleaned != "" && strings.Contains(nationalId, cleaned)
		})
	})
}
