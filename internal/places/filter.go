package places

import (
	"strings"

	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// CuisineKeywords expands a cuisine preference into search keywords
var CuisineKeywords = map[string][]string{
	"italian":        {"italian", "pizza", "pasta", "trattoria"},
	"turkish":        {"turkish", "doner", "kebab"},
	"southasian":     {"pakistani", "indian", "bangladeshi", "desi", "biryani", "tandoori"},
	"american":       {"american", "burger", "bbq", "diner"},
	"japanese":       {"japanese", "sushi", "ramen"},
	"middle_eastern": {"middle eastern", "lebanese", "shawarma"},
}

// AvoidKeywords expands an avoid category into the words that reveal it
var AvoidKeywords = map[string][]string{
	"pork":            {"pork", "charcuterie"},
	"alcohol_forward": {"bar", "pub", "brewery", "wine"},
}

// CuisineQuery builds the text-search query for a list of liked cuisines.
// Unknown cuisines are searched for verbatim.
func CuisineQuery(likes []string) string {
	var tokens []string
	for _, c := range likes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if kw, ok := CuisineKeywords[strings.ToLower(c)]; ok {
			tokens = append(tokens, kw...)
		} else {
			tokens = append(tokens, c)
		}
	}
	return strings.Join(tokens, " ")
}

// ExpandAvoid turns avoid categories into concrete lowercase words
func ExpandAvoid(avoid []string) []string {
	var words []string
	for _, a := range avoid {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if kw, ok := AvoidKeywords[a]; ok {
			words = append(words, kw...)
		} else {
			words = append(words, a)
		}
	}
	return words
}

// ViolatesAvoid reports whether the restaurant's name, address or types mention an avoided word
func ViolatesAvoid(r models.Restaurant, avoid []string) bool {
	text := r.SearchText()
	for _, w := range ExpandAvoid(avoid) {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// MatchesRequired reports whether every required term appears in the restaurant's text
func MatchesRequired(r models.Restaurant, required []string) bool {
	text := r.SearchText()
	for _, term := range required {
		if !strings.Contains(text, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// DeriveDietTerms turns dietary restrictions into required and avoided search terms
func DeriveDietTerms(d models.Dietary) (required, avoid []string) {
	req := newTermSet()
	av := newTermSet()

	if d.Halal {
		req.add("halal")
		av.add("pork", "alcohol_forward")
	}
	if d.Vegetarian {
		req.add("vegetarian")
	}
	if d.Vegan {
		req.add("vegan")
	}
	if d.NutAllergy {
		av.add("peanut", "tree nut", "nut")
	}
	req.add(d.RequiredTerms...)
	av.add(d.Avoid...)

	return req.list, av.list
}

type termSet struct {
	seen map[string]bool
	list []string
}

func newTermSet() *termSet {
	return &termSet{seen: make(map[string]bool)}
}

func (s *termSet) add(terms ...string) {
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || s.seen[t] {
			continue
		}
		s.seen[t] = true
		s.list = append(s.list, t)
	}
}
