package extract

import (
	"regexp"
)

// Rule maps one surface pattern to a relation label. The pattern has exactly
// two capture groups, subject then object.
type Rule struct {
	Pattern *regexp.Regexp
	Label   string
}

// NewRule compiles pattern anchored at the start of the sentence.
func NewRule(pattern, label string) Rule {
	return Rule{
		Pattern: regexp.MustCompile(`^(?:` + pattern + `)`),
		Label:   label,
	}
}

// RuleSet is an ordered rule list. Order is priority.
type RuleSet []Rule

// Match is the result of a successful rule evaluation.
type Match struct {
	Subject string
	Object  string
	Label   string
}

// FirstMatch evaluates the rules in order and returns the captures of the
// first rule whose pattern matches sentence. Later rules are never tried,
// even if the winning match is later discarded by the caller.
func (rs RuleSet) FirstMatch(sentence string) (Match, bool) {
	for _, r := range rs {
		m := r.Pattern.FindStringSubmatch(sentence)
		if m == nil {
			continue
		}
		return Match{Subject: m[1], Object: m[2], Label: r.Label}, true
	}
	return Match{}, false
}

// EnglishRules are matched against the lowercased sentence.
var EnglishRules = RuleSet{
	NewRule(`(.+?) is a type of (.+)`, "is_a"),
	NewRule(`(.+?) is a kind of (.+)`, "is_a"),
	NewRule(`(.+?) is a form of (.+)`, "is_a"),
	NewRule(`(.+?) is a (.+)`, "is_a"),
	NewRule(`(.+?) refers to (.+)`, "refers_to"),
	NewRule(`(.+?) is defined as (.+)`, "defined_as"),
	NewRule(`(.+?) is described as (.+)`, "defined_as"),
	NewRule(`(.+?) consists of (.+)`, "consists_of"),
	NewRule(`(.+?) contains (.+)`, "contains"),
	NewRule(`(.+?) includes (.+)`, "includes"),
	NewRule(`(.+?) depends on (.+)`, "depends_on"),
	NewRule(`(.+?) supports (.+)`, "supports"),
	NewRule(`(.+?) is related to (.+)`, "related_to"),
	NewRule(`(.+?) relates to (.+)`, "related_to"),
	NewRule(`(.+?) has (.+)`, "has"),
	NewRule(`(.+?) uses (.+)`, "used_in"),
	NewRule(`(.+?) applies (.+)`, "applies"),
	NewRule(`(.+?) requires (.+)`, "requires"),
	NewRule(`(.+?) manages (.+)`, "manages"),
	NewRule(`(.+?) enables (.+)`, "enables"),
	NewRule(`(.+?) represents (.+)`, "represents"),
	NewRule(`(.+?) stores (.+)`, "stores"),
	NewRule(`(.+?) processes (.+)`, "processes"),
	NewRule(`(.+?) handles (.+)`, "handles"),
}

// ChineseRules are matched against the sentence as segmented. A group at
// the end of a pattern runs to the end of the sentence.
var ChineseRules = RuleSet{
	NewRule(`(.+?)是(.+?)的一种`, "是"),
	NewRule(`(.+?)称为(.+)`, "称为"),
	NewRule(`(.+?)的定义是(.+)`, "定义为"),
	NewRule(`(.+?)叫做(.+)`, "叫做"),
	NewRule(`(.+?)依赖于(.+)`, "依赖"),
	NewRule(`(.+?)依赖(.+)`, "依赖"),
	NewRule(`(.+?)包括(.+)`, "包括"),
	NewRule(`(.+?)包含(.+)`, "包含"),
	NewRule(`(.+?)属于(.+)`, "属于"),
	NewRule(`(.+?)使用(.+)`, "使用"),
	NewRule(`(.+?)由(.+?)构成`, "构成"),
	NewRule(`(.+?)提供(.+)`, "提供"),
	NewRule(`(.+?)管理(.+)`, "管理"),
	NewRule(`(.+?)存储(.+)`, "存储"),
	NewRule(`(.+?)实现(.+)`, "实现"),
	NewRule(`(.+?)与(.+?)通信`, "通信"),
	NewRule(`(.+?)与(.+?)连接`, "连接"),
	NewRule(`(.+?)主要解决(.+)`, "解决"),
	NewRule(`(.+?)提高(.+)`, "提高"),
	NewRule(`(.+?)适用于(.+)`, "适用于"),
	NewRule(`(.+?)用于(.+)`, "用于"),
	NewRule(`(.+?)能够发现(.+)`, "发现"),
	NewRule(`(.+?)是一种(.+)`, "是"),
	NewRule(`(.+?)是一类(.+)`, "是"),
	NewRule(`(.+?)通过(.+?)实现`, "实现"),
	NewRule(`(.+?)基于(.+)`, "基于"),
	NewRule(`(.+?)利用(.+)`, "利用"),
}

// dependencyVerbs are head lemmas whose nominal subject and direct object
// form a relation. The label is fixed per verb.
var dependencyVerbs = map[string]string{
	"use":     "used_in",
	"apply":   "applies",
	"enforce": "applies",
}

var dependencyObjectDeps = map[string]bool{
	"dobj": true,
	"attr": true,
}
