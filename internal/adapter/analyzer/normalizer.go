package analyzer

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"docsearch/internal/domain"
)

// RuleSpec is an uncompiled pattern substitution.
type RuleSpec struct {
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

// Rule is a compiled pattern substitution.
type Rule struct {
	pattern *regexp.Regexp
	replace string
}

// String returns the source pattern.
func (r Rule) String() string {
	return r.pattern.String()
}

// CompileRules compiles specs in order. Replacements use backslash group
// references (\1) the way the rule files are written; they are translated to
// the regexp package's ${1} form.
func CompileRules(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: bad replacement pattern %q: %v", domain.ErrConfiguration, spec.Pattern, err)
		}
		rules = append(rules, Rule{pattern: re, replace: translateReplacement(spec.Replace)})
	}
	return rules, nil
}

// MustCompileRules is like CompileRules but panics on a bad pattern.
func MustCompileRules(specs ...RuleSpec) []Rule {
	rules, err := CompileRules(specs)
	if err != nil {
		panic(err)
	}
	return rules
}

// Clean applies every rule in order over the whole input, then trims
// surrounding whitespace. Each rule sees the output of the previous one.
func Clean(word string, rules []Rule) string {
	for _, r := range rules {
		word = r.pattern.ReplaceAllString(word, r.replace)
	}
	return strings.TrimSpace(word)
}

// LoadRules reads an ordered replacement table from a YAML file. Two layouts
// are accepted:
//
//	replace:
//	  "\\s+": " "
//	  "[^a-z0-9 ]": ""
//
// or a list of {pattern, replace} pairs under the same key. Mapping order is
// the application order.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read rules file: %v", domain.ErrConfiguration, err)
	}
	specs, err := ParseRules(data)
	if err != nil {
		return nil, err
	}
	return CompileRules(specs)
}

// ParseRules decodes the YAML rule layouts accepted by LoadRules.
func ParseRules(data []byte) ([]RuleSpec, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: parse rules: %v", domain.ErrConfiguration, err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: rules file must be a mapping with a \"replace\" key", domain.ErrConfiguration)
	}

	var table *yaml.Node
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "replace" {
			table = doc.Content[i+1]
			break
		}
	}
	if table == nil {
		return nil, nil
	}

	switch table.Kind {
	case yaml.MappingNode:
		specs := make([]RuleSpec, 0, len(table.Content)/2)
		for i := 0; i+1 < len(table.Content); i += 2 {
			specs = append(specs, RuleSpec{
				Pattern: table.Content[i].Value,
				Replace: table.Content[i+1].Value,
			})
		}
		return specs, nil
	case yaml.SequenceNode:
		var specs []RuleSpec
		if err := table.Decode(&specs); err != nil {
			return nil, fmt.Errorf("%w: decode rule list: %v", domain.ErrConfiguration, err)
		}
		return specs, nil
	default:
		return nil, fmt.Errorf("%w: \"replace\" must be a mapping or a list", domain.ErrConfiguration)
	}
}

func translateReplacement(s string) string {
	if !strings.ContainsAny(s, `\$`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '$':
			b.WriteString("$$")
		case c == '\\' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9':
			b.WriteString("${")
			b.WriteByte(s[i+1])
			b.WriteString("}")
			i++
		case c == '\\' && i+1 < len(s) && s[i+1] == '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
