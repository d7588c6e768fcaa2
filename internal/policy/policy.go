// Package policy declares, per department, which level folders are listed and
// what shape the folder hierarchy below the department has.
package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/folderpath"
)

// LevelKind tags one layer of a department's hierarchy.
type LevelKind string

const (
	KindLevel    LevelKind = "level"
	KindSubject  LevelKind = "subject"
	KindSemester LevelKind = "semester"
	KindSession  LevelKind = "session"
)

// DefaultShape is the hierarchy below a department unless overridden.
var DefaultShape = []LevelKind{KindLevel, KindSemester, KindSession}

// DefaultLevels is the numeric level set used when a department has no override.
var DefaultLevels = []int{100, 200, 300, 400, 500}

var numberPattern = regexp.MustCompile(`\d+`)

// LevelRule is one allow-list entry: either a numeric level or a free-text name.
type LevelRule struct {
	Number int
	Text   string
}

// IsNumeric reports whether the rule matches by embedded number.
func (r LevelRule) IsNumeric() bool {
	return r.Text == ""
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (r *LevelRule) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		// "300" in quotes is still a numeric level.
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*r = LevelRule{Number: n}
			return nil
		}
		if folderpath.NormalizeName(s) == "" {
			return fmt.Errorf("empty level rule")
		}
		*r = LevelRule{Text: folderpath.NormalizeName(s)}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("level rule must be a number or a string: %w", err)
	}
	*r = LevelRule{Number: n}
	return nil
}

// MarshalJSON writes the rule back in its number-or-string form.
func (r LevelRule) MarshalJSON() ([]byte, error) {
	if r.IsNumeric() {
		return json.Marshal(r.Number)
	}
	return json.Marshal(r.Text)
}

// Department is the policy for one top-level folder.
type Department struct {
	Levels []LevelRule `json:"levels,omitempty"`
	Shape  []LevelKind `json:"shape,omitempty"`
}

// Policy holds every department declaration.
type Policy struct {
	DefaultLevels []int                 `json:"defaultLevels,omitempty"`
	Departments   map[string]Department `json:"departments,omitempty"`

	index map[string]Department
}

// Default returns a policy with no department overrides.
func Default() *Policy {
	p := &Policy{DefaultLevels: append([]int(nil), DefaultLevels...)}
	p.reindex()
	return p
}

// Parse decodes a policy from JSON.
func Parse(data []byte) (*Policy, error) {
	p := &Policy{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("parse department policy: %w", err)
		}
	}
	if len(p.DefaultLevels) == 0 {
		p.DefaultLevels = append([]int(nil), DefaultLevels...)
	}
	for name, dept := range p.Departments {
		for _, kind := range dept.Shape {
			switch kind {
			case KindLevel, KindSubject, KindSemester, KindSession:
			default:
				return nil, fmt.Errorf("department %q: unknown hierarchy kind %q", name, kind)
			}
		}
	}
	p.reindex()
	return p, nil
}

// Load reads a policy from a JSON file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read department policy: %w", err)
	}
	return Parse(data)
}

// WithDefaultLevels replaces the default numeric level set.
func (p *Policy) WithDefaultLevels(levels []int) *Policy {
	if len(levels) > 0 {
		p.DefaultLevels = append([]int(nil), levels...)
	}
	return p
}

func (p *Policy) reindex() {
	p.index = make(map[string]Department, len(p.Departments))
	for name, dept := range p.Departments {
		p.index[indexKey(name)] = dept
	}
}

func indexKey(name string) string {
	return strings.ToLower(folderpath.NormalizeName(folderpath.Decode(name)))
}

func (p *Policy) lookup(department string) (Department, bool) {
	if p == nil || p.index == nil {
		return Department{}, false
	}
	dept, ok := p.index[indexKey(department)]
	return dept, ok
}

// Rules returns the allow-list for a department.
func (p *Policy) Rules(department string) []LevelRule {
	if dept, ok := p.lookup(department); ok && len(dept.Levels) > 0 {
		return dept.Levels
	}
	defaults := DefaultLevels
	if p != nil && len(p.DefaultLevels) > 0 {
		defaults = p.DefaultLevels
	}
	rules := make([]LevelRule, len(defaults))
	for i, n := range defaults {
		rules[i] = LevelRule{Number: n}
	}
	return rules
}

// Shape returns the declared hierarchy below a department.
func (p *Policy) Shape(department string) []LevelKind {
	if dept, ok := p.lookup(department); ok && len(dept.Shape) > 0 {
		return dept.Shape
	}
	return DefaultShape
}

// Allows reports whether folderName may be listed directly under department.
// A folder is kept when the first number embedded in its name is an allowed
// numeric level, or when its whole name equals an allowed free-text entry.
func (p *Policy) Allows(department, folderName string) bool {
	name := folderpath.NormalizeName(folderName)
	number, hasNumber := embeddedNumber(name)
	for _, rule := range p.Rules(department) {
		if rule.IsNumeric() {
			if hasNumber && number == rule.Number {
				return true
			}
			continue
		}
		if strings.EqualFold(name, rule.Text) {
			return true
		}
	}
	return false
}

func embeddedNumber(name string) (int, bool) {
	m := numberPattern.FindString(name)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
