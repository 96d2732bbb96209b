package policy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity grades a matched rule.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityCritical Severity = "critical"
)

// Rule is a user-defined check over a FIFO violation.
type Rule struct {
	ID        string   `yaml:"id" json:"id"`
	Condition string   `yaml:"condition" json:"condition"` // CEL: "gap_days > 7 && client == 'Альфа'"
	Severity  Severity `yaml:"severity" json:"severity"`
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// ErrInvalidRule reports a rule that cannot be used.
var ErrInvalidRule = errors.New("invalid rule")

// LoadRules decodes a YAML rules document.
func LoadRules(r io.Reader) ([]Rule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f ruleFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if err := Validate(f.Rules); err != nil {
		return nil, err
	}
	return f.Rules, nil
}

// LoadRulesFile reads rules from path.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}

// Validate checks ids and severities and fills the default severity.
func Validate(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for i := range rules {
		r := &rules[i]
		r.ID = strings.TrimSpace(r.ID)
		if r.ID == "" {
			return fmt.Errorf("%w: rule %d has no id", ErrInvalidRule, i+1)
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidRule, r.ID)
		}
		seen[r.ID] = true
		if strings.TrimSpace(r.Condition) == "" {
			return fmt.Errorf("%w: %s has no condition", ErrInvalidRule, r.ID)
		}

		switch Severity(strings.ToLower(string(r.Severity))) {
		case "":
			r.Severity = SeverityWarn
		case SeverityInfo, SeverityWarn, SeverityCritical:
			r.Severity = Severity(strings.ToLower(string(r.Severity)))
		default:
			return fmt.Errorf("%w: %s has unknown severity %q", ErrInvalidRule, r.ID, r.Severity)
		}
	}
	return nil
}
