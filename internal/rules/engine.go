package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Engine applies deterministic transcript corrections loaded from a file.
// Lines are either literal substitutions ("spoken form => written form",
// case-insensitive) or sed-style regex rules ("s/pattern/replacement/flags").
// Corrections run repeatedly until the text stabilizes or the pass limit is
// reached, so chained rules resolve without ordering gymnastics.
type Engine struct {
	corrections []correction
	passLimit   int
}

type correction interface {
	apply(input string) (output string, changed bool)
}

// NewEngine loads and compiles corrections from path. A missing or empty
// file yields an identity engine.
func NewEngine(path string, passLimit int) (*Engine, error) {
	if passLimit <= 0 {
		passLimit = 30
	}
	if strings.TrimSpace(path) == "" {
		return &Engine{passLimit: passLimit}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Engine{passLimit: passLimit}, nil
		}
		return nil, fmt.Errorf("failed to read corrections file %q: %w", path, err)
	}

	corrections, err := parse(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse corrections file %q: %w", path, err)
	}
	return &Engine{corrections: corrections, passLimit: passLimit}, nil
}

// Apply transforms transcript text deterministically.
func (e *Engine) Apply(text string) (string, error) {
	if len(e.corrections) == 0 {
		return text, nil
	}

	result := text
	for pass := 0; pass < e.passLimit; pass++ {
		changed := false
		for _, c := range e.corrections {
			next, didChange := c.apply(result)
			if didChange {
				result = next
				changed = true
			}
		}
		if !changed {
			return result, nil
		}
	}
	return result, fmt.Errorf("corrections did not stabilize after %d passes", e.passLimit)
}

func parse(contents string) ([]correction, error) {
	var corrections []correction
	for index, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var (
			c   correction
			err error
		)
		switch {
		case strings.HasPrefix(line, "s") && len(line) > 1 && isDelimiter(line[1]):
			c, err = parseRegexCorrection(line)
		case strings.Contains(line, "=>"):
			c, err = parseLiteralCorrection(line)
		default:
			err = errors.New("unsupported correction format")
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
		corrections = append(corrections, c)
	}
	return corrections, nil
}

type literalCorrection struct {
	re          *regexp.Regexp
	replacement string
}

func parseLiteralCorrection(line string) (correction, error) {
	parts := strings.SplitN(line, "=>", 2)
	spoken := strings.TrimSpace(parts[0])
	written := strings.TrimSpace(parts[1])
	if spoken == "" {
		return nil, errors.New("spoken form cannot be empty")
	}

	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(spoken))
	if err != nil {
		return nil, fmt.Errorf("invalid spoken form: %w", err)
	}
	return literalCorrection{re: re, replacement: written}, nil
}

func (c literalCorrection) apply(input string) (string, bool) {
	output := c.re.ReplaceAllString(input, c.replacement)
	return output, output != input
}

type regexCorrection struct {
	re          *regexp.Regexp
	replacement string
}

func parseRegexCorrection(line string) (correction, error) {
	delim := line[1]
	pattern, pos, err := readDelimited(line, 2, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	replacement, pos, err := readDelimited(line, pos, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid replacement: %w", err)
	}

	prefix := "(?i"
	for _, flag := range strings.TrimSpace(line[pos:]) {
		switch flag {
		case 'i', 'g':
			// i is the default; g is implied by ReplaceAll.
		case 'm':
			prefix += "m"
		case 's':
			prefix += "s"
		default:
			return nil, fmt.Errorf("unsupported flag %q", flag)
		}
	}

	re, err := regexp.Compile(prefix + ")" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	return regexCorrection{re: re, replacement: replacement}, nil
}

func (c regexCorrection) apply(input string) (string, bool) {
	output := c.re.ReplaceAllString(input, c.replacement)
	return output, output != input
}

func readDelimited(line string, start int, delim byte) (string, int, error) {
	if start >= len(line) {
		return "", 0, errors.New("unexpected end of expression")
	}

	var builder strings.Builder
	escaped := false
	for index := start; index < len(line); index++ {
		char := line[index]
		if escaped {
			builder.WriteByte(char)
			escaped = false
			continue
		}
		if char == '\\' {
			escaped = true
			builder.WriteByte(char)
			continue
		}
		if char == delim {
			return builder.String(), index + 1, nil
		}
		builder.WriteByte(char)
	}
	return "", 0, errors.New("unterminated expression")
}

func isDelimiter(char byte) bool {
	alphaNumeric := (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9')
	return !alphaNumeric && char != ' ' && char != '\t'
}
