package magic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Compiler turns a textual magic rules document into an immutable Forest,
// one line at a time. It holds no state between calls and is safe to reuse.
//
// Continuation lines (leading ">") attach beneath the most recently
// compiled rule at the depth one shallower than their own; a malformed
// or out-of-order line is recorded as a Diagnostic and skipped, never
// aborting the rest of the compile.
type Compiler struct{}

// NewCompiler returns a ready-to-use Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile reads magic rules from r and returns the resulting forest along
// with diagnostics for every discarded line. Compilation never aborts on a
// malformed line (spec §4.1/§7).
func (c *Compiler) Compile(r io.Reader, source string) (*Forest, []Diagnostic) {
	forest := &Forest{}
	var diags []Diagnostic

	// stack[d] holds the most recently attached rule at depth d. A new
	// rule at depth d attaches under stack[d-1] and then overwrites (and
	// truncates) the stack from d onward.
	var stack []*Rule
	seq := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		depth := 0
		for depth < len(line) && line[depth] == '>' {
			depth++
		}
		fields := strings.Fields(line[depth:])
		if len(fields) < 3 {
			diags = append(diags, Diagnostic{source, lineNo, "truncated line: fewer than 3 fields"})
			continue
		}
		if depth > len(stack) {
			diags = append(diags, Diagnostic{
				source, lineNo,
				fmt.Sprintf("depth %d exceeds current max depth %d", depth, len(stack)),
			})
			continue
		}

		rule, err := parseRuleFields(fields, lineNo, source, depth)
		if err != nil {
			diags = append(diags, Diagnostic{source, lineNo, err.Error()})
			continue
		}
		rule.Seq = seq
		seq++

		if depth == 0 {
			forest.Roots = append(forest.Roots, rule)
		} else {
			parent := stack[depth-1]
			rule.Parent = parent
			parent.Children = append(parent.Children, rule)
		}
		stack = append(stack[:depth], rule)
	}

	return forest, diags
}

// CompileFile opens path and compiles it, wrapping any open failure as an
// error distinct from the per-line diagnostics.
func (c *Compiler) CompileFile(path string) (*Forest, []Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("magic: open %s: %w", path, err)
	}
	defer f.Close()
	forest, diags := c.Compile(f, path)
	return forest, diags, nil
}

// CompileString is a convenience wrapper over Compile for inline rule text,
// primarily used by tests.
func (c *Compiler) CompileString(data, source string) (*Forest, []Diagnostic) {
	return c.Compile(strings.NewReader(data), source)
}

// parseRuleFields parses the offset/type/content/[mime[/enc]] fields of one
// already-split, already-depth-stripped line into a Rule.
func parseRuleFields(fields []string, lineNo int, source string, depth int) (*Rule, error) {
	offset, err := parseOffset(fields[0])
	if err != nil {
		return nil, err
	}

	kind, containsWidth := parseType(fields[1])
	op, remainder := extractOperator(fields[2], kind)

	rule := &Rule{
		Offset:        offset,
		Kind:          kind,
		Operator:      op,
		ContainsWidth: containsWidth,
		Content:       []byte{},
		Depth:         depth,
		Line:          lineNo,
		Source:        source,
	}

	switch {
	case kind == KindString:
		rule.Content = decodeEscapes(remainder)
	case kind.numeric():
		if op == OpAny {
			rule.Number = 0
		} else {
			num, err := parseNumericContent(remainder)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", fields[1], err)
			}
			rule.Number = num
		}
	default:
		// Unknown type: keep the raw remainder for diagnostics/printing,
		// but this rule will never match (see match.go).
		rule.Content = []byte(remainder)
	}

	if len(fields) > 3 {
		rule.MimeType = fields[3]
	}
	if len(fields) > 4 {
		rule.MimeEncoding = fields[4]
	}

	return rule, nil
}

// parseType matches the type field by prefix for the multi-byte-order
// kinds and by exact match for "short"/"byte", per spec §4.1. Anything
// unrecognized becomes KindUnknown, which never matches at evaluation
// time but still occupies its place in the tree so sibling/continuation
// parsing is unaffected.
func parseType(s string) (Kind, int) {
	switch {
	case s == "short":
		return KindShort, 0
	case s == "byte":
		return KindByte, 0
	case strings.HasPrefix(s, "beshort"):
		return KindBeshort, 0
	case strings.HasPrefix(s, "leshort"):
		return KindLeshort, 0
	case strings.HasPrefix(s, "belong"):
		return KindBelong, 0
	case strings.HasPrefix(s, "lelong"):
		return KindLelong, 0
	case strings.HasPrefix(s, "string"):
		rest := s[len("string"):]
		if strings.HasPrefix(rest, ">") {
			if n, err := strconv.Atoi(rest[1:]); err == nil && n > 0 {
				return KindString, n
			}
		}
		return KindString, 0
	default:
		return KindUnknown, 0
	}
}

// extractOperator consumes a leading operator sigil from content, if one
// applies to the rule's kind, returning the operator and the remaining
// text. String kinds only recognize the comparison operators; numeric
// kinds additionally recognize the bit and any/negated operators (§4.1).
func extractOperator(content string, kind Kind) (Operator, string) {
	if content == "" {
		return OpEquals, content
	}
	sigil := content[0]
	switch sigil {
	case '=':
		return OpEquals, content[1:]
	case '!':
		return OpNotEquals, content[1:]
	case '>':
		return OpGreaterThan, content[1:]
	case '<':
		return OpLessThan, content[1:]
	}
	if kind.numeric() {
		switch sigil {
		case '&':
			return OpBitwiseAnd, content[1:]
		case '^':
			return OpBitwiseClear, content[1:]
		case 'x':
			return OpAny, content[1:]
		case '~':
			return OpNegated, content[1:]
		}
	}
	return OpEquals, content
}
