package magic

import "bytes"

// Evaluate walks forest against src and returns the MIME-bearing rules
// that matched. In ModeMostSpecific it returns at most one result, chosen
// by Select; in ModeCollectAll it returns every contributing rule
// unranked, for callers that want to reason about all of them (see
// pkg/magicforest).
func Evaluate(forest *Forest, src Source, mode MatchMode) ([]MatchResult, error) {
	var all []MatchResult
	for _, root := range forest.Roots {
		res, err := evalNode(root, src)
		if err != nil {
			return nil, err
		}
		all = append(all, res...)
	}
	if mode == ModeCollectAll {
		return all, nil
	}
	best, ok := Select(all)
	if !ok {
		return nil, nil
	}
	return []MatchResult{best}, nil
}

// evalNode tests r, then recurses into its children only if r matched. A
// rule contributes a MatchResult only when none of its matched
// descendants already did — the most specific rule along a chain always
// wins over its ancestors (spec §4.2).
func evalNode(r *Rule, src Source) ([]MatchResult, error) {
	ok, err := matchOne(r, src)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var contributions []MatchResult
	for _, child := range r.Children {
		res, err := evalNode(child, src)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, res...)
	}
	if len(contributions) > 0 {
		return contributions, nil
	}
	if r.MimeType == "" {
		return nil, nil
	}
	return []MatchResult{{Rule: r, MimeType: r.MimeType, Specificity: specificityOf(r)}}, nil
}

// matchOne tests a single rule against src at its declared offset. A
// short read (fewer bytes available than the rule needs) is reported as
// "no match", not an error; a genuine I/O failure becomes a SourceError.
func matchOne(r *Rule, src Source) (bool, error) {
	if r.Kind == KindUnknown {
		return false, nil
	}

	if r.ContainsWidth > 0 {
		raw, err := src.Bytes(r.Offset, r.ContainsWidth)
		if err != nil {
			return false, &SourceError{Offset: r.Offset, Err: err}
		}
		contains := bytes.Contains(raw, r.Content)
		if r.Operator == OpNotEquals {
			return !contains, nil
		}
		return contains, nil
	}

	width := r.width()
	raw, err := src.Bytes(r.Offset, width)
	if err != nil {
		return false, &SourceError{Offset: r.Offset, Err: err}
	}

	if r.Kind == KindString {
		need := r.contentWidth()
		if len(raw) < need {
			return false, nil
		}
		cmp := bytes.Compare(raw[:need], r.Content)
		switch r.Operator {
		case OpNotEquals:
			return cmp != 0, nil
		case OpGreaterThan:
			return cmp > 0, nil
		case OpLessThan:
			return cmp < 0, nil
		default:
			return cmp == 0, nil
		}
	}

	if len(raw) < width {
		return false, nil
	}
	value := decodeNumeric(r.Kind, raw)
	mask := widthMask(width)
	content := r.Number & mask

	switch r.Operator {
	case OpEquals:
		return value == content, nil
	case OpNotEquals:
		return value != content, nil
	case OpGreaterThan:
		return value > content, nil
	case OpLessThan:
		return value < content, nil
	case OpBitwiseAnd, OpBitwiseClear:
		// Both mean "every bit set in content is also set in value";
		// the duplicate case is deliberate, not a copy/paste slip.
		return value&content == content, nil
	case OpAny:
		return true, nil
	case OpNegated:
		return (^value)&mask == content, nil
	default:
		return false, nil
	}
}

// decodeNumeric reads a fixed-width, byte-order-aware unsigned value out
// of raw, zero-extended to 64 bits. raw must be at least as long as the
// kind's width.
func decodeNumeric(kind Kind, raw []byte) uint64 {
	switch kind {
	case KindByte:
		return uint64(raw[0])
	case KindShort, KindBeshort:
		return uint64(raw[0])<<8 | uint64(raw[1])
	case KindLeshort:
		return uint64(raw[1])<<8 | uint64(raw[0])
	case KindBelong:
		return uint64(raw[0])<<24 | uint64(raw[1])<<16 | uint64(raw[2])<<8 | uint64(raw[3])
	case KindLelong:
		return uint64(raw[3])<<24 | uint64(raw[2])<<16 | uint64(raw[1])<<8 | uint64(raw[0])
	default:
		return 0
	}
}

func widthMask(width int) uint64 {
	switch width {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	case 4:
		return 0xFFFFFFFF
	default:
		return ^uint64(0)
	}
}
