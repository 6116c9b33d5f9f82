package magic

import "testing"

func TestSpecificityOfRootWithNoChildren(t *testing.T) {
	r := &Rule{Depth: 0}
	got := specificityOf(r)
	if got != 1.0 {
		t.Fatalf("specificityOf(leaf root) = %v, want 1.0", got)
	}
}

func TestSpecificityIncreasesWithDepthAtFixedBranching(t *testing.T) {
	root := &Rule{Depth: 0}
	child := &Rule{Depth: 1, Parent: root}
	root.Children = []*Rule{child}

	rootSpecificity := specificityOf(root)
	childSpecificity := specificityOf(child)
	if childSpecificity <= rootSpecificity {
		t.Fatalf("child specificity %v should exceed root specificity %v", childSpecificity, rootSpecificity)
	}
}

func TestRecursiveSubtreeWeightPenalizesBranching(t *testing.T) {
	narrow := &Rule{Depth: 0}
	narrow.Children = []*Rule{{Depth: 1, Parent: narrow}}

	wide := &Rule{Depth: 0}
	wide.Children = []*Rule{
		{Depth: 1, Parent: wide},
		{Depth: 1, Parent: wide},
		{Depth: 1, Parent: wide},
	}

	if recursiveSubtreeWeight(wide, 1) <= recursiveSubtreeWeight(narrow, 1) {
		t.Fatalf("wide subtree should weigh more than narrow subtree")
	}
	if specificityOf(wide) >= specificityOf(narrow) {
		t.Fatalf("a rule under a more heavily branching root should be less specific")
	}
}

// TestRecursiveSubtreeWeightIncrementsLevelPerDepth pins the exact value
// for a two-level chain root->C->G: subLevel must increment on each
// recursive step (1*(1+2*(1+0)) == 3), not stay fixed (which would give
// 2) — the two values only diverge once a subtree is at least two levels
// deep.
func TestRecursiveSubtreeWeightIncrementsLevelPerDepth(t *testing.T) {
	root := &Rule{Depth: 0}
	child := &Rule{Depth: 1, Parent: root}
	grandchild := &Rule{Depth: 2, Parent: child}
	child.Children = []*Rule{grandchild}
	root.Children = []*Rule{child}

	if got := recursiveSubtreeWeight(root, 1); got != 3 {
		t.Fatalf("recursiveSubtreeWeight(root, 1) = %d, want 3", got)
	}
}

// TestSpecificityIsScopedToMatchedRuleNotItsRoot checks that a sibling
// branch off the matched chain's root never affects the matched rule's
// own specificity. Root A is childless and is itself the matched leaf;
// root B has two children, B1 (the matched leaf, childless) and B2 (an
// unrelated sibling with its own child B2a). B1 should outrank A on
// depth alone; B2's subtree must not be counted against B1.
func TestSpecificityIsScopedToMatchedRuleNotItsRoot(t *testing.T) {
	a := &Rule{Depth: 0}

	b := &Rule{Depth: 0}
	b1 := &Rule{Depth: 1, Parent: b}
	b2 := &Rule{Depth: 1, Parent: b}
	b2a := &Rule{Depth: 2, Parent: b2}
	b2.Children = []*Rule{b2a}
	b.Children = []*Rule{b1, b2}

	aSpecificity := specificityOf(a)
	b1Specificity := specificityOf(b1)
	if b1Specificity <= aSpecificity {
		t.Fatalf("b1 specificity %v should exceed a specificity %v (b2's subtree must not count against b1)", b1Specificity, aSpecificity)
	}
	if b1Specificity != 2.0 {
		t.Fatalf("b1 specificity = %v, want 2.0 ((depth+1)/(own weight+1) = 2/1)", b1Specificity)
	}
}
