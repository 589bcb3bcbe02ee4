package prunejson

// Budget is the number of scalar leaves a pruning pass may keep. Any value
// of zero or below means no limit.
type Budget int

// Unlimited keeps every leaf.
const Unlimited Budget = -1

// Prune returns the sub-schema made of the first budget scalar leaves of
// root in declaration pre-order. Ancestors of kept leaves are preserved;
// branches reached after the budget ran out are dropped without being
// visited. A budget <= 0 returns root unchanged.
//
// The same root and budget always produce the same tree.
func Prune(root Node, budget Budget) Node {
	if budget <= 0 || root == nil {
		return root
	}
	remaining := int(budget)
	out, ok := prune(root, &remaining)
	if !ok {
		return nil
	}
	return out
}

// prune reports false when nothing under n was kept.
func prune(n Node, remaining *int) (Node, bool) {
	switch n := n.(type) {
	case *Scalar:
		if *remaining == 0 {
			return nil, false
		}
		*remaining--
		return n, true
	case *List:
		if *remaining == 0 {
			return nil, false
		}
		elem, ok := prune(n.elem, remaining)
		if !ok {
			return nil, false
		}
		if elem == n.elem {
			return n, true
		}
		return &List{elem: elem}, true
	case *Object:
		if *remaining == 0 {
			return nil, false
		}
		kept := make([]Field, 0, len(n.fields))
		unchanged := true
		for _, f := range n.fields {
			if *remaining == 0 {
				unchanged = false
				break
			}
			c, ok := prune(f.Node, remaining)
			if !ok {
				unchanged = false
				continue
			}
			unchanged = unchanged && c == f.Node
			kept = append(kept, Field{Name: f.Name, Node: c})
		}
		if unchanged {
			return n, true
		}
		return &Object{fields: kept}, true
	}
	return nil, false
}
