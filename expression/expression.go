// Package expression renders solutions as minimally bracketed infix
// expressions, the way a player would write the whole line out at once.
package expression

import (
	"fmt"
	"strconv"

	"github.com/domino14/numble/step"
)

// item is a pool entry paired with the expression that produced it. op and
// compound describe the top level of that expression, which is all the
// bracketing rules need.
type item struct {
	val      int
	str      string
	op       step.Operation
	compound bool
}

// Render builds one infix expression for a step sequence, bracketing only
// where precedence demands it. A zero-step solution renders as the bare
// target. When several pool entries share a value, the earliest is
// consumed, which yields an equivalent expression for any valid solution.
func Render(target int, sources []int, steps []step.Step) (string, error) {
	items := make([]item, len(sources))
	for i, v := range sources {
		items[i] = item{val: v, str: strconv.Itoa(v)}
	}
	for idx, st := range steps {
		i, j, ok := findItems(items, st.A(), st.B())
		if !ok {
			return "", fmt.Errorf("step %d (%s): operands not available", idx+1, st)
		}
		combined := combine(items[i], st.Op(), items[j], st.Result())
		next := make([]item, 0, len(items)-1)
		for k, it := range items {
			if k == i || k == j {
				continue
			}
			next = append(next, it)
		}
		items = append(next, combined)
	}
	for _, it := range items {
		if it.val == target {
			return it.str, nil
		}
	}
	return "", fmt.Errorf("steps do not reach %d", target)
}

func combine(left item, op step.Operation, right item, result int) item {
	ls, rs := left.str, right.str
	if left.compound && additive(left.op) && (op == step.Multiply || op == step.Divide) {
		ls = "(" + ls + ")"
	}
	if (op == step.Divide && right.compound) ||
		((op == step.Multiply || op == step.Subtract) && right.compound && additive(right.op)) {
		rs = "(" + rs + ")"
	}
	return item{
		val:      result,
		str:      fmt.Sprintf("%s %s %s", ls, op, rs),
		op:       op,
		compound: true,
	}
}

func additive(op step.Operation) bool {
	return op == step.Add || op == step.Subtract
}

// findItems locates two distinct item positions holding the values a and
// b, earliest first.
func findItems(items []item, a, b int) (int, int, bool) {
	ai := -1
	for k := range items {
		if items[k].val == a {
			ai = k
			break
		}
	}
	if ai < 0 {
		return 0, 0, false
	}
	for k := range items {
		if k != ai && items[k].val == b {
			return ai, k, true
		}
	}
	return 0, 0, false
}
