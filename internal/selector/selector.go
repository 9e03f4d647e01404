// Package selector implements the field-selector language used to prune
// proxied JSON responses down to caller-requested paths.
//
// A selector is a dot-separated path of identifier keys, where any key may
// be followed by the wildcard token "[]" to descend into every element of a
// list. Multiple selectors union into a single tree:
//
//	name
//	stats.attack.base_stat
//	moves[].move.name
//	[].name
//
// Key selectors applied to a list filter each element, so "name" and
// "[].name" behave identically on a list response.
package selector

import (
	"fmt"
	"strings"
)

// Error reports a malformed selector string. Selector errors are
// client-input faults: they abort the call before any network activity.
type Error struct {
	Selector string
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid field selector %q: %s", e.Selector, e.Reason)
}

// Node is one level of a compiled selector tree. A tree is built per call
// from the caller's selector strings and discarded after filtering.
type Node struct {
	includeSelf bool
	children    map[string]*Node
	wildcard    *Node
}

func newNode() *Node {
	return &Node{children: make(map[string]*Node)}
}

type tokenKind int

const (
	tokenKey tokenKind = iota
	tokenWildcard
)

type token struct {
	kind tokenKind
	key  string
}

// Build compiles selector strings into a single tree, unioning the paths
// they address. An empty list, an empty selector, an empty segment, or any
// bracket content other than the literal "[]" is an *Error.
func Build(selectors []string) (*Node, error) {
	if len(selectors) == 0 {
		return nil, &Error{Reason: "no selectors provided"}
	}

	root := newNode()
	for _, sel := range selectors {
		tokens, err := tokenize(sel)
		if err != nil {
			return nil, err
		}
		node := root
		for _, tok := range tokens {
			switch tok.kind {
			case tokenWildcard:
				if node.wildcard == nil {
					node.wildcard = newNode()
				}
				node = node.wildcard
			default:
				child, ok := node.children[tok.key]
				if !ok {
					child = newNode()
					node.children[tok.key] = child
				}
				node = child
			}
		}
		node.includeSelf = true
	}
	return root, nil
}

// tokenize splits one selector into key and wildcard tokens. Within a
// dot-segment a key may be directly followed by "[]" (as in "moves[]"),
// which yields two tokens.
func tokenize(sel string) ([]token, error) {
	if sel == "" {
		return nil, &Error{Selector: sel, Reason: "selector is empty"}
	}

	var tokens []token
	for _, segment := range strings.Split(sel, ".") {
		if segment == "" {
			return nil, &Error{Selector: sel, Reason: "empty path segment"}
		}
		i := 0
		for i < len(segment) {
			switch {
			case segment[i] == '[':
				if i+1 >= len(segment) || segment[i+1] != ']' {
					return nil, &Error{Selector: sel, Reason: "brackets must be the literal []"}
				}
				tokens = append(tokens, token{kind: tokenWildcard})
				i += 2
			case segment[i] == ']':
				return nil, &Error{Selector: sel, Reason: "unmatched ] in segment"}
			default:
				j := i
				for j < len(segment) && segment[j] != '[' && segment[j] != ']' {
					j++
				}
				tokens = append(tokens, token{kind: tokenKey, key: segment[i:j]})
				i = j
			}
		}
	}
	return tokens, nil
}

// Filter applies a compiled tree to a decoded JSON value. When nothing in
// the value matches, the result collapses to an empty structure of the
// input's shape: {} for objects, [] for lists, nil otherwise.
func Filter(value any, root *Node) any {
	out, ok := apply(value, root)
	if ok {
		return out
	}
	switch value.(type) {
	case map[string]any:
		return map[string]any{}
	case []any:
		return []any{}
	default:
		return nil
	}
}

// apply is the recursive worker. The second return value is false when the
// subtree matched nothing; callers omit those branches entirely.
func apply(value any, node *Node) (any, bool) {
	// A terminal include-self keeps the value as-is, whatever its shape.
	if node.includeSelf && len(node.children) == 0 && node.wildcard == nil {
		return value, true
	}

	switch v := value.(type) {
	case map[string]any:
		// Include-self short-circuits keyed filtering at this level.
		if node.includeSelf {
			return v, true
		}
		out := make(map[string]any, len(node.children))
		for key, child := range node.children {
			pv, present := v[key]
			if !present {
				continue
			}
			if fv, ok := apply(pv, child); ok {
				out[key] = fv
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case []any:
		// Key selectors descend into list elements directly, so "title"
		// filters each element of a list response the same way
		// "[].title" would.
		child := node.wildcard
		if child == nil {
			child = node
		}
		// A filtered list always survives, even when empty.
		out := make([]any, 0, len(v))
		for _, item := range v {
			if fv, ok := apply(item, child); ok {
				out = append(out, fv)
			}
		}
		return out, true
	default:
		if node.includeSelf {
			return value, true
		}
		return nil, false
	}
}
