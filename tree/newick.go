package tree

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// ErrMalformedTree is returned for any structurally invalid tree:
// bracket mismatches, duplicate tip names, negative branch lengths
// and similar.
var ErrMalformedTree = errors.New("malformed tree")

// mode is the tokenizer state.
type mode int

const (
	normal mode = iota
	length
)

func isSpecial(c rune) bool {
	switch c {
	case '(', ')', ':', ';', ',':
		return true
	}
	return false
}

// NewickSplit is a bufio.SplitFunc returning Newick tokens: special
// characters as one-character tokens, everything else as words.
func NewickSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	// Skip leading spaces; and return 1-char tokens.
	for width := 0; start < len(data); start += width {
		var r rune
		r, width = utf8.DecodeRune(data[start:])
		if isSpecial(r) {
			return start + width, data[start : start+width], nil
		}
		if !unicode.IsSpace(r) {
			break
		}
	}
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// Scan until space or special character.
	for width, i := 0, start; i < len(data); i += width {
		var r rune
		r, width = utf8.DecodeRune(data[i:])
		if unicode.IsSpace(r) || isSpecial(r) {
			return i, data[start:i], nil
		}
	}
	// At EOF we have a final, non-empty, non-terminated word. Return it.
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	// Request more data.
	return 0, nil, nil
}

// ParseNewick parses a tree in Newick notation. The first tree of
// the stream is returned; tip ids are assigned in the order tips
// appear in the string.
func ParseNewick(rd io.Reader) (tree *Tree, err error) {
	scanner := bufio.NewScanner(rd)

	scanner.Split(NewickSplit)

	nodeID := 0

	node := NewNode(nil, nodeID)
	tree = &Tree{Node: node}
	nodeID++

	mode := normal

	for scanner.Scan() {
		text := scanner.Text()
		switch text {
		case "(":
			subNode := NewNode(nil, nodeID)
			nodeID++
			node.AddChild(subNode)
			node = subNode

		case ",":
			if node.Parent == nil {
				return nil, fmt.Errorf("%w: top level comma mismatch", ErrMalformedTree)
			}
			subNode := NewNode(nil, nodeID)
			nodeID++

			node.Parent.AddChild(subNode)
			node = subNode

		case ")":
			if node.Parent == nil {
				return nil, fmt.Errorf("%w: brackets mismatch", ErrMalformedTree)
			}
			node = node.Parent
		case ":":
			mode = length
		case ";":
			if node != tree.Node {
				return nil, fmt.Errorf("%w: unexpected end of tree", ErrMalformedTree)
			}
			numberLeaves(tree)
			return tree, nil
		default:
			switch mode {
			case length:
				l, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: bad branch length %q", ErrMalformedTree, text)
				}
				node.BranchLength = l
				mode = normal
			default:
				node.Name = text
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	if node != tree.Node {
		return nil, fmt.Errorf("%w: brackets mismatch", ErrMalformedTree)
	}

	numberLeaves(tree)
	return tree, nil
}

// numberLeaves assigns LeafID to the tips in traversal order.
func numberLeaves(tree *Tree) {
	leafID := 0
	for node := range tree.Terminals() {
		node.LeafID = leafID
		leafID++
	}
}
