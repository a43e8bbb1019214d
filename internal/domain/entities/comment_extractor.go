package entities

import (
	"strings"
	"unicode"
)

const (
	hashMarker       = "#"
	sqlLineMarker    = "--"
	cLineMarker      = "//"
	blockOpenMarker  = "/*"
	blockCloseMarker = "*/"
)

// CommentSegment is the comment text found on one line of a file.
// Line is 1-based and matches the scanned file's numbering.
type CommentSegment struct {
	Line int
	Text string
}

// CommentState is the lexer state carried from one line to the next.
// The zero value is the state at the start of a file.
type CommentState struct {
	InBlock bool
}

// ExtractComments runs the comment lexer over a whole file. A fresh
// CommentState is used for every call, so nothing carries over between files.
// Lines whose segment is blank after trimming produce nothing.
func ExtractComments(family SyntaxFamily, text string) []CommentSegment {
	var (
		state    CommentState
		segments []CommentSegment
	)
	for idx, line := range SplitLines(text) {
		var (
			segment string
			found   bool
		)
		segment, found, state = NextCommentSegment(family, line, state)
		if !found || strings.TrimSpace(segment) == "" {
			continue
		}
		segments = append(segments, CommentSegment{Line: idx + 1, Text: segment})
	}
	return segments
}

// NextCommentSegment extracts the comment portion of a single line and returns
// the state to use for the following line.
func NextCommentSegment(family SyntaxFamily, line string, state CommentState) (string, bool, CommentState) {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)

	switch family {
	case SyntaxHash:
		if strings.HasPrefix(trimmed, hashMarker) {
			return trimmed[len(hashMarker):], true, state
		}
		return "", false, state

	case SyntaxSQL:
		segment, found := "", false
		if strings.HasPrefix(trimmed, sqlLineMarker) {
			segment, found = trimmed[len(sqlLineMarker):], true
		}
		block, rule, next := blockSegment(trimmed, state)
		if rule != blockNone {
			segment, found = block, true
		}
		return segment, found, next

	case SyntaxCLike:
		segment, found := "", false
		if idx := strings.Index(trimmed, cLineMarker); idx >= 0 {
			segment, found = trimmed[idx+len(cLineMarker):], true
		}
		block, rule, next := blockSegment(trimmed, state)
		switch {
		case rule == blockContinuation:
			// a line comment wins over an open block on the same line
			if !found {
				segment, found = block, true
			}
		case rule != blockNone && found:
			segment += " " + block
		case rule != blockNone:
			segment, found = block, true
		}
		return segment, found, next

	case SyntaxPlainText:
		return trimmed, true, state

	default:
		return "", false, state
	}
}

type blockRule int

const (
	blockNone blockRule = iota
	blockInline
	blockOpen
	blockClose
	blockContinuation
)

// blockSegment applies the four /* */ rules shared by SQL and C-like files.
// A closer seen outside a block is ordinary text.
func blockSegment(trimmed string, state CommentState) (string, blockRule, CommentState) {
	openIdx := strings.Index(trimmed, blockOpenMarker)
	hasClose := strings.Contains(trimmed, blockCloseMarker)

	switch {
	case openIdx >= 0 && hasClose:
		start := openIdx + len(blockOpenMarker)
		end := strings.LastIndex(trimmed, blockCloseMarker)
		if start > end {
			// "*/ ... /*" or "/*/" on one line
			return "", blockInline, state
		}
		return trimmed[start:end], blockInline, state
	case openIdx >= 0:
		return trimmed[openIdx+len(blockOpenMarker):], blockOpen, CommentState{InBlock: true}
	case hasClose && state.InBlock:
		return trimmed[:strings.Index(trimmed, blockCloseMarker)], blockClose, CommentState{InBlock: false}
	case state.InBlock:
		return trimmed, blockContinuation, state
	default:
		return "", blockNone, state
	}
}

// SplitLines splits text on \n, \r\n and \r. A trailing line break does not
// produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
