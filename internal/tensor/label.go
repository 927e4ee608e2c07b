package tensor

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/emirpasic/gods/v2/sets/hashset"
)

// LabelLength is the length of generated tensor labels.
const LabelLength = 6

const alpha = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ErrInvalidLabel is returned for labels that cannot name a tensor.
var ErrInvalidLabel = errors.New("invalid label")

// reserved holds the names a tensor label may not take: WGSL keywords and
// reserved words, the builtins generated shaders call, and the names the
// shader template declares.
var reserved = hashset.New(
	// Generated shaders.
	"main", "idx", "global_id", "global_invocation_id",
	"f32", "u32", "i32", "bool", "array", "vec3", "exp", "log", "bitcast",
	"storage", "read", "read_write", "compute", "workgroup_size", "group", "binding", "builtin",
	// Keywords.
	"alias", "break", "case", "const", "const_assert", "continue", "continuing",
	"default", "diagnostic", "discard", "else", "enable", "false", "fn", "for",
	"if", "let", "loop", "override", "requires", "return", "struct", "switch",
	"true", "var", "while",
	// Reserved words.
	"NULL", "Self", "abstract", "active", "alignas", "alignof", "as", "asm",
	"asm_fragment", "async", "attribute", "auto", "await", "become",
	"binding_array", "cast", "catch", "class", "co_await", "co_return",
	"co_yield", "coherent", "column_major", "common", "compile",
	"compile_fragment", "concept", "const_cast", "consteval", "constexpr",
	"constinit", "crate", "debugger", "decltype", "delete", "demote",
	"demote_to_helper", "do", "dynamic_cast", "enum", "explicit", "export",
	"extends", "extern", "external", "fallthrough", "filter", "final",
	"finally", "friend", "from", "fxgroup", "get", "goto", "groupshared",
	"highp", "impl", "implements", "import", "inline", "instanceof",
	"interface", "layout", "lowp", "macro", "macro_rules", "match", "mediump",
	"meta", "mod", "module", "move", "mut", "mutable", "namespace", "new",
	"nil", "noexcept", "noinline", "nointerpolation", "noperspective", "null",
	"nullptr", "of", "operator", "package", "packoffset", "partition", "pass",
	"patch", "pixelfragment", "precise", "precision", "premerge", "priv",
	"protected", "pub", "public", "readonly", "ref", "regardless", "register",
	"reinterpret_cast", "require", "resource", "restrict", "self", "set",
	"shared", "sizeof", "smooth", "snorm", "static", "static_assert",
	"static_cast", "std", "subroutine", "super", "target", "template", "this",
	"thread_local", "throw", "trait", "try", "type", "typedef", "typeid",
	"typename", "typeof", "union", "unless", "unorm", "unsafe", "unsized",
	"use", "using", "varying", "virtual", "volatile", "wgsl", "where", "with",
	"writeonly", "yield",
)

// NewLabel returns a random label of LabelLength ASCII letters.
// Generated labels are valid WGSL identifiers.
func NewLabel() string {
	b := make([]byte, LabelLength)
	for {
		for i := range b {
			b[i] = alpha[rand.IntN(len(alpha))]
		}
		if label := string(b); !reserved.Contains(label) {
			return label
		}
	}
}

// ValidateLabel checks that label can name a tensor: an ASCII identifier
// (letters, digits, underscores, not starting with a digit) that is not
// "_", does not start with "__" and is not a reserved name.
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLabel)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return fmt.Errorf("%w: %q is not an identifier", ErrInvalidLabel, label)
		}
	}
	if label == "_" || strings.HasPrefix(label, "__") {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidLabel, label)
	}
	if reserved.Contains(label) {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidLabel, label)
	}
	return nil
}
