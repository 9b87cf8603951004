// Package cell implements the fixed-size tagged-union value cell that is
// the evaluator's unit of currency (spec.md §3 "Cell", §4.2).
package cell

// Kind is the closed set of primitive value kinds a Cell's header can
// encode (spec.md §3). It is deliberately a flat enum rather than a Go
// interface hierarchy: every Cell is the same size regardless of Kind,
// which is what lets arrays of Cells be scanned uniformly by the
// collector.
type Kind uint8

const (
	KindBlank Kind = iota // space
	KindLogic
	KindInteger
	KindDecimal
	KindPercent
	KindMoney
	KindTime
	KindDate
	KindPair
	KindTuple
	KindChain
	KindPath
	KindText
	KindFile
	KindTag
	KindEmail
	KindURL
	KindIssue // rune
	KindBinary
	KindBitset
	KindWord
	KindSetWord
	KindGetWord
	KindBlock
	KindGroup
	KindFence
	KindMap
	KindObject
	KindFrame
	KindPort
	KindError
	KindModule
	KindHandle
	KindVarargs
	KindParameter
	KindDatatype
	KindExtension // reserved extension slot

	// Internal-only kinds, never observed by user code (spec.md §4.2).
	kindErased
	kindPoisoned
	kindUnreadable
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindLogic:
		return "logic"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindPercent:
		return "percent"
	case KindMoney:
		return "money"
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	case KindPair:
		return "pair"
	case KindTuple:
		return "tuple"
	case KindChain:
		return "chain"
	case KindPath:
		return "path"
	case KindText:
		return "text"
	case KindFile:
		return "file"
	case KindTag:
		return "tag"
	case KindEmail:
		return "email"
	case KindURL:
		return "url"
	case KindIssue:
		return "issue"
	case KindBinary:
		return "binary"
	case KindBitset:
		return "bitset"
	case KindWord:
		return "word"
	case KindSetWord:
		return "set-word"
	case KindGetWord:
		return "get-word"
	case KindBlock:
		return "block"
	case KindGroup:
		return "group"
	case KindFence:
		return "fence"
	case KindMap:
		return "map"
	case KindObject:
		return "object"
	case KindFrame:
		return "frame"
	case KindPort:
		return "port"
	case KindError:
		return "error"
	case KindModule:
		return "module"
	case KindHandle:
		return "handle"
	case KindVarargs:
		return "varargs"
	case KindParameter:
		return "parameter"
	case KindDatatype:
		return "datatype"
	case KindExtension:
		return "extension"
	default:
		return "reserved"
	}
}

// IsListlike reports whether values of this kind are sequences of cells
// (as opposed to byte-bearing or inline scalars).
func (k Kind) IsListlike() bool {
	switch k {
	case KindBlock, KindGroup, KindFence:
		return true
	default:
		return false
	}
}

// IsStringlike reports whether values of this kind are byte-bearing
// series that may alias as UTF-8 text.
func (k Kind) IsStringlike() bool {
	switch k {
	case KindText, KindFile, KindTag, KindEmail, KindURL, KindBinary:
		return true
	default:
		return false
	}
}

// IsBindable reports whether a cell of this kind carries a binding in
// its Extra slot that the resolver must consider.
func (k Kind) IsBindable() bool {
	switch k {
	case KindWord, KindSetWord, KindGetWord, KindBlock, KindGroup, KindFence, KindTuple, KindChain, KindPath:
		return true
	default:
		return false
	}
}

// IsSequence reports whether this kind is one of the dotted/slashed/
// chained composite forms (spec.md §3 "Sequence").
func (k Kind) IsSequence() bool {
	switch k {
	case KindTuple, KindChain, KindPath:
		return true
	default:
		return false
	}
}
