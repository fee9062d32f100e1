package model

import "encoding/json"

// BusyKind tags one of the independent per-scene in-flight operations.
type BusyKind uint8

const (
	BusyImage BusyKind = iota
	BusyPrompt
	busyKindCount
)

func (k BusyKind) String() string {
	switch k {
	case BusyImage:
		return "generatingImage"
	case BusyPrompt:
		return "enhancingPrompt"
	}
	return "unknown"
}

// Valid reports whether k is one of the declared kinds.
func (k BusyKind) Valid() bool { return k < busyKindCount }

// BusyFlags is a bit set indexed by BusyKind.
type BusyFlags uint8

func (f BusyFlags) Has(k BusyKind) bool { return f&(1<<k) != 0 }

func (f BusyFlags) With(k BusyKind, on bool) BusyFlags {
	if on {
		return f | 1<<k
	}
	return f &^ (1 << k)
}

func (f BusyFlags) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, busyKindCount)
	for k := BusyKind(0); k < busyKindCount; k++ {
		m[k.String()] = f.Has(k)
	}
	return json.Marshal(m)
}

// GlobalOp tags a production-wide operation.
type GlobalOp uint8

const (
	OpSegment GlobalOp = iota
	OpRefine
	OpNarrate
	OpThumbnail
	OpEnhanceAll
	OpStyle
	globalOpCount
)

func (op GlobalOp) String() string {
	switch op {
	case OpSegment:
		return "segmenting"
	case OpRefine:
		return "refiningScript"
	case OpNarrate:
		return "generatingAudio"
	case OpThumbnail:
		return "generatingThumbnail"
	case OpEnhanceAll:
		return "enhancingAll"
	case OpStyle:
		return "analyzingStyle"
	}
	return "unknown"
}

// GlobalFlags is a bit set indexed by GlobalOp.
type GlobalFlags uint8

func (f GlobalFlags) Has(op GlobalOp) bool { return f&(1<<op) != 0 }

func (f GlobalFlags) With(op GlobalOp, on bool) GlobalFlags {
	if on {
		return f | 1<<op
	}
	return f &^ (1 << op)
}

func (f GlobalFlags) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, globalOpCount)
	for op := GlobalOp(0); op < globalOpCount; op++ {
		m[op.String()] = f.Has(op)
	}
	return json.Marshal(m)
}
