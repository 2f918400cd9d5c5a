package kinds

const (
	length   = 64
	idLength = 8
	depthMax = length / idLength
	idMask   = (1 << idLength) - 1
)

// Bases returns the base IDs at each level beyond the first.
func Bases(t uint64) [depthMax]uint64 {
	var bases [depthMax]uint64
	for i := 1; i < depthMax; i++ {
		bases[i-1] = (t >> (idLength * i)) & idMask
	}
	return bases
}

// Kind packs id together with every distinct base id of the given bases.
func Kind(id uint64, bases ...uint64) uint64 {
	id = id & idMask
	ids := make(map[uint64]struct{})

	for _, base := range bases {
		for j := 0; j < depthMax; j++ {
			baseId := (base >> (idLength * j)) & idMask
			if baseId == 0 {
				break
			}
			if _, ok := ids[baseId]; !ok {
				ids[baseId] = struct{}{}
				id |= baseId << (idLength * len(ids))
			}
		}
	}
	return id
}

// IsKind reports whether kind is, or derives from, any of bases.
func IsKind(kind uint64, bases ...uint64) bool {
	for _, base := range bases {
		baseId := base & idMask
		if kind == baseId {
			return true
		}
		for i := 0; i < depthMax; i++ {
			currentId := (kind >> (idLength * i)) & idMask
			if currentId == baseId {
				return true
			}
		}
	}
	return false
}

var (
	Null     = Kind(0)
	Element  = Kind(1)
	Behavior = Kind(2, Element)
	Sequence = Kind(3, Behavior)
	Action   = Kind(4, Behavior)

	Phase  = Kind(5, Element)
	Start  = Kind(6, Phase)
	Update = Kind(7, Phase)
	End    = Kind(8, Phase)

	Block      = Kind(9, Element)
	Group      = Kind(10, Element)
	Global     = Kind(11, Group)
	Transition = Kind(12, Element)
	Default    = Kind(13, Transition)
)
