package cluster

// hashSeedStep is the odd golden-ratio constant mixed in for every token.
const hashSeedStep = 0x9e3779b9

// Hash folds the tokens of a sequence, in order, into a 64-bit value.
// It is only an in-process equality shortcut and is never persisted.
func Hash(tokens []string) uint64 {
	var seed uint64
	for _, tok := range tokens {
		seed ^= hashToken(tok) + hashSeedStep + (seed << 6) + (seed >> 2)
	}
	return seed
}

// hashToken is the sdbm polynomial string hash.
func hashToken(s string) uint64 {
	var h uint64
	for i := 0; i < len(s); i++ {
		h = uint64(s[i]) + (h << 6) + (h << 16) - h
	}
	return h
}
