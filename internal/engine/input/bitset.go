package input

// slotCount covers every key followed by every mouse button.
const slotCount = KeyCount + MouseButtonCount

type bitset [(slotCount + 63) / 64]uint64

func (b *bitset) set(i int)       { b[i/64] |= 1 << (i % 64) }
func (b *bitset) clear(i int)     { b[i/64] &^= 1 << (i % 64) }
func (b *bitset) test(i int) bool { return b[i/64]&(1<<(i%64)) != 0 }
func (b *bitset) reset()          { *b = bitset{} }

func keySlot(k Key) int            { return int(k) }
func buttonSlot(m MouseButton) int { return KeyCount + int(m) }
