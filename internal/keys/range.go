package keys

// PrefixRange returns the half-open range [lo, hi) that contains
// exactly the keys starting with prefix, per spec §4.1's
// prefix(scope)/suffix(scope) contract. hi is prefix with its last
// byte that isn't already 0xFF incremented, and any trailing 0xFF
// bytes dropped; if prefix is all 0xFF (vanishingly unlikely given our
// family tags), hi is nil meaning "no upper bound".
func PrefixRange(prefix []byte) (lo, hi []byte) {
	lo = append([]byte(nil), prefix...)
	hi = append([]byte(nil), prefix...)
	for i := len(hi) - 1; i >= 0; i-- {
		if hi[i] < 0xFF {
			hi[i]++
			return lo, hi[:i+1]
		}
	}
	return lo, nil
}
