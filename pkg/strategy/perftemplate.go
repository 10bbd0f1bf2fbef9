package strategy

// BuildPerfTemplate generates the deterministic 250,000-byte synthetic
// Windows XP performance-data-block template PerformanceBufferReplay mixes
// QPC entropy into, based on the PERF_DATA_BLOCK layout.
//
// Grounded on
// original_source/libs/core/generators/src/satoshi_xp_synthetic.rs
// (SatoshiXpSyntheticHydrator::generate_gold_master_template).
func BuildPerfTemplate(clockHz uint64) []byte {
	buf := make([]byte, PerfBufferSize)

	// Signature "PERF" at offset 0.
	copy(buf[0:4], []byte("PERF"))

	// Version 0x00010001 at offset 4.
	buf[4] = 0x01
	buf[6] = 0x01

	// Header size, 160 bytes, at offset 8.
	buf[8] = 160

	// Performance frequency (little-endian u64) at offset 32.
	for i := 0; i < 8; i++ {
		buf[32+i] = byte(clockHz >> (8 * i))
	}

	injectProcessNoise(buf)
	return buf
}

// injectProcessNoise scatters fixed process-name markers at 1000-byte
// intervals starting at offset 200, simulating the process section of a
// real PERF_DATA_BLOCK enough to give the dynamic segment non-trivial,
// but fully deterministic, content.
func injectProcessNoise(buf []byte) {
	processes := []string{"system", "smss.exe", "lsass.exe", "services.exe", "explorer.exe", "bitcoin.exe"}
	offset := 200
	for _, name := range processes {
		if offset+50 > len(buf) {
			break
		}
		copy(buf[offset:offset+len(name)], []byte(name))
		offset += 1000
	}
}
