// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Thermoquad/tlc/internal/checksum"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// newFuzzRng creates a seeded generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := time.Now().UnixNano()
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if s, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			seed = s
		}
	}
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func randomPayload(rng *rand.Rand) map[int]interface{} {
	n := rng.Intn(8)
	m := make(map[int]interface{}, n)
	for i := 0; i < n; i++ {
		key := rng.Intn(16)
		switch rng.Intn(3) {
		case 0:
			m[key] = uint64(rng.Intn(1 << 16))
		case 1:
			m[key] = rng.Float32() * 1000
		case 2:
			m[key] = rng.Intn(2) == 1
		}
	}
	return m
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

func TestFuzz_RandomBytesNeverPanic(t *testing.T) {
	rng := newFuzzRng(t)
	d := NewDecoder()
	buf := make([]byte, 256)
	for round := 0; round < getFuzzRounds(); round++ {
		rng.Read(buf)
		for _, b := range buf[:rng.Intn(len(buf))] {
			if p, err := d.DecodeByte(b); err == nil && p != nil {
				_ = FormatPacket(p)
			}
		}
	}
}

func TestFuzz_EncodeDecodeRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	d := NewDecoder()
	types := []uint8{MsgStatusData, MsgAlarmEvent, MsgConfigData, MsgCycleEvent}
	for round := 0; round < getFuzzRounds(); round++ {
		msgType := types[rng.Intn(len(types))]
		payload := randomPayload(rng)
		frame, err := Encode(msgType, payload)
		if err != nil {
			t.Fatalf("round %d: Encode() error = %v", round, err)
		}
		var errs []error
		packets := d.Decode(frame, func(err error) { errs = append(errs, err) })
		if len(errs) != 0 || len(packets) != 1 {
			t.Fatalf("round %d: packets = %d, errors = %v", round, len(packets), errs)
		}
		if packets[0].Type() != msgType || len(packets[0].PayloadMap()) != len(payload) {
			t.Fatalf("round %d: got type 0x%02X with %d keys, want 0x%02X with %d",
				round, packets[0].Type(), len(packets[0].PayloadMap()), msgType, len(payload))
		}
	}
}

func TestFuzz_SingleBitFlipRejected(t *testing.T) {
	rng := newFuzzRng(t)
	for round := 0; round < getFuzzRounds(); round++ {
		payload, err := encodeCBORPayload(MsgStatusData, randomPayload(rng))
		if err != nil {
			t.Fatal(err)
		}
		body := append([]byte{uint8(len(payload))}, payload...)
		crc := checksum.CRC16(body)
		body = append(body, byte(crc>>8), byte(crc))

		// Flip one bit after the length byte so the frame shape is kept.
		i := 1 + rng.Intn(len(body)-1)
		body[i] ^= 1 << uint(rng.Intn(8))

		frame := append([]byte{StartByte}, stuffBytes(body)...)
		frame = append(frame, EndByte)
		if packets := NewDecoder().Decode(frame, nil); len(packets) != 0 {
			t.Fatalf("round %d: corrupted frame accepted", round)
		}
	}
}
