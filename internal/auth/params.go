// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth

import (
	"github.com/samber/oops"
)

// Bounds on argon2id parameters. They apply both to configured work
// factors and to parameters embedded in stored hashes, so a crafted hash
// cannot request unbounded memory or time.
const (
	MinSaltLength  = 8
	MaxSaltLength  = 64
	MinKeyLength   = 16
	MaxKeyLength   = 128
	MaxMemoryKiB   = 1 << 20 // 1 GiB
	MaxIterations  = 64
	MinParallelism = 1
)

// Params is the argon2id work factor.
type Params struct {
	MemoryKiB   uint32 `koanf:"memory_kib" yaml:"memory_kib"`
	Iterations  uint32 `koanf:"iterations" yaml:"iterations"`
	Parallelism uint8  `koanf:"parallelism" yaml:"parallelism"`
	SaltLength  uint32 `koanf:"salt_length" yaml:"salt_length"`
	KeyLength   uint32 `koanf:"key_length" yaml:"key_length"`
}

// DefaultParams returns the OWASP argon2id baseline (19 MiB, 2 passes,
// 1 lane). One hash takes a few tens of milliseconds on current hardware.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   19 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate checks p against the argon2id limits above.
func (p Params) Validate() error {
	if p.Parallelism < MinParallelism {
		return paramsError("parallelism", p.Parallelism, "parallelism must be at least %d", MinParallelism)
	}
	// argon2 needs at least 8 KiB per lane.
	if p.MemoryKiB < 8*uint32(p.Parallelism) {
		return paramsError("memory_kib", p.MemoryKiB, "memory must be at least %d KiB for %d lanes", 8*uint32(p.Parallelism), p.Parallelism)
	}
	if p.MemoryKiB > MaxMemoryKiB {
		return paramsError("memory_kib", p.MemoryKiB, "memory must be at most %d KiB", MaxMemoryKiB)
	}
	if p.Iterations < 1 || p.Iterations > MaxIterations {
		return paramsError("iterations", p.Iterations, "iterations must be between 1 and %d", MaxIterations)
	}
	if p.SaltLength < MinSaltLength || p.SaltLength > MaxSaltLength {
		return paramsError("salt_length", p.SaltLength, "salt length must be between %d and %d bytes", MinSaltLength, MaxSaltLength)
	}
	if p.KeyLength < MinKeyLength || p.KeyLength > MaxKeyLength {
		return paramsError("key_length", p.KeyLength, "key length must be between %d and %d bytes", MinKeyLength, MaxKeyLength)
	}
	return nil
}

// weakerThan reports whether p costs less than target in memory, passes,
// salt, or output length. Parallelism only changes the lane layout.
func (p Params) weakerThan(target Params) bool {
	return p.MemoryKiB < target.MemoryKiB ||
		p.Iterations < target.Iterations ||
		p.SaltLength < target.SaltLength ||
		p.KeyLength < target.KeyLength
}

func paramsError(field string, value any, format string, args ...any) error {
	return oops.Code("AUTH_HASH_PARAMS_INVALID").
		With("field", field).
		With("value", value).
		Wrapf(ErrInvalidParams, format, args...)
}
