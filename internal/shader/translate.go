// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"crypto/sha256"

	"github.com/gogpu/gpurt/internal/cache"
)

// Module is WGSL source translated to SPIR-V together with its reflected
// compute interface. A Module holds no GPU objects and may be shared
// between devices.
type Module struct {
	Words []uint32
	Iface *Interface
}

// CompilerError carries a diagnostic from naga.
type CompilerError struct {
	Err error
}

func (e *CompilerError) Error() string { return e.Err.Error() }
func (e *CompilerError) Unwrap() error { return e.Err }

// Translator turns WGSL source into Modules. With a non-zero limit it
// keeps recent translations keyed by the SHA-256 of the source; failed
// translations are never kept. A nil *Translator translates every time.
type Translator struct {
	modules *cache.Cache[[sha256.Size]byte, *Module]
}

// NewTranslator returns a Translator caching up to limit modules, or nil
// when limit is not positive.
func NewTranslator(limit int) *Translator {
	if limit <= 0 {
		return nil
	}
	return &Translator{modules: cache.New[[sha256.Size]byte, *Module](limit)}
}

// Translate compiles and reflects source. Compiler diagnostics come back
// as *CompilerError; anything else is a reflection failure.
func (t *Translator) Translate(source string) (*Module, error) {
	if t == nil {
		return translate(source)
	}
	return t.modules.GetOrCreate(sha256.Sum256([]byte(source)), func() (*Module, error) {
		return translate(source)
	})
}

// Stats reports the cache counters. A nil Translator reports zeros.
func (t *Translator) Stats() cache.Stats {
	if t == nil {
		return cache.Stats{}
	}
	return t.modules.Stats()
}

// translate lowers source once. The interface and the SPIR-V are both
// derived from that IR.
func translate(source string) (*Module, error) {
	module, err := Lower(source)
	if err != nil {
		return nil, &CompilerError{Err: err}
	}
	iface, err := Reflect(module)
	if err != nil {
		return nil, err
	}
	words, err := Generate(module)
	if err != nil {
		return nil, &CompilerError{Err: err}
	}
	return &Module{Words: words, Iface: iface}, nil
}
