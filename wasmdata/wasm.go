// Package wasmdata holds small hand-assembled WebAssembly modules. SampleLib
// is served when no external module is configured; the rest exist so the
// engines can be exercised against each outcome of initialization.
package wasmdata

// EntrypointAdd is the export every sample module provides, mirroring the
// add function of the generated sample library.
const EntrypointAdd = "add"

// EntrypointSub is exported by SubI32 and is used to check argument order.
const EntrypointSub = "sub"

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func module(sections ...[]byte) []byte {
	out := append([]byte{}, header...)
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// binaryOp builds a module exporting name as a two-argument function of type
// valType whose body applies opcode to both locals.
func binaryOp(name string, valType, opcode byte) []byte {
	exportBody := append([]byte{0x01, byte(len(name))}, name...)
	exportBody = append(exportBody, 0x00, 0x00)
	return module(
		[]byte{0x01, 0x07, 0x01, 0x60, 0x02, valType, valType, 0x01, valType},
		[]byte{0x03, 0x02, 0x01, 0x00},
		append([]byte{0x07, byte(len(exportBody))}, exportBody...),
		[]byte{0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, opcode, 0x0b},
	)
}

const (
	typeI32 = 0x7f
	typeI64 = 0x7e
	typeF32 = 0x7d
	typeF64 = 0x7c

	opI32Add = 0x6a
	opI32Sub = 0x6b
	opI64Add = 0x7c
	opF32Add = 0x92
	opF64Add = 0xa0
)

var (
	// SampleLib exports add(i32, i32) -> i32.
	SampleLib = binaryOp(EntrypointAdd, typeI32, opI32Add)

	// SubI32 exports sub(i32, i32) -> i32.
	SubI32 = binaryOp(EntrypointSub, typeI32, opI32Sub)

	// AddI64 exports add(i64, i64) -> i64.
	AddI64 = binaryOp(EntrypointAdd, typeI64, opI64Add)

	// AddF32 exports add(f32, f32) -> f32.
	AddF32 = binaryOp(EntrypointAdd, typeF32, opF32Add)

	// AddF64 exports add(f64, f64) -> f64, the JavaScript number type.
	AddF64 = binaryOp(EntrypointAdd, typeF64, opF64Add)

	// NoExports defines add(i32, i32) -> i32 but does not export it.
	NoExports = module(
		[]byte{0x01, 0x07, 0x01, 0x60, 0x02, typeI32, typeI32, 0x01, typeI32},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, opI32Add, 0x0b},
	)

	// WrongSignature exports add() -> i32, which always returns 15.
	WrongSignature = module(
		[]byte{0x01, 0x05, 0x01, 0x60, 0x00, 0x01, typeI32},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00},
		[]byte{0x0a, 0x06, 0x01, 0x04, 0x00, 0x41, 0x0f, 0x0b},
	)

	// TrapOnStart has a start function that executes unreachable, so
	// instantiation always fails.
	TrapOnStart = module(
		[]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00},
		[]byte{0x03, 0x02, 0x01, 0x00},
		[]byte{0x08, 0x01, 0x00},
		[]byte{0x0a, 0x05, 0x01, 0x03, 0x00, 0x00, 0x0b},
	)
)
