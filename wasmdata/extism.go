package wasmdata

// extismHostModule is the import namespace of the Extism kernel.
const extismHostModule = "extism:host/env"

func uleb(n int) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func section(id byte, body []byte) []byte {
	out := append([]byte{id}, uleb(len(body))...)
	return append(out, body...)
}

func wasmName(s string) []byte {
	return append(uleb(len(s)), s...)
}

func importFunc(field string, typeIdx byte) []byte {
	out := append(wasmName(extismHostModule), wasmName(field)...)
	return append(out, 0x00, typeIdx)
}

// extismAddBody sums every run of decimal digits in the plugin input and
// writes the sum back as decimal text. For the {"a":10,"b":5} input sent by
// the extism engine this is a+b.
//
// Locals: 0 input length, 1 index, 2 sum, 3 current number, 4 byte,
// 5 output pointer, 6 output position.
var extismAddBody = []byte{
	0x03, 0x04, typeI64, 0x01, typeI32, 0x02, typeI64,

	0x10, 0x00, 0x21, 0x00, // len = input_length()
	0x02, 0x40, // block
	0x03, 0x40, // loop
	0x20, 0x01, 0x20, 0x00, 0x5a, 0x0d, 0x01, // br_if i >= len
	0x20, 0x01, 0x10, 0x01, 0x21, 0x04, // c = input_load_u8(i)
	0x20, 0x04, 0x41, 0x30, 0x6b, 0x41, 0x0a, 0x49, // c-'0' < 10
	0x04, 0x40,
	0x20, 0x03, 0x42, 0x0a, 0x7e, 0x20, 0x04, 0x41, 0x30, 0x6b, 0xad, 0x7c, 0x21, 0x03,
	0x05,
	0x20, 0x02, 0x20, 0x03, 0x7c, 0x21, 0x02, 0x42, 0x00, 0x21, 0x03,
	0x0b,
	0x20, 0x01, 0x42, 0x01, 0x7c, 0x21, 0x01, // i++
	0x0c, 0x00,
	0x0b,
	0x0b,
	0x20, 0x02, 0x20, 0x03, 0x7c, 0x21, 0x02, // sum += cur

	0x42, 0x14, 0x10, 0x02, 0x21, 0x05, // ptr = alloc(20)
	0x42, 0x14, 0x21, 0x06, // pos = 20
	0x03, 0x40,
	0x20, 0x06, 0x42, 0x01, 0x7d, 0x21, 0x06,
	0x20, 0x05, 0x20, 0x06, 0x7c,
	0x20, 0x02, 0x42, 0x0a, 0x82, 0xa7, 0x41, 0x30, 0x6a,
	0x10, 0x03, // store_u8(ptr+pos, '0'+sum%10)
	0x20, 0x02, 0x42, 0x0a, 0x80, 0x22, 0x02,
	0x42, 0x00, 0x52, 0x0d, 0x00, // loop while sum /= 10 != 0
	0x0b,
	0x20, 0x05, 0x20, 0x06, 0x7c,
	0x42, 0x14, 0x20, 0x06, 0x7d,
	0x10, 0x04, // output_set(ptr+pos, 20-pos)
	0x41, 0x00,
	0x0b,
}

func extismPlugin(export string) []byte {
	types := []byte{
		0x06,
		0x60, 0x00, 0x01, typeI64, // input_length
		0x60, 0x01, typeI64, 0x01, typeI32, // input_load_u8
		0x60, 0x01, typeI64, 0x01, typeI64, // alloc
		0x60, 0x02, typeI64, typeI32, 0x00, // store_u8
		0x60, 0x02, typeI64, typeI64, 0x00, // output_set
		0x60, 0x00, 0x01, typeI32, // entry point
	}

	imports := []byte{0x05}
	imports = append(imports, importFunc("input_length", 0)...)
	imports = append(imports, importFunc("input_load_u8", 1)...)
	imports = append(imports, importFunc("alloc", 2)...)
	imports = append(imports, importFunc("store_u8", 3)...)
	imports = append(imports, importFunc("output_set", 4)...)

	exports := append([]byte{0x01}, wasmName(export)...)
	exports = append(exports, 0x00, 0x05)

	code := append([]byte{0x01}, uleb(len(extismAddBody))...)
	code = append(code, extismAddBody...)

	return module(
		section(0x01, types),
		section(0x02, imports),
		section(0x03, []byte{0x01, 0x05}),
		section(0x07, exports),
		section(0x0a, code),
	)
}

// ExtismAdd is an Extism plugin exporting add. It reads {"a":x,"b":y} as
// input and outputs x+y as text. Only whole, non-negative numbers are
// supported. It is the default module of the extism engine.
var ExtismAdd = extismPlugin(EntrypointAdd)
