package evaluator

import (
	"math"
	"math/big"
	"testing"
)

func allocate(t *testing.T, rt *Runtime, size int) *Tuple {
	t.Helper()
	ptr, ok := callNative(t, rt, "mem.alloc_bytes", NewInteger(int64(size))).(*Tuple)
	if !ok {
		t.Fatal("mem.alloc_bytes did not return a pointer tuple")
	}
	return ptr
}

func offsetPtr(t *testing.T, rt *Runtime, ptr *Tuple, delta int64) *Tuple {
	t.Helper()
	moved, ok := callNative(t, rt, "mem.pointer_offset", ptr, NewInteger(delta)).(*Tuple)
	if !ok {
		t.Fatal("mem.pointer_offset did not return a pointer tuple")
	}
	return moved
}

func TestBufferLifecycle(t *testing.T) {
	rt := NewRuntime()
	ptr := allocate(t, rt, 16)

	expectInspect(t, callNative(t, rt, "mem.buffer_len", ptr), "16")
	expectInspect(t, callNative(t, rt, "mem.read_byte", ptr), "0")

	expectInspect(t, callNative(t, rt, "mem.free_bytes", ptr), "true")
	expectInspect(t, callNative(t, rt, "mem.free_bytes", ptr), "false")
	expectError(t, callNative(t, rt, "mem.read_byte", ptr), ERR_USE_AFTER_FREE)
	expectError(t, callNative(t, rt, "mem.buffer_len", ptr), ERR_USE_AFTER_FREE)
}

func TestByteAccess(t *testing.T) {
	rt := NewRuntime()
	ptr := allocate(t, rt, 8)

	expectInspect(t, callNative(t, rt, "mem.write_byte", ptr, NewInteger(0xAB)), "true")
	expectInspect(t, callNative(t, rt, "mem.read_byte", ptr), "171")

	third := offsetPtr(t, rt, ptr, 3)
	callNative(t, rt, "mem.write_byte", third, NewInteger(7))
	expectInspect(t, callNative(t, rt, "mem.read_byte", third), "7")

	t.Run("byte range checked", func(t *testing.T) {
		expectError(t, callNative(t, rt, "mem.write_byte", ptr, NewInteger(256)), ERR_TYPE)
		expectError(t, callNative(t, rt, "mem.write_byte", ptr, NewInteger(-1)), ERR_TYPE)
	})

	t.Run("offset past the end", func(t *testing.T) {
		end := offsetPtr(t, rt, ptr, 8)
		expectError(t, callNative(t, rt, "mem.read_byte", end), ERR_BOUNDS)
	})

	t.Run("pointer cannot leave the buffer", func(t *testing.T) {
		expectError(t, callNative(t, rt, "mem.pointer_offset", ptr, NewInteger(9)), ERR_BOUNDS)
		expectError(t, callNative(t, rt, "mem.pointer_offset", ptr, NewInteger(-1)), ERR_BOUNDS)
	})
}

func TestPointerDiff(t *testing.T) {
	rt := NewRuntime()
	ptr := allocate(t, rt, 8)
	high := offsetPtr(t, rt, ptr, 5)

	expectInspect(t, callNative(t, rt, "mem.pointer_diff", high, ptr), "5")
	expectInspect(t, callNative(t, rt, "mem.pointer_diff", ptr, high), "-5")

	other := allocate(t, rt, 8)
	expectError(t, callNative(t, rt, "mem.pointer_diff", ptr, other), ERR_TYPE)
}

func TestBlockOperations(t *testing.T) {
	rt := NewRuntime()
	ptr := allocate(t, rt, 8)

	callNative(t, rt, "mem.write_block", ptr, byteTuple([]byte{1, 2, 3, 4}))
	expectEqualObjects(t, callNative(t, rt, "mem.read_block", ptr, NewInteger(4)), byteTuple([]byte{1, 2, 3, 4}))

	callNative(t, rt, "mem.memset", offsetPtr(t, rt, ptr, 4), NewInteger(0xAA), NewInteger(4))
	expectEqualObjects(t, callNative(t, rt, "mem.read_block", offsetPtr(t, rt, ptr, 4), NewInteger(4)),
		byteTuple([]byte{0xAA, 0xAA, 0xAA, 0xAA}))

	dst := allocate(t, rt, 8)
	callNative(t, rt, "mem.memcpy", dst, ptr, NewInteger(8))
	expectInspect(t, callNative(t, rt, "mem.compare", dst, ptr, NewInteger(8)), "0")

	callNative(t, rt, "mem.write_byte", dst, NewInteger(0))
	expectInspect(t, callNative(t, rt, "mem.compare", dst, ptr, NewInteger(8)), "-1")
	expectInspect(t, callNative(t, rt, "mem.compare", ptr, dst, NewInteger(8)), "1")

	t.Run("read past the end", func(t *testing.T) {
		expectError(t, callNative(t, rt, "mem.read_block", ptr, NewInteger(9)), ERR_BOUNDS)
	})
}

func TestSearchAndChecksum(t *testing.T) {
	rt := NewRuntime()
	ptr := allocate(t, rt, 8)
	callNative(t, rt, "mem.write_block", ptr, byteTuple([]byte{5, 6, 7, 6, 7, 8, 0, 0}))

	expectInspect(t, callNative(t, rt, "mem.find_byte", ptr, NewInteger(7)), "2")
	expectInspect(t, callNative(t, rt, "mem.find_byte", offsetPtr(t, rt, ptr, 3), NewInteger(7)), "4")
	expectInspect(t, callNative(t, rt, "mem.find_byte", ptr, NewInteger(99)), "-1")

	expectInspect(t, callNative(t, rt, "mem.find_pattern", ptr, byteTuple([]byte{6, 7, 8})), "3")
	expectInspect(t, callNative(t, rt, "mem.find_pattern", ptr, byteTuple([]byte{9, 9})), "-1")
	expectError(t, callNative(t, rt, "mem.find_pattern", ptr, tup()), ERR_TYPE)

	expectInspect(t, callNative(t, rt, "mem.checksum", ptr, NewInteger(8)), "39")
	expectInspect(t, callNative(t, rt, "mem.count_byte", ptr, NewInteger(8), NewInteger(6)), "2")
}

func TestRearrangeOperations(t *testing.T) {
	rt := NewRuntime()
	ptr := allocate(t, rt, 6)
	callNative(t, rt, "mem.write_block", ptr, byteTuple([]byte{1, 2, 3, 4, 5, 6}))

	callNative(t, rt, "mem.reverse_block", ptr, NewInteger(6))
	expectEqualObjects(t, callNative(t, rt, "mem.read_block", ptr, NewInteger(6)),
		byteTuple([]byte{6, 5, 4, 3, 2, 1}))

	callNative(t, rt, "mem.swap_ranges", ptr, offsetPtr(t, rt, ptr, 3), NewInteger(3))
	expectEqualObjects(t, callNative(t, rt, "mem.read_block", ptr, NewInteger(6)),
		byteTuple([]byte{3, 2, 1, 6, 5, 4}))

	callNative(t, rt, "mem.fill_pattern", ptr, byteTuple([]byte{9, 8}), NewInteger(3))
	expectEqualObjects(t, callNative(t, rt, "mem.read_block", ptr, NewInteger(6)),
		byteTuple([]byte{9, 8, 9, 8, 9, 8}))

	expectText(t, callNative(t, rt, "mem.hexdump", ptr, NewInteger(3)), "09 08 09")
}

func TestMultiWidthAccessors(t *testing.T) {
	rt := NewRuntime()
	ptr := allocate(t, rt, 16)

	callNative(t, rt, "mem.write_u16_be", ptr, NewInteger(0x1234))
	expectEqualObjects(t, callNative(t, rt, "mem.read_block", ptr, NewInteger(2)), byteTuple([]byte{0x12, 0x34}))
	expectInspect(t, callNative(t, rt, "mem.read_u16_be", ptr), "4660")
	expectInspect(t, callNative(t, rt, "mem.read_u16_le", ptr), "13330")

	callNative(t, rt, "mem.write_u32_le", ptr, NewInteger(0x01020304))
	expectEqualObjects(t, callNative(t, rt, "mem.read_block", ptr, NewInteger(4)), byteTuple([]byte{4, 3, 2, 1}))
	expectInspect(t, callNative(t, rt, "mem.read_u32_le", ptr), "16909060")

	t.Run("u128 round trip", func(t *testing.T) {
		huge := &Integer{Value: new(big.Int).Lsh(big.NewInt(1), 100)}
		callNative(t, rt, "mem.write_u128_be", ptr, huge)
		expectEqualObjects(t, callNative(t, rt, "mem.read_u128_be", ptr), huge)
	})

	t.Run("value out of range", func(t *testing.T) {
		expectError(t, callNative(t, rt, "mem.write_u16_be", ptr, NewInteger(1<<16)), ERR_TYPE)
		expectError(t, callNative(t, rt, "mem.write_u16_be", ptr, NewInteger(-1)), ERR_TYPE)
	})

	t.Run("floats", func(t *testing.T) {
		callNative(t, rt, "mem.write_f64_be", ptr, &Float{Value: -2.25})
		expectInspect(t, callNative(t, rt, "mem.read_f64_be", ptr), "-2.25")
		callNative(t, rt, "mem.write_f32_le", ptr, &Float{Value: 1.5})
		expectInspect(t, callNative(t, rt, "mem.read_f32_le", ptr), "1.5")
	})

	t.Run("window exceeds buffer", func(t *testing.T) {
		tail := offsetPtr(t, rt, ptr, 10)
		expectError(t, callNative(t, rt, "mem.read_u64_be", tail), ERR_BOUNDS)
	})
}

func TestBitwiseOperations(t *testing.T) {
	rt := NewRuntime()
	tests := []struct {
		name string
		op   string
		args []Object
		want string
	}{
		{"and", "mem.binary_and", []Object{NewInteger(0b1100), NewInteger(0b1010)}, "8"},
		{"or", "mem.binary_or", []Object{NewInteger(0b1100), NewInteger(0b1010)}, "14"},
		{"xor", "mem.binary_xor", []Object{NewInteger(0b1100), NewInteger(0b1010)}, "6"},
		{"not", "mem.binary_not", []Object{NewInteger(0)}, "-1"},
		{"shift left", "mem.binary_shift_left", []Object{NewInteger(3), NewInteger(4)}, "48"},
		{"shift right", "mem.binary_shift_right", []Object{NewInteger(48), NewInteger(4)}, "3"},
		{"rotate left", "mem.binary_rotate_left", []Object{NewInteger(0b1011), NewInteger(1)}, "7"},
		{"rotate right", "mem.binary_rotate_right", []Object{NewInteger(0b1011), NewInteger(1)}, "13"},
		{"rotate full cycle", "mem.binary_rotate_left", []Object{NewInteger(0b1011), NewInteger(4)}, "11"},
		{"rotate zero", "mem.binary_rotate_left", []Object{NewInteger(0), NewInteger(3)}, "0"},
		{"rotate negative keeps sign", "mem.binary_rotate_left", []Object{NewInteger(-0b1011), NewInteger(1)}, "-7"},
		{"bit test set", "mem.bit_set", []Object{NewInteger(0), NewInteger(5)}, "32"},
		{"bit clear", "mem.bit_clear", []Object{NewInteger(33), NewInteger(0)}, "32"},
		{"bit toggle on", "mem.bit_toggle", []Object{NewInteger(32), NewInteger(5)}, "0"},
		{"bit toggle off", "mem.bit_toggle", []Object{NewInteger(0), NewInteger(5)}, "32"},
		{"bit count", "mem.bit_count", []Object{NewInteger(0b1011101)}, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectInspect(t, callNative(t, rt, tt.op, tt.args...), tt.want)
		})
	}

	t.Run("bit test", func(t *testing.T) {
		expectInspect(t, callNative(t, rt, "mem.bit_test", NewInteger(0b100), NewInteger(2)), "true")
		expectInspect(t, callNative(t, rt, "mem.bit_test", NewInteger(0b100), NewInteger(1)), "false")
	})

	t.Run("shift of big value stays exact", func(t *testing.T) {
		got := callNative(t, rt, "mem.binary_shift_left", NewInteger(1), NewInteger(100))
		expectInspect(t, got, "1267650600228229401496703205376")
	})
}

func TestSmartPointers(t *testing.T) {
	rt := NewRuntime()
	handle := callNative(t, rt, "mem.smart_pointer_new", text("payload"))

	expectText(t, callNative(t, rt, "mem.smart_pointer_get", handle), "payload")
	expectInspect(t, callNative(t, rt, "mem.smart_pointer_set", handle, NewInteger(5)), "true")
	expectInspect(t, callNative(t, rt, "mem.smart_pointer_get", handle), "5")

	clone := callNative(t, rt, "mem.smart_pointer_clone", handle)
	expectEqualObjects(t, clone, handle)

	// Two references alive: the first free keeps the cell.
	expectInspect(t, callNative(t, rt, "mem.smart_pointer_free", handle), "true")
	expectInspect(t, callNative(t, rt, "mem.smart_pointer_get", handle), "5")
	expectInspect(t, callNative(t, rt, "mem.smart_pointer_free", handle), "false")

	expectError(t, callNative(t, rt, "mem.smart_pointer_get", handle), ERR_USE_AFTER_FREE)
	expectError(t, callNative(t, rt, "mem.smart_pointer_set", handle, NewInteger(1)), ERR_USE_AFTER_FREE)
	expectError(t, callNative(t, rt, "mem.smart_pointer_free", handle), ERR_USE_AFTER_FREE)
	expectError(t, callNative(t, rt, "mem.smart_pointer_clone", handle), ERR_USE_AFTER_FREE)
}

func TestTupleGet(t *testing.T) {
	rt := NewRuntime()
	value := tup(text("a"), NewInteger(2), TRUE)
	expectText(t, callNative(t, rt, "mem.tuple_get", value, NewInteger(0)), "a")
	expectInspect(t, callNative(t, rt, "mem.tuple_get", value, NewInteger(2)), "true")
	expectError(t, callNative(t, rt, "mem.tuple_get", value, NewInteger(3)), ERR_BOUNDS)
}

func TestPointerArgumentValidation(t *testing.T) {
	rt := NewRuntime()
	expectError(t, callNative(t, rt, "mem.read_byte", NewInteger(1)), ERR_TYPE)
	expectError(t, callNative(t, rt, "mem.read_byte", tup(NewInteger(1))), ERR_TYPE)
	expectError(t, callNative(t, rt, "mem.read_byte"), ERR_ARITY)
	expectError(t, callNative(t, rt, "mem.alloc_bytes", NewInteger(-1)), ERR_TYPE)
}

// Pointer tuples can be built from arbitrary integers (decoded documents,
// structs.copy_replace), so extreme offsets must fail with BOUNDS rather
// than wrap around during the range check.
func TestForgedPointerOffsets(t *testing.T) {
	rt := NewRuntime()
	ptr := allocate(t, rt, 4)

	forged := tup(ptr.Elements[0], NewInteger(math.MaxInt64))
	expectError(t, callNative(t, rt, "mem.read_byte", forged), ERR_BOUNDS)
	expectError(t, callNative(t, rt, "mem.write_byte", forged, NewInteger(1)), ERR_BOUNDS)
	expectError(t, callNative(t, rt, "mem.read_u64_le", forged), ERR_BOUNDS)
	expectError(t, callNative(t, rt, "mem.write_u32_be", forged, NewInteger(1)), ERR_BOUNDS)
	expectError(t, callNative(t, rt, "mem.read_block", forged, NewInteger(1)), ERR_BOUNDS)
	expectError(t, callNative(t, rt, "mem.memset", forged, NewInteger(0), NewInteger(1)), ERR_BOUNDS)
	expectError(t, callNative(t, rt, "mem.find_pattern", forged, tup(NewInteger(1))), ERR_BOUNDS)
	expectError(t, callNative(t, rt, "mem.hexdump", forged, NewInteger(1)), ERR_BOUNDS)

	t.Run("offset just past the end", func(t *testing.T) {
		past := tup(ptr.Elements[0], NewInteger(5))
		expectError(t, callNative(t, rt, "mem.read_byte", past), ERR_BOUNDS)
		expectError(t, callNative(t, rt, "mem.write_byte", past, NewInteger(1)), ERR_BOUNDS)
	})

	// the buffer itself is untouched
	expectInspect(t, callNative(t, rt, "mem.read_byte", ptr), "0")
}
