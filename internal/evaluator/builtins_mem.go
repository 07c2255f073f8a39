package evaluator

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// memModule simulates byte-addressable memory over the runtime's buffer
// arena. Pointers are (handle, offset) tuples; offsets may sit one past the
// end of a buffer, like a C one-past pointer, but dereferencing there fails.
func memModule() map[string]*Builtin {
	m := map[string]*Builtin{
		"alloc_bytes": {Name: "mem.alloc_bytes", Arity: 1, Fn: memAllocBytes},
		"free_bytes":  {Name: "mem.free_bytes", Arity: 1, Fn: memFreeBytes},
		"buffer_len":  {Name: "mem.buffer_len", Arity: 1, Fn: memBufferLen},

		"pointer_offset": {Name: "mem.pointer_offset", Arity: 2, Fn: memPointerOffset},
		"pointer_diff":   {Name: "mem.pointer_diff", Arity: 2, Fn: memPointerDiff},

		"write_byte":  {Name: "mem.write_byte", Arity: 2, Fn: memWriteByte},
		"read_byte":   {Name: "mem.read_byte", Arity: 1, Fn: memReadByte},
		"memset":      {Name: "mem.memset", Arity: 3, Fn: memMemset},
		"memcpy":      {Name: "mem.memcpy", Arity: 3, Fn: memMemcpy},
		"read_block":  {Name: "mem.read_block", Arity: 2, Fn: memReadBlock},
		"write_block": {Name: "mem.write_block", Arity: 2, Fn: memWriteBlock},

		"compare":       {Name: "mem.compare", Arity: 3, Fn: memCompare},
		"find_byte":     {Name: "mem.find_byte", Arity: 2, Fn: memFindByte},
		"find_pattern":  {Name: "mem.find_pattern", Arity: 2, Fn: memFindPattern},
		"checksum":      {Name: "mem.checksum", Arity: 2, Fn: memChecksum},
		"swap_ranges":   {Name: "mem.swap_ranges", Arity: 3, Fn: memSwapRanges},
		"reverse_block": {Name: "mem.reverse_block", Arity: 2, Fn: memReverseBlock},
		"count_byte":    {Name: "mem.count_byte", Arity: 3, Fn: memCountByte},
		"fill_pattern":  {Name: "mem.fill_pattern", Arity: 3, Fn: memFillPattern},
		"hexdump":       {Name: "mem.hexdump", Arity: 2, Fn: memHexdump},

		"binary_and":          {Name: "mem.binary_and", Arity: 2, Fn: memBinaryAnd},
		"binary_or":           {Name: "mem.binary_or", Arity: 2, Fn: memBinaryOr},
		"binary_xor":          {Name: "mem.binary_xor", Arity: 2, Fn: memBinaryXor},
		"binary_not":          {Name: "mem.binary_not", Arity: 1, Fn: memBinaryNot},
		"binary_shift_left":   {Name: "mem.binary_shift_left", Arity: 2, Fn: memShiftLeft},
		"binary_shift_right":  {Name: "mem.binary_shift_right", Arity: 2, Fn: memShiftRight},
		"binary_rotate_left":  {Name: "mem.binary_rotate_left", Arity: 2, Fn: memRotateLeft},
		"binary_rotate_right": {Name: "mem.binary_rotate_right", Arity: 2, Fn: memRotateRight},
		"bit_test":            {Name: "mem.bit_test", Arity: 2, Fn: memBitTest},
		"bit_set":             {Name: "mem.bit_set", Arity: 2, Fn: memBitSet},
		"bit_clear":           {Name: "mem.bit_clear", Arity: 2, Fn: memBitClear},
		"bit_toggle":          {Name: "mem.bit_toggle", Arity: 2, Fn: memBitToggle},
		"bit_count":           {Name: "mem.bit_count", Arity: 1, Fn: memBitCount},

		"smart_pointer_new":   {Name: "mem.smart_pointer_new", Arity: 1, Fn: memSmartNew},
		"smart_pointer_get":   {Name: "mem.smart_pointer_get", Arity: 1, Fn: memSmartGet},
		"smart_pointer_set":   {Name: "mem.smart_pointer_set", Arity: 2, Fn: memSmartSet},
		"smart_pointer_clone": {Name: "mem.smart_pointer_clone", Arity: 1, Fn: memSmartClone},
		"smart_pointer_free":  {Name: "mem.smart_pointer_free", Arity: 1, Fn: memSmartFree},

		"tuple_get": {Name: "mem.tuple_get", Arity: 2, Fn: memTupleGet},
	}

	for _, width := range []int{2, 4, 8, 16} {
		for _, little := range []bool{true, false} {
			read, write := uintAccessors(width, little)
			m[read.shortName] = read.builtin
			m[write.shortName] = write.builtin
		}
	}
	for _, width := range []int{4, 8} {
		for _, little := range []bool{true, false} {
			read, write := floatAccessors(width, little)
			m[read.shortName] = read.builtin
			m[write.shortName] = write.builtin
		}
	}
	return m
}

// readWindow fetches a copy of buffer[offset:offset+width] or fails with
// the right error kind.
func (rt *Runtime) readWindow(name string, handle uint64, offset, width int) ([]byte, *Error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	buf, ok := rt.buffer(handle)
	if !ok {
		return nil, newError(ERR_USE_AFTER_FREE, "%s: unknown buffer handle", name)
	}
	if offset > len(buf) || width > len(buf)-offset {
		return nil, newBoundsError("%s exceeds buffer length", name)
	}
	out := make([]byte, width)
	copy(out, buf[offset:offset+width])
	return out, nil
}

func (rt *Runtime) writeWindow(name string, handle uint64, offset int, data []byte) *Error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	buf, ok := rt.buffer(handle)
	if !ok {
		return newError(ERR_USE_AFTER_FREE, "%s: unknown buffer handle", name)
	}
	if offset > len(buf) || len(data) > len(buf)-offset {
		return newBoundsError("%s exceeds buffer length", name)
	}
	copy(buf[offset:], data)
	return nil
}

func memAllocBytes(rt *Runtime, args []Object) Object {
	size, err := argUsize("mem.alloc_bytes", args, 0)
	if err != nil {
		return err
	}
	handle := rt.allocBuffer(size)
	return pointerObject(handle, 0)
}

func memFreeBytes(rt *Runtime, args []Object) Object {
	handle, _, err := argPointer("mem.free_bytes", args, 0)
	if err != nil {
		return err
	}
	return nativeBoolToBooleanObject(rt.freeBuffer(handle))
}

func memBufferLen(rt *Runtime, args []Object) Object {
	handle, _, err := argPointer("mem.buffer_len", args, 0)
	if err != nil {
		return err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	buf, ok := rt.buffer(handle)
	if !ok {
		return newError(ERR_USE_AFTER_FREE, "mem.buffer_len: unknown buffer handle")
	}
	return NewInteger(int64(len(buf)))
}

func memPointerOffset(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.pointer_offset", args, 0)
	if err != nil {
		return err
	}
	delta, err := argInt64("mem.pointer_offset", args, 1)
	if err != nil {
		return err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	buf, ok := rt.buffer(handle)
	if !ok {
		return newError(ERR_USE_AFTER_FREE, "mem.pointer_offset: unknown buffer handle")
	}
	target := int64(offset) + delta
	if target < 0 || target > int64(len(buf)) {
		return newBoundsError("mem.pointer_offset moves outside the buffer")
	}
	return pointerObject(handle, int(target))
}

func memPointerDiff(rt *Runtime, args []Object) Object {
	leftHandle, leftOffset, err := argPointer("mem.pointer_diff", args, 0)
	if err != nil {
		return err
	}
	rightHandle, rightOffset, err := argPointer("mem.pointer_diff", args, 1)
	if err != nil {
		return err
	}
	if leftHandle != rightHandle {
		return newTypeError("mem.pointer_diff expects pointers derived from the same buffer")
	}
	return NewInteger(int64(leftOffset) - int64(rightOffset))
}

func memWriteByte(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.write_byte", args, 0)
	if err != nil {
		return err
	}
	value, err := argByte("mem.write_byte", args, 1)
	if err != nil {
		return err
	}
	if werr := rt.writeWindow("mem.write_byte", handle, offset, []byte{value}); werr != nil {
		return werr
	}
	return TRUE
}

func memReadByte(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.read_byte", args, 0)
	if err != nil {
		return err
	}
	window, rerr := rt.readWindow("mem.read_byte", handle, offset, 1)
	if rerr != nil {
		return rerr
	}
	return NewInteger(int64(window[0]))
}

func memMemset(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.memset", args, 0)
	if err != nil {
		return err
	}
	value, err := argByte("mem.memset", args, 1)
	if err != nil {
		return err
	}
	length, err := argUsize("mem.memset", args, 2)
	if err != nil {
		return err
	}
	fill := make([]byte, length)
	for i := range fill {
		fill[i] = value
	}
	if werr := rt.writeWindow("mem.memset", handle, offset, fill); werr != nil {
		return werr
	}
	return TRUE
}

func memMemcpy(rt *Runtime, args []Object) Object {
	dstHandle, dstOffset, err := argPointer("mem.memcpy", args, 0)
	if err != nil {
		return err
	}
	srcHandle, srcOffset, err := argPointer("mem.memcpy", args, 1)
	if err != nil {
		return err
	}
	length, err := argUsize("mem.memcpy", args, 2)
	if err != nil {
		return err
	}
	window, rerr := rt.readWindow("mem.memcpy", srcHandle, srcOffset, length)
	if rerr != nil {
		return rerr
	}
	if werr := rt.writeWindow("mem.memcpy", dstHandle, dstOffset, window); werr != nil {
		return werr
	}
	return TRUE
}

func memReadBlock(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.read_block", args, 0)
	if err != nil {
		return err
	}
	length, err := argUsize("mem.read_block", args, 1)
	if err != nil {
		return err
	}
	window, rerr := rt.readWindow("mem.read_block", handle, offset, length)
	if rerr != nil {
		return rerr
	}
	return byteTuple(window)
}

func memWriteBlock(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.write_block", args, 0)
	if err != nil {
		return err
	}
	elems, err := argTuple("mem.write_block", args, 1)
	if err != nil {
		return err
	}
	data, err := tupleBytes("mem.write_block", elems)
	if err != nil {
		return err
	}
	if werr := rt.writeWindow("mem.write_block", handle, offset, data); werr != nil {
		return werr
	}
	return TRUE
}

func memCompare(rt *Runtime, args []Object) Object {
	leftHandle, leftOffset, err := argPointer("mem.compare", args, 0)
	if err != nil {
		return err
	}
	rightHandle, rightOffset, err := argPointer("mem.compare", args, 1)
	if err != nil {
		return err
	}
	length, err := argUsize("mem.compare", args, 2)
	if err != nil {
		return err
	}
	left, rerr := rt.readWindow("mem.compare", leftHandle, leftOffset, length)
	if rerr != nil {
		return rerr
	}
	right, rerr := rt.readWindow("mem.compare", rightHandle, rightOffset, length)
	if rerr != nil {
		return rerr
	}
	for i := 0; i < length; i++ {
		if left[i] != right[i] {
			if left[i] < right[i] {
				return NewInteger(-1)
			}
			return NewInteger(1)
		}
	}
	return NewInteger(0)
}

func memFindByte(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.find_byte", args, 0)
	if err != nil {
		return err
	}
	target, err := argByte("mem.find_byte", args, 1)
	if err != nil {
		return err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	buf, ok := rt.buffer(handle)
	if !ok {
		return newError(ERR_USE_AFTER_FREE, "mem.find_byte: unknown buffer handle")
	}
	if offset >= len(buf) {
		return newBoundsError("mem.find_byte offset exceeds buffer length")
	}
	for i := offset; i < len(buf); i++ {
		if buf[i] == target {
			return NewInteger(int64(i))
		}
	}
	return NewInteger(-1)
}

func memFindPattern(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.find_pattern", args, 0)
	if err != nil {
		return err
	}
	elems, err := argTuple("mem.find_pattern", args, 1)
	if err != nil {
		return err
	}
	if len(elems) == 0 {
		return newTypeError("mem.find_pattern expects a non-empty pattern tuple")
	}
	pattern, err := tupleBytes("mem.find_pattern", elems)
	if err != nil {
		return err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	buf, ok := rt.buffer(handle)
	if !ok {
		return newError(ERR_USE_AFTER_FREE, "mem.find_pattern: unknown buffer handle")
	}
	if offset > len(buf) || len(pattern) > len(buf)-offset {
		return newBoundsError("mem.find_pattern search exceeds buffer length")
	}
	for cursor := offset; cursor <= len(buf)-len(pattern); cursor++ {
		if string(buf[cursor:cursor+len(pattern)]) == string(pattern) {
			return NewInteger(int64(cursor))
		}
	}
	return NewInteger(-1)
}

func memChecksum(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.checksum", args, 0)
	if err != nil {
		return err
	}
	length, err := argUsize("mem.checksum", args, 1)
	if err != nil {
		return err
	}
	window, rerr := rt.readWindow("mem.checksum", handle, offset, length)
	if rerr != nil {
		return rerr
	}
	var sum int64
	for _, b := range window {
		sum += int64(b)
	}
	return NewInteger(sum)
}

func memSwapRanges(rt *Runtime, args []Object) Object {
	leftHandle, leftOffset, err := argPointer("mem.swap_ranges", args, 0)
	if err != nil {
		return err
	}
	rightHandle, rightOffset, err := argPointer("mem.swap_ranges", args, 1)
	if err != nil {
		return err
	}
	length, err := argUsize("mem.swap_ranges", args, 2)
	if err != nil {
		return err
	}
	if length == 0 {
		return TRUE
	}
	left, rerr := rt.readWindow("mem.swap_ranges", leftHandle, leftOffset, length)
	if rerr != nil {
		return rerr
	}
	right, rerr := rt.readWindow("mem.swap_ranges", rightHandle, rightOffset, length)
	if rerr != nil {
		return rerr
	}
	if werr := rt.writeWindow("mem.swap_ranges", leftHandle, leftOffset, right); werr != nil {
		return werr
	}
	if werr := rt.writeWindow("mem.swap_ranges", rightHandle, rightOffset, left); werr != nil {
		return werr
	}
	return TRUE
}

func memReverseBlock(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.reverse_block", args, 0)
	if err != nil {
		return err
	}
	length, err := argUsize("mem.reverse_block", args, 1)
	if err != nil {
		return err
	}
	window, rerr := rt.readWindow("mem.reverse_block", handle, offset, length)
	if rerr != nil {
		return rerr
	}
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	if werr := rt.writeWindow("mem.reverse_block", handle, offset, window); werr != nil {
		return werr
	}
	return TRUE
}

func memCountByte(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.count_byte", args, 0)
	if err != nil {
		return err
	}
	length, err := argUsize("mem.count_byte", args, 1)
	if err != nil {
		return err
	}
	target, err := argByte("mem.count_byte", args, 2)
	if err != nil {
		return err
	}
	window, rerr := rt.readWindow("mem.count_byte", handle, offset, length)
	if rerr != nil {
		return rerr
	}
	var count int64
	for _, b := range window {
		if b == target {
			count++
		}
	}
	return NewInteger(count)
}

func memFillPattern(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.fill_pattern", args, 0)
	if err != nil {
		return err
	}
	elems, err := argTuple("mem.fill_pattern", args, 1)
	if err != nil {
		return err
	}
	if len(elems) == 0 {
		return newTypeError("mem.fill_pattern expects a non-empty pattern tuple")
	}
	repeat, err := argUsize("mem.fill_pattern", args, 2)
	if err != nil {
		return err
	}
	pattern, err := tupleBytes("mem.fill_pattern", elems)
	if err != nil {
		return err
	}
	fill := make([]byte, 0, len(pattern)*repeat)
	for i := 0; i < repeat; i++ {
		fill = append(fill, pattern...)
	}
	if werr := rt.writeWindow("mem.fill_pattern", handle, offset, fill); werr != nil {
		return werr
	}
	return TRUE
}

func memHexdump(rt *Runtime, args []Object) Object {
	handle, offset, err := argPointer("mem.hexdump", args, 0)
	if err != nil {
		return err
	}
	length, err := argUsize("mem.hexdump", args, 1)
	if err != nil {
		return err
	}
	window, rerr := rt.readWindow("mem.hexdump", handle, offset, length)
	if rerr != nil {
		return rerr
	}
	chunks := make([]string, len(window))
	for i, b := range window {
		chunks[i] = fmt.Sprintf("%02x", b)
	}
	return &Text{Value: strings.Join(chunks, " ")}
}

// Multi-width integer and float accessors. All of them are byte-layout
// operations over the window helpers, never aligned hardware loads.

type memAccessor struct {
	shortName string
	builtin   *Builtin
}

func endianSuffix(little bool) string {
	if little {
		return "le"
	}
	return "be"
}

func uintAccessors(width int, little bool) (memAccessor, memAccessor) {
	bits := width * 8
	readName := fmt.Sprintf("read_u%d_%s", bits, endianSuffix(little))
	writeName := fmt.Sprintf("write_u%d_%s", bits, endianSuffix(little))
	qualifiedRead := "mem." + readName
	qualifiedWrite := "mem." + writeName

	read := &Builtin{Name: qualifiedRead, Arity: 1, Fn: func(rt *Runtime, args []Object) Object {
		handle, offset, err := argPointer(qualifiedRead, args, 0)
		if err != nil {
			return err
		}
		window, rerr := rt.readWindow(qualifiedRead, handle, offset, width)
		if rerr != nil {
			return rerr
		}
		if little {
			reverseBytes(window)
		}
		return &Integer{Value: new(big.Int).SetBytes(window)}
	}}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	write := &Builtin{Name: qualifiedWrite, Arity: 2, Fn: func(rt *Runtime, args []Object) Object {
		handle, offset, err := argPointer(qualifiedWrite, args, 0)
		if err != nil {
			return err
		}
		raw, err := argInt(qualifiedWrite, args, 1)
		if err != nil {
			return err
		}
		if raw.Sign() < 0 || raw.Cmp(limit) >= 0 {
			return newTypeError("%s expects a value that fits in %d bits", qualifiedWrite, bits)
		}
		data := raw.FillBytes(make([]byte, width))
		if little {
			reverseBytes(data)
		}
		if werr := rt.writeWindow(qualifiedWrite, handle, offset, data); werr != nil {
			return werr
		}
		return TRUE
	}}

	return memAccessor{readName, read}, memAccessor{writeName, write}
}

func floatAccessors(width int, little bool) (memAccessor, memAccessor) {
	bits := width * 8
	readName := fmt.Sprintf("read_f%d_%s", bits, endianSuffix(little))
	writeName := fmt.Sprintf("write_f%d_%s", bits, endianSuffix(little))
	qualifiedRead := "mem." + readName
	qualifiedWrite := "mem." + writeName

	read := &Builtin{Name: qualifiedRead, Arity: 1, Fn: func(rt *Runtime, args []Object) Object {
		handle, offset, err := argPointer(qualifiedRead, args, 0)
		if err != nil {
			return err
		}
		window, rerr := rt.readWindow(qualifiedRead, handle, offset, width)
		if rerr != nil {
			return rerr
		}
		if little {
			reverseBytes(window)
		}
		if width == 4 {
			u := uint32(0)
			for _, b := range window {
				u = u<<8 | uint32(b)
			}
			return &Float{Value: float64(math.Float32frombits(u))}
		}
		u := uint64(0)
		for _, b := range window {
			u = u<<8 | uint64(b)
		}
		return &Float{Value: math.Float64frombits(u)}
	}}

	write := &Builtin{Name: qualifiedWrite, Arity: 2, Fn: func(rt *Runtime, args []Object) Object {
		handle, offset, err := argPointer(qualifiedWrite, args, 0)
		if err != nil {
			return err
		}
		value, err := argNumber(qualifiedWrite, args, 1)
		if err != nil {
			return err
		}
		var data []byte
		if width == 4 {
			u := math.Float32bits(float32(value))
			data = []byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
		} else {
			u := math.Float64bits(value)
			data = make([]byte, 8)
			for i := 0; i < 8; i++ {
				data[i] = byte(u >> (56 - 8*i))
			}
		}
		if little {
			reverseBytes(data)
		}
		if werr := rt.writeWindow(qualifiedWrite, handle, offset, data); werr != nil {
			return werr
		}
		return TRUE
	}}

	return memAccessor{readName, read}, memAccessor{writeName, write}
}

func reverseBytes(data []byte) {
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}
}

// Bitwise operators work on arbitrary-precision integers directly and have
// nothing to do with the buffer arena.

func memBinaryAnd(_ *Runtime, args []Object) Object {
	left, err := argInt("mem.binary_and", args, 0)
	if err != nil {
		return err
	}
	right, err := argInt("mem.binary_and", args, 1)
	if err != nil {
		return err
	}
	return &Integer{Value: new(big.Int).And(left, right)}
}

func memBinaryOr(_ *Runtime, args []Object) Object {
	left, err := argInt("mem.binary_or", args, 0)
	if err != nil {
		return err
	}
	right, err := argInt("mem.binary_or", args, 1)
	if err != nil {
		return err
	}
	return &Integer{Value: new(big.Int).Or(left, right)}
}

func memBinaryXor(_ *Runtime, args []Object) Object {
	left, err := argInt("mem.binary_xor", args, 0)
	if err != nil {
		return err
	}
	right, err := argInt("mem.binary_xor", args, 1)
	if err != nil {
		return err
	}
	return &Integer{Value: new(big.Int).Xor(left, right)}
}

func memBinaryNot(_ *Runtime, args []Object) Object {
	value, err := argInt("mem.binary_not", args, 0)
	if err != nil {
		return err
	}
	return &Integer{Value: new(big.Int).Not(value)}
}

func memShiftLeft(_ *Runtime, args []Object) Object {
	value, err := argInt("mem.binary_shift_left", args, 0)
	if err != nil {
		return err
	}
	amount, err := argUsize("mem.binary_shift_left", args, 1)
	if err != nil {
		return err
	}
	return &Integer{Value: new(big.Int).Lsh(value, uint(amount))}
}

func memShiftRight(_ *Runtime, args []Object) Object {
	value, err := argInt("mem.binary_shift_right", args, 0)
	if err != nil {
		return err
	}
	amount, err := argUsize("mem.binary_shift_right", args, 1)
	if err != nil {
		return err
	}
	return &Integer{Value: new(big.Int).Rsh(value, uint(amount))}
}

func memRotateLeft(_ *Runtime, args []Object) Object {
	return rotateBits("mem.binary_rotate_left", args, true)
}

func memRotateRight(_ *Runtime, args []Object) Object {
	return rotateBits("mem.binary_rotate_right", args, false)
}

// rotateBits rotates within the value's own bit length. Negative values
// rotate their magnitude and keep the sign.
func rotateBits(name string, args []Object, left bool) Object {
	value, err := argInt(name, args, 0)
	if err != nil {
		return err
	}
	amount, err := argUsize(name, args, 1)
	if err != nil {
		return err
	}
	if amount == 0 || value.Sign() == 0 {
		return &Integer{Value: new(big.Int).Set(value)}
	}
	magnitude := new(big.Int).Abs(value)
	bitLen := magnitude.BitLen()
	shift := uint(amount % bitLen)
	if shift == 0 {
		return &Integer{Value: new(big.Int).Set(value)}
	}
	if !left {
		shift = uint(bitLen) - shift
	}
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bitLen)), big.NewInt(1))
	high := new(big.Int).Rsh(magnitude, uint(bitLen)-shift)
	rotated := new(big.Int).Lsh(magnitude, shift)
	rotated.And(rotated, mask)
	rotated.Or(rotated, high)
	if value.Sign() < 0 {
		rotated.Neg(rotated)
	}
	return &Integer{Value: rotated}
}

func memBitTest(_ *Runtime, args []Object) Object {
	value, err := argInt("mem.bit_test", args, 0)
	if err != nil {
		return err
	}
	position, err := argUsize("mem.bit_test", args, 1)
	if err != nil {
		return err
	}
	return nativeBoolToBooleanObject(value.Bit(position) == 1)
}

func memBitSet(_ *Runtime, args []Object) Object {
	value, err := argInt("mem.bit_set", args, 0)
	if err != nil {
		return err
	}
	position, err := argUsize("mem.bit_set", args, 1)
	if err != nil {
		return err
	}
	return &Integer{Value: new(big.Int).SetBit(value, position, 1)}
}

func memBitClear(_ *Runtime, args []Object) Object {
	value, err := argInt("mem.bit_clear", args, 0)
	if err != nil {
		return err
	}
	position, err := argUsize("mem.bit_clear", args, 1)
	if err != nil {
		return err
	}
	return &Integer{Value: new(big.Int).SetBit(value, position, 0)}
}

func memBitToggle(_ *Runtime, args []Object) Object {
	value, err := argInt("mem.bit_toggle", args, 0)
	if err != nil {
		return err
	}
	position, err := argUsize("mem.bit_toggle", args, 1)
	if err != nil {
		return err
	}
	bit := uint(1 - value.Bit(position))
	return &Integer{Value: new(big.Int).SetBit(value, position, bit)}
}

func memBitCount(_ *Runtime, args []Object) Object {
	value, err := argInt("mem.bit_count", args, 0)
	if err != nil {
		return err
	}
	magnitude := new(big.Int).Abs(value)
	var count int64
	for _, word := range magnitude.Bits() {
		for ; word != 0; word >>= 1 {
			count += int64(word & 1)
		}
	}
	return NewInteger(count)
}

func memSmartNew(rt *Runtime, args []Object) Object {
	handle := rt.smartNew(args[0])
	return handleObject(handle)
}

func memSmartGet(rt *Runtime, args []Object) Object {
	handle, err := argHandle("mem.smart_pointer_get", args, 0)
	if err != nil {
		return err
	}
	value, ok := rt.smartGet(handle)
	if !ok {
		return newError(ERR_USE_AFTER_FREE, "mem.smart_pointer_get: unknown smart pointer handle")
	}
	return value
}

func memSmartSet(rt *Runtime, args []Object) Object {
	handle, err := argHandle("mem.smart_pointer_set", args, 0)
	if err != nil {
		return err
	}
	if !rt.smartSet(handle, args[1]) {
		return newError(ERR_USE_AFTER_FREE, "mem.smart_pointer_set: unknown smart pointer handle")
	}
	return TRUE
}

func memSmartClone(rt *Runtime, args []Object) Object {
	handle, err := argHandle("mem.smart_pointer_clone", args, 0)
	if err != nil {
		return err
	}
	if !rt.smartClone(handle) {
		return newError(ERR_USE_AFTER_FREE, "mem.smart_pointer_clone: unknown smart pointer handle")
	}
	return handleObject(handle)
}

func memSmartFree(rt *Runtime, args []Object) Object {
	handle, err := argHandle("mem.smart_pointer_free", args, 0)
	if err != nil {
		return err
	}
	ok, alive := rt.smartFree(handle)
	if !ok {
		return newError(ERR_USE_AFTER_FREE, "mem.smart_pointer_free: unknown smart pointer handle")
	}
	return nativeBoolToBooleanObject(alive)
}

func memTupleGet(_ *Runtime, args []Object) Object {
	elems, err := argTuple("mem.tuple_get", args, 0)
	if err != nil {
		return err
	}
	index, err := argUsize("mem.tuple_get", args, 1)
	if err != nil {
		return err
	}
	if index >= len(elems) {
		return newBoundsError("mem.tuple_get: tuple index out of bounds")
	}
	return elems[index]
}
