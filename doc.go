// Package sion reads and writes SION, a superset of JSON that adds line comments,
// map keys of any type, hexadecimal and underscore separated numbers, hexadecimal
// floating point, NaN and Infinity, and the tagged literals .Data("<base64>") and
// .Date(<seconds>).
//
//	[
//	    // keys do not need to be strings
//	    1: "one",
//	    0x2: .Data("dHdv"),
//	    [3]: [1_000, 0x1.8p1, -Infinity]
//	]
//
// [Decode] parses text into a [Value], [Encode] writes a [Value] as canonical text.
// Both sides are connected through the [Builder] interface: the decoder emits
// builder events and the encoder consumes them, so custom builders can decode
// without materializing a [Value].
//
// The [Unmarshal] and [Marshal] functions bind SION to go types. The binding reads
// through the [Source] interface, which can also be implemented for data from
// other origins and used with [UnmarshalSource].
package sion
