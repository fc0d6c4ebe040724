package luasched

import "github.com/luasched/luasched/luavm"

// argsValue boxes a Value slice so the whole multi-value sequence can be
// pinned as a single registry Ref, rather than one Ref per value.
type argsValue []luavm.Value

// packArgs boxes a Go slice of script values for pinning.
func packArgs(values []luavm.Value) argsValue {
	return argsValue(values)
}

// unpackArgs recovers the Go slice from a pinned Ref's Value, or nil if v
// does not hold a boxed argument sequence.
func unpackArgs(v luavm.Value) []luavm.Value {
	av, _ := v.(argsValue)
	return []luavm.Value(av)
}
