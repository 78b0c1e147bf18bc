package ecs

import "unsafe"

// iface mirrors the runtime layout of an any value. Node binding
// uses the data word to store component pointers without reflection.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}
