// Command libprefixtrie builds a C shared library exposing the prefix trie:
//
//	go build -buildmode=c-shared -o libprefixtrie.so ./cmd/libprefixtrie
package main

//#include <stdint.h>
import "C"

//export new_prefix_trie
func new_prefix_trie() C.uintptr_t {
	return C.uintptr_t(newTrie())
}

//export free_prefix_trie
func free_prefix_trie(h C.uintptr_t) {
	freeTrie(uintptr(h))
}

//export insert
func insert(h C.uintptr_t, addr C.uint32_t, netmask C.uint8_t, action C.uint8_t) C.int {
	return C.int(insertRule(uintptr(h), uint32(addr), uint8(netmask), uint8(action)))
}

//export get
func get(h C.uintptr_t, addr C.uint32_t, netmask C.uint8_t) C.char {
	return C.char(lookupAction(uintptr(h), uint32(addr), uint8(netmask)))
}

//export remove
func remove(h C.uintptr_t, addr C.uint32_t, netmask C.uint8_t) {
	removeRule(uintptr(h), uint32(addr), uint8(netmask))
}

func main() {}
