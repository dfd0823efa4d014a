package bytecode

import (
	"strings"

	"github.com/lavascript-go/lavascript/vm"
)

var opcodeNames = map[string]vm.OpCode{
	"HALT":          vm.HALT,
	"PUSH":          vm.PUSH,
	"POP":           vm.POP,
	"DUP":           vm.DUP,
	"ADD":           vm.ADD,
	"SUB":           vm.SUB,
	"MUL":           vm.MUL,
	"DIV":           vm.DIV,
	"MOD":           vm.MOD,
	"NEG":           vm.NEG,
	"EQ":            vm.EQ,
	"LT":            vm.LT,
	"GT":            vm.GT,
	"JUMP":          vm.JUMP,
	"JUMP_IF_FALSE": vm.JUMP_IF_FALSE,
	"LOAD_LOCAL":    vm.LOAD_LOCAL,
	"STORE_LOCAL":   vm.STORE_LOCAL,
	"LOAD_GLOBAL":   vm.LOAD_GLOBAL,
	"STORE_GLOBAL":  vm.STORE_GLOBAL,
	"NEW_STRING":    vm.NEW_STRING,
	"NEW_ARRAY":     vm.NEW_ARRAY,
	"ARRAY_GET":     vm.ARRAY_GET,
	"ARRAY_SET":     vm.ARRAY_SET,
	"ARRAY_LEN":     vm.ARRAY_LEN,
	"NEW_OBJECT":    vm.NEW_OBJECT,
	"GET_FIELD":     vm.GET_FIELD,
	"SET_FIELD":     vm.SET_FIELD,
	"CALL":          vm.CALL,
	"RET":           vm.RET,
	"GC_COLLECT":    vm.GC_COLLECT,
}

func opcodeByName(name string) (vm.OpCode, bool) {
	op, ok := opcodeNames[strings.ToUpper(name)]
	return op, ok
}
