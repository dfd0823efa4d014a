package bytecode

import (
	"fmt"

	"github.com/lavascript-go/lavascript/vm"
)

// Program is the wire shape a loader hands the VM: instructions, the
// constant pool, and the declarations (types, script functions,
// globals) a compiler would otherwise emit alongside them. It is a
// convenience harness, not a normative persistent format — spec.md
// defines none.
type Program struct {
	Instructions []InstructionSpec `yaml:"instructions"`
	Data         []ValueSpec       `yaml:"data"`
	Functions    []FunctionSpec    `yaml:"functions,omitempty"`
	Types        []TypeSpec        `yaml:"types,omitempty"`
	Globals      []GlobalSpec      `yaml:"globals,omitempty"`
}

// InstructionSpec is one Program.Instructions entry. Op is matched
// case-insensitively against the vm package's opcode names.
type InstructionSpec struct {
	Op       string `yaml:"op"`
	Operand  int    `yaml:"operand,omitempty"`
	Operand2 int    `yaml:"operand2,omitempty"`
}

// ValueSpec is a tagged constant-pool entry. Exactly the field named
// by Kind should be set; Build rejects a Kind with no matching value.
type ValueSpec struct {
	Kind  string   `yaml:"kind"`
	Bool  *bool    `yaml:"bool,omitempty"`
	Int   *int64   `yaml:"int,omitempty"`
	Float *float64 `yaml:"float,omitempty"`
	Str   *string  `yaml:"str,omitempty"`
}

// FunctionSpec declares one script function. Native functions cannot
// be expressed in YAML — the host registers those on the built VM
// directly.
type FunctionSpec struct {
	Name      string `yaml:"name"`
	Arity     int    `yaml:"arity"`
	NumLocals int    `yaml:"numLocals,omitempty"`
	Entry     int    `yaml:"entry"`
}

// TypeSpec declares one NEW_OBJECT-constructible shape.
type TypeSpec struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
}

// GlobalSpec declares one pre-registered global slot.
type GlobalSpec struct {
	Name string    `yaml:"name"`
	Init ValueSpec `yaml:"init"`
}

func (vs ValueSpec) toVariant() (vm.Variant, error) {
	switch vs.Kind {
	case "", "null":
		return vm.Null, nil
	case "bool":
		if vs.Bool == nil {
			return vm.Null, fmt.Errorf("bytecode: data entry kind %q missing bool field", vs.Kind)
		}
		return vm.Bool(*vs.Bool), nil
	case "int":
		if vs.Int == nil {
			return vm.Null, fmt.Errorf("bytecode: data entry kind %q missing int field", vs.Kind)
		}
		return vm.Int(*vs.Int), nil
	case "float":
		if vs.Float == nil {
			return vm.Null, fmt.Errorf("bytecode: data entry kind %q missing float field", vs.Kind)
		}
		return vm.Float(*vs.Float), nil
	case "string":
		if vs.Str == nil {
			return vm.Null, fmt.Errorf("bytecode: data entry kind %q missing str field", vs.Kind)
		}
		return vm.String(*vs.Str), nil
	default:
		return vm.Null, fmt.Errorf("bytecode: unknown data kind %q", vs.Kind)
	}
}

// Build decodes the program into a freshly constructed *vm.VM: the
// instruction and constant vectors are converted directly, and every
// declared type, script function and global is registered. The host
// is responsible for registering any native functions against the
// returned VM before calling Execute or Call.
func (p *Program) Build(cfg vm.Config) (*vm.VM, error) {
	code := make([]vm.Instruction, len(p.Instructions))
	for i, is := range p.Instructions {
		op, ok := opcodeByName(is.Op)
		if !ok {
			return nil, fmt.Errorf("bytecode: unknown opcode %q at instruction %d", is.Op, i)
		}
		code[i] = vm.Instruction{Op: op, Operand: is.Operand, Operand2: is.Operand2}
	}

	data := make([]vm.Variant, len(p.Data))
	for i, vs := range p.Data {
		val, err := vs.toVariant()
		if err != nil {
			return nil, fmt.Errorf("bytecode: data entry %d: %w", i, err)
		}
		data[i] = val
	}

	if len(p.Globals) > 0 {
		cfg.GlobalsTable = true
	}
	machine := vm.New(code, data, cfg)

	for _, ts := range p.Types {
		machine.Types().Add(&vm.TypeDescriptor{Name: ts.Name, FieldNames: ts.Fields})
	}
	for _, fs := range p.Functions {
		machine.Functions().Register(&vm.FuncDescriptor{
			Name:      fs.Name,
			Arity:     fs.Arity,
			NumLocals: fs.NumLocals,
			Entry:     fs.Entry,
		})
	}
	for _, gs := range p.Globals {
		init, err := gs.Init.toVariant()
		if err != nil {
			return nil, fmt.Errorf("bytecode: global %q: %w", gs.Name, err)
		}
		machine.Globals().AddGlobal(gs.Name, init)
	}

	return machine, nil
}
