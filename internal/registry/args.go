package registry

import (
	"fmt"

	"github.com/mantle-armada/bootstrap/internal/contracts"
)

// Arg is a call argument that is either a reference to a registered contract
// (resolved to its address at call time) or a literal value.
type Arg struct {
	ref   contracts.ContractName
	value any
	isRef bool
}

// Ref refers to the address registered under name.
func Ref(name contracts.ContractName) Arg {
	return Arg{ref: name, isRef: true}
}

// Literal passes value through unchanged.
func Literal(value any) Arg {
	return Arg{value: value}
}

// Reference returns the referenced contract name, if the argument is a reference.
func (a Arg) Reference() (contracts.ContractName, bool) {
	return a.ref, a.isRef
}

func (a Arg) String() string {
	if a.isRef {
		return "@" + string(a.ref)
	}
	return fmt.Sprint(a.value)
}

// Resolve turns args into call arguments using the current registry contents.
func (r *Registry) Resolve(args []Arg) ([]any, error) {
	resolved := make([]any, 0, len(args))
	for _, arg := range args {
		if !arg.isRef {
			resolved = append(resolved, arg.value)
			continue
		}

		address, err := r.Get(arg.ref)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, address)
	}

	return resolved, nil
}

// References lists the contract names referenced by args, in order.
func References(args []Arg) []contracts.ContractName {
	var names []contracts.ContractName
	for _, arg := range args {
		if name, ok := arg.Reference(); ok {
			names = append(names, name)
		}
	}
	return names
}
