// cmd/plubo/main.go
//
// plubo – command-line companion to the web host.
//
// Commands
// --------
//
//	plubo entity <name> [--dir d] [--package p]   scaffold a Record entity
//	plubo functionality <kind> [name] [--dir d] [--package p]
//	                                              scaffold a hook shim
//	plubo component <name> [--dir d]              scaffold a component
//	plubo migrate                                 run component DDL
//	plubo widget get <id>
//	plubo widget create --name n [--color c]
//	plubo widget set <id> <field> <value> [--null]
//	plubo widget delete <id>
//	plubo acl grant <role> <capability>
//	plubo acl assign <user-id> <role>
//
// Every command except the scaffolds loads configuration (see --root) and opens
// the database; none of them start the scheduler or fire hooks.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
