// Command lavascript is a thin host around the vm package: it loads a
// YAML bytecode.Program, wires it into a *vm.VM, and either runs it to
// completion or invokes one named function — the Cobra-based
// replacement for the teacher's flag-parsed class-file runner.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lavascript-go/lavascript/bytecode"
	"github.com/lavascript-go/lavascript/internal/config"
	"github.com/lavascript-go/lavascript/vm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lavascript",
		Short: "Run or inspect lavascript bytecode programs",
	}
	config.BindFlags(root.PersistentFlags())
	root.AddCommand(newRunCmd(), newCallCmd())
	return root
}

func loadVM(cmd *cobra.Command, path string) (*vm.VM, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	program, err := bytecode.LoadFile(path)
	if err != nil {
		return nil, err
	}
	machine, err := program.Build(cfg.VMConfig(logger))
	if err != nil {
		return nil, fmt.Errorf("build vm: %w", err)
	}
	return machine, nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <program.yaml>",
		Short: "Execute a program from pc 0 until HALT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, err := loadVM(cmd, args[0])
			if err != nil {
				return err
			}
			defer machine.Shutdown()

			trace, _ := cmd.Flags().GetBool("trace")
			if trace {
				err = machine.ExecuteWithCallback(0, func(pc int) bool {
					machine.Print(os.Stdout)
					return true
				})
			} else {
				err = machine.Execute()
			}
			if err != nil {
				return fmt.Errorf("execute: %w", err)
			}
			fmt.Printf("alive objects: %d\n", machine.GetAliveObjectsCount())
			return nil
		},
	}
}

func newCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <program.yaml> <function> [args...]",
		Short: "Invoke one function and print its result",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, err := loadVM(cmd, args[0])
			if err != nil {
				return err
			}
			defer machine.Shutdown()

			funcName := args[1]
			callArgs := make([]vm.Variant, 0, len(args)-2)
			for _, raw := range args[2:] {
				callArgs = append(callArgs, parseArg(raw))
			}

			result, err := machine.Call(funcName, callArgs...)
			if err != nil {
				return fmt.Errorf("call %s: %w", funcName, err)
			}
			fmt.Println(result)
			return nil
		},
	}
}

// parseArg converts a CLI argument into an int, float, bool or string
// Variant on a best-effort basis — there is no type annotation syntax
// on the command line, so this mirrors the teacher's own tolerant
// argument handling rather than requiring a schema.
func parseArg(raw string) vm.Variant {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return vm.Int(n)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return vm.Float(f)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return vm.Bool(b)
	}
	return vm.String(raw)
}
