package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/herd/internal/batch"
	"github.com/jbweber/herd/internal/vm"
)

// rangeFlags selects either one VMID or an inclusive range.
type rangeFlags struct {
	idFlag string
	id     int
	min    int
	max    int
}

func addRangeFlags(cmd *cobra.Command, idFlag, idUsage string) *rangeFlags {
	rf := &rangeFlags{idFlag: idFlag}
	cmd.Flags().IntVar(&rf.id, idFlag, 0, idUsage)
	cmd.Flags().IntVar(&rf.min, "min", 0, "first VMID of the range")
	cmd.Flags().IntVar(&rf.max, "max", 0, "last VMID of the range, inclusive")

	cmd.MarkFlagsMutuallyExclusive(idFlag, "min")
	cmd.MarkFlagsMutuallyExclusive(idFlag, "max")
	cmd.MarkFlagsRequiredTogether("min", "max")
	cmd.MarkFlagsOneRequired(idFlag, "min")
	return rf
}

func (rf *rangeFlags) Range(cmd *cobra.Command) batch.Range {
	if cmd.Flags().Changed(rf.idFlag) {
		return batch.Single(rf.id)
	}
	return batch.Range{Min: rf.min, Max: rf.max}
}

// batchName names a CLI batch after its operation and range, e.g.
// "clone-200-209".
func batchName(op vm.OperationType, r batch.Range) string {
	return fmt.Sprintf("%s-%s", op, r)
}

var lifecycleHelp = map[vm.OperationType]struct{ short, long string }{
	vm.OpDestroy: {
		short: "Destroy guests",
		long: `Destroy one guest or a range of guests.

Each VMID is tried as a QEMU virtual machine first and as an LXC container
when the API rejects the request.`,
	},
	vm.OpStart: {
		short: "Start guests",
		long: `Start one guest or a range of guests.

Each VMID is probed to decide between the QEMU and LXC endpoints before the
start request is sent.`,
	},
	vm.OpStop: {
		short: "Stop guests",
		long: `Stop one guest or a range of guests immediately.

Each VMID is probed to decide between the QEMU and LXC endpoints before the
stop request is sent.`,
	},
}

func newLifecycleCmd(a *app, opType vm.OperationType) *cobra.Command {
	help := lifecycleHelp[opType]

	cmd := &cobra.Command{
		Use:   string(opType),
		Short: help.short,
		Long:  help.long,
		Example: fmt.Sprintf(`  herd %[1]s --node pve1 --id 120
  herd %[1]s --node pve1 --min 200 --max 209 -c 4`, opType),
		Args: cobra.NoArgs,
	}
	rf := addRangeFlags(cmd, "id", "VMID of a single guest")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		node, err := a.node()
		if err != nil {
			return err
		}

		var op vm.Operation
		switch opType {
		case vm.OpDestroy:
			op = vm.DestroyOp()
		case vm.OpStart:
			op = vm.StartOp()
		case vm.OpStop:
			op = vm.StopOp()
		default:
			return fmt.Errorf("unsupported operation %q", opType)
		}

		r := rf.Range(cmd)
		job := batch.Job{Node: node, Range: r, Operation: op}
		return a.runBatch(cmd.Context(), job, runSettings{name: batchName(opType, r)})
	}

	return cmd
}

func newCloneCmd(a *app) *cobra.Command {
	var (
		source int
		mode   string
		name   string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Clone a template into one or more guests",
		Long: `Clone a source guest or template into one new VMID or a range of VMIDs.

Linked clones are the default. Containers are always cloned in full. With
--prefix, every clone in a range is named prefix+(id-min), so --prefix web
--min 100 --max 102 creates web0, web1 and web2.`,
		Example: `  herd clone --node pve1 --source 9000 --dest 120 --name build01
  herd clone --node pve1 --source 9000 --min 200 --max 209 --prefix lab --mode full -c 4`,
		Args: cobra.NoArgs,
	}
	rf := addRangeFlags(cmd, "dest", "VMID of a single clone")

	cmd.Flags().IntVarP(&source, "source", "s", 0, "VMID of the guest or template to clone")
	cmd.Flags().StringVar(&mode, "mode", string(vm.CloneLinked), "clone mode: linked, full")
	cmd.Flags().StringVarP(&name, "name", "n", "", "name of a single clone, a DNS name such as web01.lab")
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "name prefix for a range of clones")
	_ = cmd.MarkFlagRequired("source")
	cmd.MarkFlagsMutuallyExclusive("name", "prefix")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		node, err := a.node()
		if err != nil {
			return err
		}

		cloneMode, err := vm.ParseCloneMode(mode)
		if err != nil {
			return err
		}

		r := rf.Range(cmd)
		job := batch.Job{
			Node:       node,
			Range:      r,
			Operation:  vm.CloneOp(source, cloneMode, ""),
			NamePrefix: prefix,
			Name:       name,
		}
		return a.runBatch(cmd.Context(), job, runSettings{name: batchName(vm.OpClone, r)})
	}

	return cmd
}
