// Command dagdemo exercises the scheduler package end to end: it wires
// a small source -> triple -> sink pipeline and runs it to completion,
// with a cobra-rooted CLI layout in the style of vishalbelsare-lindb's
// cmd/lind/storage.go and cmd/lind/standalone.go, scaled down to this
// module's single command surface.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dagcore/scheduler/config"
	"github.com/dagcore/scheduler/internal/fsm"
	"github.com/dagcore/scheduler/pkg/mover"
	"github.com/dagcore/scheduler/scheduler"
)

var (
	cfgPath    string
	numItems   int
	numWorkers int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dagdemo",
		Short: "runs a small source/triple/sink DAG through the scheduler",
	}
	root.AddCommand(newRunCmd(), newInitConfigCmd())
	return root
}

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "build and run the demo pipeline",
		RunE:  runDemo,
	}
	runCmd.Flags().IntVar(&numItems, "items", 7, "number of items to push through the pipeline")
	runCmd.Flags().IntVar(&numWorkers, "workers", 4, "scheduler worker count")
	runCmd.Flags().StringVar(&cfgPath, "config", "", "optional YAML config file path")
	return runCmd
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "print a default scheduler config as TOML",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Println(config.NewDefaultScheduler().TOML())
			return nil
		},
	}
}

func runDemo(_ *cobra.Command, _ []string) error {
	var cfg *config.Scheduler
	if cfgPath != "" {
		loaded, err := config.LoadYAML(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.NewDefaultScheduler()
	}
	cfg.NumWorkers = numWorkers
	if err := cfg.Validate(); err != nil {
		return err
	}

	toTriple := mover.New[int](cfg.ChannelCapacity, cfg.ChannelOrderingValue(), nil)
	toSink := mover.New[int](cfg.ChannelCapacity, cfg.ChannelOrderingValue(), nil)

	sched, err := scheduler.New("dagdemo", cfg.NumWorkers)
	if err != nil {
		return err
	}

	source := scheduler.NewFuncNode(1, "source", func(ctx context.Context, self *scheduler.FuncNode) fsm.Event {
		for i := 1; i <= numItems; i++ {
			toTriple.TryPush(i)
		}
		return fsm.EventExit
	})

	tripled := 0
	triple := scheduler.NewFuncNode(2, "triple", func(ctx context.Context, self *scheduler.FuncNode) fsm.Event {
		v, ok := toTriple.TryPop()
		if !ok {
			if tripled >= numItems {
				return fsm.EventExit
			}
			return fsm.EventYield
		}
		toSink.TryPush(v * 3)
		tripled++
		if tripled >= numItems {
			return fsm.EventExit
		}
		return fsm.EventYield
	})

	var results []int
	sunk := 0
	sink := scheduler.NewFuncNode(3, "sink", func(ctx context.Context, self *scheduler.FuncNode) fsm.Event {
		v, ok := toSink.TryPop()
		if !ok {
			if sunk >= numItems {
				return fsm.EventExit
			}
			return fsm.EventYield
		}
		results = append(results, v)
		sunk++
		if sunk >= numItems {
			return fsm.EventExit
		}
		return fsm.EventYield
	})

	for _, n := range []scheduler.Node{source, triple, sink} {
		if err := sched.Submit(n); err != nil {
			return err
		}
	}

	if err := sched.SyncWaitAll(context.Background()); err != nil {
		return err
	}

	fmt.Printf("processed %d items: %v\n", len(results), results)
	return nil
}
