// Command ribose compiles or loads a model and runs it against
// stdin, printing whatever fields the model's `out`
// calls flush to stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/jrte/ribose-sub001/ribose"
	"github.com/jrte/ribose-sub001/ribose/targettest"
)

var (
	modelPath     = flag.String("model", "", "path to a prebuilt model file (mutually exclusive with -automaton)")
	automatonPath = flag.String("automaton", "", "path to an automaton text file to compile (mutually exclusive with -model)")
	transducer    = flag.String("transducer", "main", "transducer to start running")
	targetClass   = flag.String("target", "test", "target class to bind (only \"test\" is built in)")
	savePath      = flag.String("save", "", "if set with -automaton, write the compiled model here before running")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	model, err := loadOrCompile()
	if err != nil {
		glog.Exitf("ribose: %v", err)
	}

	if *savePath != "" {
		if err := save(model, *savePath); err != nil {
			glog.Exitf("ribose: save: %v", err)
		}
	}

	if err := run(model); err != nil {
		glog.Exitf("ribose: %v", err)
	}
}

func loadOrCompile() (*ribose.Model, error) {
	switch {
	case *modelPath != "" && *automatonPath != "":
		return nil, fmt.Errorf("-model and -automaton are mutually exclusive")
	case *modelPath != "":
		f, err := os.Open(*modelPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		return ribose.Load(io.NewSectionReader(f, 0, info.Size()))
	case *automatonPath != "":
		f, err := os.Open(*automatonPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		header, transitions, err := ribose.ReadAutomaton(f)
		if err != nil {
			return nil, err
		}
		c := ribose.NewModelCompiler(*targetClass)
		c.AddTransducer(*transducer, header, transitions)
		return c.Build()
	default:
		return nil, fmt.Errorf("one of -model or -automaton is required")
	}
}

func save(model *ribose.Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return model.Save(f)
}

func run(model *ribose.Model) error {
	target := targettest.Target{}
	t, err := ribose.New(model, target)
	if err != nil {
		return err
	}
	t.Output(os.Stdout)

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	t.Push(data)

	if err := t.Start(*transducer); err != nil {
		return err
	}
	for {
		status, err := t.Run()
		glog.V(1).Infof("ribose: run returned status=%s", status)
		if err != nil {
			return err
		}
		if status == ribose.StatusStopped || status == ribose.StatusWaiting {
			return nil
		}
		if status == ribose.StatusPaused {
			return nil
		}
	}
}
