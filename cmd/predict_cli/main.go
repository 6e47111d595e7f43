package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"houseprice/config"
	"houseprice/form"
	"houseprice/logger"
	"houseprice/ml"
	"houseprice/predict"
)

type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct {
	scanner *bufio.Scanner
}

func (s scannerReader) ReadLine() (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	modelPath := flag.String("model_path", "", "model artifact path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}

	// 终端模式下只输出警告以上日志，避免干扰表单
	zlog, err := logger.New(logger.Options{Level: "warn", File: cfg.Log.File})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	loader, err := ml.NewLoader(ml.LoaderOptions{
		Path:        cfg.Model.Path,
		Type:        cfg.Model.Type,
		InputName:   cfg.Model.InputName,
		OutputName:  cfg.Model.OutputName,
		OnnxLibrary: cfg.Model.OnnxLibrary,
	}, zlog)
	if err != nil {
		log.Fatalf("failed to create model loader: %v", err)
	}
	defer loader.Close()

	model, loadErr := loader.Load()
	trigger := predict.NewTrigger(model, zlog, nil)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		runSession(context.Background(), scannerReader{bufio.NewScanner(os.Stdin)}, os.Stdout, trigger, loadErr)
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		zlog.Warn("raw mode unavailable", zap.Error(err))
		runSession(context.Background(), scannerReader{bufio.NewScanner(os.Stdin)}, os.Stdout, trigger, loadErr)
		return
	}
	defer term.Restore(fd, oldState)

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	terminal := term.NewTerminal(screen, "> ")
	runSession(context.Background(), terminal, terminal, trigger, loadErr)
}

// runSession drives one view model from typed commands until quit or EOF.
func runSession(ctx context.Context, in lineReader, out io.Writer, trigger *predict.Trigger, loadErr error) {
	vm := form.NewViewModel()

	fmt.Fprintln(out, "🏠 House Price Prediction App")
	fmt.Fprintln(out, "🔍 Predict house prices based on key features.")
	if loadErr != nil {
		if errors.Is(loadErr, ml.ErrMissingArtifact) {
			fmt.Fprintln(out, predict.MissingArtifactMessage)
		} else {
			fmt.Fprintf(out, "❌ Model could not be loaded: %v\n", loadErr)
		}
	}
	printForm(out, vm)
	printHelp(out)

	for {
		line, err := in.ReadLine()
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch cmd := strings.ToLower(fields[0]); cmd {
		case "quit", "exit", "q":
			return
		case "help", "?":
			printHelp(out)
		case "show":
			printForm(out, vm)
		case "reset":
			vm.Reset()
			printForm(out, vm)
		case "predict", "p":
			res := trigger.Fire(ctx, vm)
			if res.OK() {
				fmt.Fprintf(out, "🏡 Predicted House Price: %s\n", res.Display)
			} else {
				fmt.Fprintln(out, res.Message())
			}
		default:
			if len(fields) != 2 {
				fmt.Fprintf(out, "unknown command %q, type help\n", line)
				continue
			}
			v, err := vm.SetRaw(cmd, fields[1])
			if err != nil {
				fmt.Fprintf(out, "⚠️  %v\n", err)
				continue
			}
			f, _ := form.Lookup(cmd)
			fmt.Fprintf(out, "%s = %s\n", f.Label, f.Format(v))
		}
	}
}

func printForm(out io.Writer, vm *form.ViewModel) {
	fmt.Fprintln(out, "📋 Input Features")
	for _, in := range vm.Inputs() {
		bounds := fmt.Sprintf("%s..", in.Format(in.Min))
		if in.Bounded() {
			bounds += in.MaxAttr()
		}
		fmt.Fprintf(out, "  %-14s %-30s %10s  [%s]\n", in.Name, in.Label, in.Display(), bounds)
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "commands: <field> <value> | predict | show | reset | help | quit")
}
