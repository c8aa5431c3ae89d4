// main.go - Intuition68K entry point

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition68K
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"github.com/sirupsen/logrus"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████\033[0m\n\033[38;2;255;50;147m▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀\033[0m\n\033[38;2;255;80;147m▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███\033[0m\n\033[38;2;255;110;147m░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄\033[0m\n\033[38;2;255;140;147m░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒\033[0m\n\033[38;2;255;170;147m░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░\033[0m\n\033[38;2;255;200;147m ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░\033[0m\n\033[38;2;255;230;147m ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░\033[0m\n\033[38;2;255;255;147m ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░\033[0m")
	fmt.Println("\nA bit-accurate Motorola 68000 wrapped in an ST-flavoured machine.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/Intuition68K")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	optMachine := getopt.StringLong("machine", 'm', "default", "Machine preset: default or workbench")
	optMonitor := getopt.BoolLong("monitor", 0, "Boot frozen into the machine monitor REPL")
	optScript := getopt.StringLong("script", 's', "", "Run a Lua script against the frozen machine and exit")
	optRemote := getopt.StringLong("remote-debug", 'r', "", "Serve the websocket debug bridge on this address")
	optScale := getopt.IntLong("scale", 'x', 2, "Window scale factor")
	optFullscreen := getopt.BoolLong("fullscreen", 'f', "Start fullscreen")
	optHeadless := getopt.BoolLong("headless", 0, "Fit no video or sound hardware")
	optOracle := getopt.BoolLong("oracle", 0, "Map the diagnostic rig and report its results at exit")
	optPerf := getopt.BoolLong("perf", 'p', "Report executed MIPS once per second")
	optDebug := getopt.BoolLong("debug", 'd', "Log debug detail to the console")
	optQuiet := getopt.BoolLong("quiet", 'q', "Suppress the startup banner")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.SetParameters("[image]")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}
	if *optDebug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if !*optQuiet {
		boilerPlate()
	}

	var cfg MachineConfig
	switch *optMachine {
	case "default":
		cfg = DefaultConfig()
	case "workbench":
		cfg = WorkbenchConfig()
	default:
		fmt.Printf("Unknown machine preset %q (want default or workbench)\n", *optMachine)
		os.Exit(1)
	}
	cfg.Scale = *optScale
	cfg.Fullscreen = *optFullscreen
	if *optHeadless {
		cfg.EnableVideo = false
		cfg.EnablePSG = false
	}
	if *optOracle {
		cfg.EnableOracle = true
	}

	machine, err := NewMachine(cfg)
	if err != nil {
		fmt.Printf("Failed to build machine: %v\n", err)
		os.Exit(1)
	}

	imagePath := ""
	if args := getopt.Args(); len(args) > 0 {
		imagePath = args[0]
	}
	if imagePath == "" && !*optMonitor {
		fmt.Println("Error: an image file is required unless booting into the monitor")
		getopt.Usage()
		os.Exit(1)
	}

	if imagePath != "" {
		img, err := machine.LoadImage(imagePath)
		if err != nil {
			fmt.Printf("Error loading image: %v\n", err)
			os.Exit(1)
		}
		logrus.WithFields(logrus.Fields{
			"format": img.Format,
			"range":  fmt.Sprintf("$%06X-$%06X", img.LowAddr, img.HighAddr),
			"bytes":  img.Bytes,
			"entry":  fmt.Sprintf("$%06X", machine.CPU.PC),
		}).Info("image loaded")
	}

	machine.CPU.PerfEnabled = *optPerf

	// Console output lands on the host stdout. Input wiring depends on the
	// mode: the REPL and Lua own stdin themselves, so the raw-mode reader is
	// only attached for plain runs.
	if machine.Terminal != nil {
		machine.Terminal.SetOutputCallback(func(b byte) {
			os.Stdout.Write([]byte{b})
		})
	}

	if *optMonitor && *optRemote != "" {
		fmt.Println("Error: --monitor and --remote-debug cannot share the machine; pick one")
		os.Exit(1)
	}

	switch {
	case *optScript != "":
		runScript(machine, *optScript)

	case *optMonitor:
		runMonitor(machine)

	default:
		runMachine(machine, *optRemote)
	}
}

// runScript boots the machine frozen, hands it to the Lua host and exits
// with the rig verdict.
func runScript(machine *Machine, path string) {
	if err := machine.StartFrozen(); err != nil {
		fmt.Printf("Failed to start machine: %v\n", err)
		os.Exit(1)
	}

	host := NewScriptHost(NewDebugM68K(machine.CPU, machine), os.Stdout)
	err := host.RunFile(path)
	host.Close()
	machine.Stop()

	if err != nil {
		fmt.Printf("Script error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(reportOracle(machine))
}

// runMonitor boots the machine frozen at its entry point and hands control
// to the monitor REPL until q.
func runMonitor(machine *Machine) {
	if err := machine.StartFrozen(); err != nil {
		fmt.Printf("Failed to start machine: %v\n", err)
		os.Exit(1)
	}

	mon := NewMachineMonitor(machine, os.Stdout)
	mon.RegisterCPU("M68K", NewDebugM68K(machine.CPU, machine))
	mon.StartBreakpointListener()
	mon.Activate()
	mon.ConsoleLoop()

	machine.Stop()
	os.Exit(reportOracle(machine))
}

// runMachine is the plain run: start everything, feed stdin to the console
// device and wait for the programme or the operator to finish.
func runMachine(machine *Machine, remoteAddr string) {
	var host *TerminalHost
	if machine.Terminal != nil {
		host = NewTerminalHost(machine.Terminal)
		host.Start()
	}

	if err := machine.Start(); err != nil {
		if host != nil {
			host.Stop()
		}
		fmt.Printf("Failed to start machine: %v\n", err)
		os.Exit(1)
	}

	if remoteAddr != "" {
		srv := NewRemoteDebugServer(NewDebugM68K(machine.CPU, machine))
		go func() {
			if err := srv.ListenAndServe(remoteAddr); err != nil {
				logrus.Errorf("remote debug server: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-machine.Done():
	case <-sigCh:
		fmt.Println()
	}

	if host != nil {
		host.Stop()
	}
	machine.Stop()
	os.Exit(reportOracle(machine))
}

// reportOracle prints the diagnostic rig verdict and returns the process
// exit code. A machine without the rig always exits clean.
func reportOracle(m *Machine) int {
	if m.Oracle == nil {
		return 0
	}

	reported, failed := 0, 0
	for slot := 0; slot < ORACLE_SLOTCOUNT; slot++ {
		code, ok := m.Oracle.Result(slot)
		if !ok {
			continue
		}
		reported++
		if code != ORACLE_PASS {
			failed++
			fmt.Printf("FAIL %-12s slot %d code $%02X\n", OracleSlotName(slot), slot, code)
		}
	}
	fmt.Printf("Diagnostic rig: %d/%d groups reported, %d failed\n", reported, ORACLE_SLOTCOUNT, failed)
	if failed > 0 {
		return 1
	}
	return 0
}
