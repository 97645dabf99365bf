// Demo harness: registers a couple of system-wide hotkeys and prints a line
// whenever one fires. Bindings come from a TOML file or fall back to
// control+alt+1 / control+alt+2.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"winhotkeys"
	"winhotkeys/log"
	"winhotkeys/shutdown"
)

type binding struct {
	Combo   string `toml:"combo"`
	Message string `toml:"message"`
}

type config struct {
	LogPath string    `toml:"log_path"`
	Hotkeys []binding `toml:"hotkey"`
}

func defaultConfig() config {
	return config{Hotkeys: []binding{
		{Combo: "control+alt+1", Message: "hotkey 1 pressed"},
		{Combo: "control+alt+2", Message: "hotkey 2 pressed"},
	}}
}

func main() {
	configPath := flag.String("config", "", "TOML file with [[hotkey]] bindings")
	logPath := flag.String("logpath", "", "directory for diagnostic logs")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "reading %s: %v\n", *configPath, err)
			os.Exit(1)
		}
	}

	logDir := *logPath
	if logDir == "" {
		logDir = cfg.LogPath
	}
	if dir, err := log.ResolveDir(logDir); err == nil {
		log.SetDir(dir)
		if err := log.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "log init: %v\n", err)
		}
	}
	defer log.Close()

	mgr := winhotkeys.NewManager()
	for _, b := range cfg.Hotkeys {
		msg := b.Message
		if msg == "" {
			msg = b.Combo + " pressed"
		}
		if _, err := mgr.RegisterHotkey(b.Combo, func() { fmt.Println(msg) }, true); err != nil {
			fmt.Fprintf(os.Stderr, "hotkey %q: %v\n", b.Combo, err)
			os.Exit(1)
		}
		fmt.Printf("registered %s\n", b.Combo)
	}

	if err := mgr.StartListening(); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}
	go func() {
		for err := range mgr.Errors() {
			fmt.Fprintf(os.Stderr, "hotkey error: %v\n", err)
		}
	}()

	fmt.Println("listening for hotkeys; press ctrl+c to exit")
	sig := make(chan os.Signal, 1)
	shutdown.Notify(sig)
	<-sig

	fmt.Println("stopping")
	shutdown.StopAll()
}
