// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Task runner for the repo, usable where make is not.
//
//	go run scripts/ops.go test     # go test ./... -cover, ok/FAIL lines only
//	go run scripts/ops.go detail   # verbose, without "[no test files]"
//	go run scripts/ops.go smoke    # short simulation of every demo game
//	go run scripts/ops.go pgo      # cpu profile of a long simulation into default.pgo
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const (
	green = "\033[32m"
	red   = "\033[31m"
	reset = "\033[0m"
)

type task struct {
	args   []string
	filter func(line string) (string, bool)
}

var tasks = map[string][]task{
	"test":   {{args: []string{"go", "clean", "-testcache"}}, {args: []string{"go", "test", "./...", "-cover", "-count=1"}, filter: onlyResults}},
	"detail": {{args: []string{"go", "test", "./...", "-v", "-count=1"}, filter: noEmptyPackages}},
	"smoke": {
		{args: []string{"go", "run", "./cmd/run", "-game", "1001", "-spins", "20000", "-seed", "1"}},
		{args: []string{"go", "run", "./cmd/run", "-game", "1002", "-spins", "20000", "-seed", "1"}},
		{args: []string{"go", "run", "./cmd/run", "-game", "1001", "-player", "200", "-bets", "100", "-spins", "500", "-seed", "1"}},
	},
	"pgo": {
		{args: []string{"go", "run", "./cmd/run", "-game", "1001", "-spins", "2000000", "-seed", "1", "-p", "cpu"}},
		{args: []string{"cp", "build/profiling/cpu.pprof", "default.pgo"}},
	},
}

func main() {
	if len(os.Args) < 2 || tasks[os.Args[1]] == nil {
		fmt.Println("Usage: go run scripts/ops.go [test|detail|smoke|pgo]")
		os.Exit(1)
	}
	for _, t := range tasks[os.Args[1]] {
		fmt.Println(green + strings.Join(t.args, " ") + reset)
		if err := t.run(); err != nil {
			fmt.Println(red + err.Error() + reset)
			os.Exit(1)
		}
	}
}

func (t task) run() error {
	cmd := exec.Command(t.args[0], t.args[1:]...)
	if t.filter == nil {
		cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
		return cmd.Run()
	}
	pr, pw := io.Pipe()
	cmd.Stdout, cmd.Stderr = pw, pw
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { pw.CloseWithError(cmd.Wait()) }()

	sc := bufio.NewScanner(pr)
	for sc.Scan() {
		if line, ok := t.filter(sc.Text()); ok {
			fmt.Println(line)
		}
	}
	return sc.Err()
}

// onlyResults keeps ok/FAIL lines and build errors, the way grep -E '^(ok|FAIL)' would.
func onlyResults(line string) (string, bool) {
	switch {
	case strings.HasPrefix(line, "ok"):
		return green + line + reset, true
	case strings.HasPrefix(line, "FAIL"), strings.Contains(line, "build failed"), strings.Contains(line, "setup failed"):
		return red + line + reset, true
	}
	return "", false
}

func noEmptyPackages(line string) (string, bool) {
	if strings.Contains(line, "[no test files]") {
		return "", false
	}
	if l, ok := onlyResults(line); ok {
		return l, true
	}
	return line, true
}
