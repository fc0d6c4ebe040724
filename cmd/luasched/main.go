package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/luasched/luasched"
	"github.com/luasched/luasched/luavm"
	"github.com/spf13/cobra"
	lua "github.com/yuin/gopher-lua"
)

var quiet bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "luasched",
		Short: "luasched - coroutine scheduler for embedded Lua scripts",
	}
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress structured logging output")

	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Load and run a Lua script under the scheduler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(args[0])
		},
	}
	return cmd
}

func runScript(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	L := lua.NewState()
	defer L.Close()

	vm := luavm.NewGopherLua(L)

	var opts []luasched.Option
	if quiet {
		opts = append(opts, luasched.WithLogger(luasched.NewNoOpLogger()))
	}

	rt, err := luasched.New(vm, opts...)
	if err != nil {
		return fmt.Errorf("attach runtime: %w", err)
	}
	if err := rt.PublishScriptAPI(); err != nil {
		return fmt.Errorf("publish script API: %w", err)
	}
	if err := publishExit(rt, L); err != nil {
		return fmt.Errorf("publish exit: %w", err)
	}
	if err := publishSleep(rt, vm, L); err != nil {
		return fmt.Errorf("publish sleep: %w", err)
	}

	fn, err := L.LoadString(string(source))
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}

	if _, err := rt.PushThreadFront(luavm.Value(fn), nil); err != nil {
		return fmt.Errorf("submit main thread: %w", err)
	}

	if err := rt.Run(context.Background()); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if !quiet {
		stats := rt.Stats()
		fmt.Fprintf(os.Stderr, "luasched: %d ticks, %d resumes, %d completed, %d errored\n",
			stats.Ticks, stats.ThreadsResumed, stats.ThreadsCompleted, stats.ThreadsErrored)
	}

	if code, ok := rt.GetExitCode(); ok && code != 0 {
		os.Exit(code)
	}
	return nil
}

// publishSleep wires the `sleep(seconds)` demo global used by
// scripts/examples/*.lua. It is an external collaborator (a real timer, not
// part of the scheduler itself), composed the same way exit is: a thin Lua
// stub that calls a host starter function and yields whatever it returns,
// here the scheduler's pending sentinel, so the calling coroutine suspends
// until the timer goroutine hands its continuation back onto the tick loop
// via SpawnLocal.
func publishSleep(rt *luasched.Runtime, vm *luavm.GopherLua, L *lua.LState) error {
	L.SetGlobal("__luasched_sleep_start", L.NewFunction(func(L *lua.LState) int {
		seconds := float64(L.OptNumber(1, 0))
		co, ok := rt.CurrentCoroutine()
		if !ok {
			L.RaiseError("sleep: no running coroutine")
			return 0
		}
		before := time.Now()
		go func() {
			time.Sleep(time.Duration(seconds * float64(time.Second)))
			elapsed := time.Since(before).Seconds()
			rt.SpawnLocal(func() {
				rt.Resume(co, []luavm.Value{lua.LValue(lua.LNumber(elapsed))})
			})
		}()
		L.Push(vm.Pending().(lua.LValue))
		return 1
	}))
	return L.DoString(`
function sleep(seconds)
  return coroutine.yield(__luasched_sleep_start(seconds))
end
`)
}

// publishExit composes spec.md §6.3's `exit([code])` from Runtime.Exit and a
// coroutine.yield, the one script-facing operation that must both call a
// host function and suspend the calling coroutine atomically — only
// possible from inside the VM, so it is wired here rather than in
// Runtime.PublishScriptAPI.
func publishExit(rt *luasched.Runtime, L *lua.LState) error {
	L.SetGlobal("__luasched_set_exit_code", L.NewFunction(func(L *lua.LState) int {
		code := L.OptInt(1, 0)
		rt.Exit(code)
		return 0
	}))
	return L.DoString(`
function exit(code)
  __luasched_set_exit_code(code or 0)
  return coroutine.yield()
end
`)
}
